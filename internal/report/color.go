package report

import "hash/fnv"

// categoryColors pins the seeded taxonomy to fixed colors so charts stay
// consistent across sessions.
var categoryColors = map[string]string{
	"Food":                        "#e76f51",
	"Transport":                   "#2a9d8f",
	"Housing":                     "#264653",
	"Health":                      "#e63946",
	"Leisure":                     "#f4a261",
	"Education":                   "#457b9d",
	"Shopping":                    "#9b5de5",
	"Salary":                      "#2b9348",
	"Investments":                 "#0077b6",
	"Gifts":                       "#ff70a6",
	"Goal contribution":           "#6a4c93",
	"Goal withdrawal":             "#8ac926",
	"Other":                       "#8d99ae",
}

// fallbackPalette colors labels outside the fixed map. Assignment is by
// stable string hash, never by map iteration order, so a label keeps its
// color across runs.
var fallbackPalette = []string{
	"#ef476f", "#ffd166", "#06d6a0", "#118ab2", "#073b4c",
	"#f78c6b", "#83d483", "#bc96e6", "#55dde0", "#f9c74f",
}

// ColorFor returns the deterministic display color for a label.
func ColorFor(label string) string {
	if c, ok := categoryColors[label]; ok {
		return c
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	return fallbackPalette[h.Sum32()%uint32(len(fallbackPalette))]
}

// LegendEntry is the render-time display config for one bucket label.
type LegendEntry struct {
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// Legend builds a label-to-display mapping from a bucket list. It is
// computed fresh per call; there is no shared mutable chart config.
func Legend(buckets []Bucket) map[string]LegendEntry {
	legend := make(map[string]LegendEntry, len(buckets))
	for _, b := range buckets {
		legend[b.Label] = LegendEntry{DisplayName: b.Label, Color: b.Color}
	}
	return legend
}
