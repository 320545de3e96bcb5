package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"cofre/internal/core"
)

/*
CSV layout

statement.csv
id,date,description,category,payment_method,direction,amount

Notes:
- date = "2006-01-02" (the transaction's literal day key)
- amount = decimal units with two places
- We keep an in-memory index by ID and rewrite the file atomically after
  each mutation, so re-exporting the same record is idempotent.
*/

var statementHeader = []string{"id", "date", "description", "category", "payment_method", "direction", "amount"}

// Statement is a CSV file holding one row per exported transaction.
type Statement struct {
	path string

	mu   sync.Mutex
	rows map[string][]string
}

func NewStatement(path string) (*Statement, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	s := &Statement{
		path: path,
		rows: make(map[string][]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Statement) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return atomicWriteCSV(s.path, [][]string{statementHeader})
	}
	if err != nil {
		return fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) < len(statementHeader) {
			continue
		}
		s.rows[row[0]] = row
	}
	return nil
}

// Append writes or overwrites the row for one transaction.
func (s *Statement) Append(tx core.Transaction) error {
	day, err := core.DayKey(tx.OccurredAt)
	if err != nil {
		return fmt.Errorf("derive day key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[tx.ID.String()] = []string{
		tx.ID.String(),
		day,
		tx.Description,
		tx.Category,
		tx.PaymentMethod,
		string(tx.Direction),
		formatAmount(tx.Amount.Cents),
	}
	return s.saveLocked()
}

// Delete removes the row for one transaction ID. Removing an absent row is
// not an error.
func (s *Statement) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return nil
	}
	delete(s.rows, id)
	return s.saveLocked()
}

// Len returns the number of exported rows.
func (s *Statement) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Statement) saveLocked() error {
	records := make([][]string, 0, len(s.rows)+1)
	records = append(records, statementHeader)
	for _, row := range s.rows {
		records = append(records, row)
	}
	// Deterministic file content: date first, ID as tie-break
	sort.Slice(records[1:], func(i, j int) bool {
		a, b := records[i+1], records[j+1]
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	return atomicWriteCSV(s.path, records)
}

func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func atomicWriteCSV(path string, records [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "tmp-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
