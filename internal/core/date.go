package core

import (
	"errors"
	"time"
)

// ErrBadDayKey reports a timestamp whose literal date component could not be
// extracted.
var ErrBadDayKey = errors.New("timestamp has no valid date component")

// DayKey extracts the literal "YYYY-MM-DD" prefix of a canonical ISO
// timestamp. The extraction is purely textual: two records written on the
// same calendar day bucket together no matter what time of day they carry or
// what timezone the host runs in. Parsing through time.Parse in local time
// would shift cross-midnight records into the wrong day.
func DayKey(timestamp string) (string, error) {
	if len(timestamp) < 10 {
		return "", ErrBadDayKey
	}
	key := timestamp[:10]
	if key[4] != '-' || key[7] != '-' {
		return "", ErrBadDayKey
	}
	for i, c := range []byte(key) {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return "", ErrBadDayKey
		}
	}
	month := int(key[5]-'0')*10 + int(key[6]-'0')
	day := int(key[8]-'0')*10 + int(key[9]-'0')
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", ErrBadDayKey
	}
	// Anything after the prefix must start a time part, not more date.
	if len(timestamp) > 10 {
		switch timestamp[10] {
		case 'T', ' ', 't':
		default:
			return "", ErrBadDayKey
		}
	}
	return key, nil
}

// DayKeyTime builds a UTC-midnight time for a day key. Used only for
// ordering and day arithmetic, never for re-deriving the calendar date.
func DayKeyTime(key string) time.Time {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Midnight truncates a time to its calendar date at UTC midnight. Date-only
// comparisons (overdue checks, days remaining) go through this so that
// time-of-day never influences the result.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
