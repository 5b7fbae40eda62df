package domain

import "time"

// ScanStats holds statistics about one resolution scan.
type ScanStats struct {
	ScanID     string
	Scanned    int
	Candidates int
	Resolved   int
	Claimed    int
	Skipped    int
	Errors     int
	Persisted  int
	Crashed    bool
	Duration   time.Duration
}
