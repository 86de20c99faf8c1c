// Package ingest discovers lyric sheets on disk for batch extraction.
package ingest

// FileResult is one discovered file.
type FileResult struct {
	Path         string
	HashHex      string
	Size         int64
	Deduplicated bool // same content as an earlier file in this scan
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
