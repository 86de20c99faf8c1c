package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // text extracted
	JobStatusEmpty   JobStatus = "EMPTY"   // pipeline ran but produced no usable text
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// Extraction methods recorded on a job.
const (
	MethodImageOCR = "image-ocr"
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodDOCX     = "docx"
	MethodText     = "text"
)
