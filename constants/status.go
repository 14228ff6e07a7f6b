package constants

// UploadStatus is the canonical lifecycle state for rows in uploads.
type UploadStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    UploadStatus = "PENDING"    // created by intake, not yet picked up
	StatusProcessing UploadStatus = "PROCESSING" // extraction in progress
	StatusExtracted  UploadStatus = "EXTRACTED"  // terminal success
	StatusFailed     UploadStatus = "FAILED"     // terminal failure
)

// IsTerminal reports whether no transition may leave s.
func (s UploadStatus) IsTerminal() bool {
	return s == StatusExtracted || s == StatusFailed
}

// CanTransition reports whether s -> next is a legal forward move.
// The lifecycle is strictly PENDING -> PROCESSING -> {EXTRACTED | FAILED}.
func (s UploadStatus) CanTransition(next UploadStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusExtracted || next == StatusFailed
	default:
		return false
	}
}

// ParseUploadStatus maps a stored string back to the enum, or "" if unknown.
func ParseUploadStatus(s string) UploadStatus {
	switch UploadStatus(s) {
	case StatusPending, StatusProcessing, StatusExtracted, StatusFailed:
		return UploadStatus(s)
	}
	return ""
}
