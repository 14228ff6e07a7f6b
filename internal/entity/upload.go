package entity

import (
	"time"

	"github.com/bizledger/docextract/constants"
)

// Upload is one user-submitted file and its processing metadata. Rows are
// created by the upload-intake collaborator; only the orchestrator mutates
// status and error_message afterwards.
type Upload struct {
	ID           string
	StoreID      string
	FileType     constants.FileType
	StoragePath  string
	UploadedAt   time.Time
	Status       constants.UploadStatus
	ErrorMessage string // set iff Status == FAILED
}
