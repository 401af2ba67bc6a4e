package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSource indicates how a contract entered the system
type DocumentSource string

const (
	SourceUpload DocumentSource = "upload"
	SourceText   DocumentSource = "text"
)

// Document represents an uploaded contract document
type Document struct {
	ID          uuid.UUID      `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	Size        int64          `json:"size"`
	StoragePath string         `json:"storage_path"`
	Source      DocumentSource `json:"source"`
	CreatedAt   time.Time      `json:"created_at"`
}
