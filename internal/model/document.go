package model

import "time"

// Document is the metadata row for a stored upload attached to an application.
// OriginalFilename is for display only; StoredFilename and RelativePath are what exists on disk.
type Document struct {
	ID               string    `json:"id"`
	ApplicationID    string    `json:"applicationId"`
	DocumentType     string    `json:"documentType"`
	OriginalFilename string    `json:"originalFilename"`
	StoredFilename   string    `json:"storedFilename"`
	RelativePath     string    `json:"relativePath"`
	FileSize         int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType"`
	FileHash         string    `json:"fileHash"`
	PageCount        *int      `json:"pageCount,omitempty"`
	ScanResult       []byte    `json:"-"`
	UploadedBy       string    `json:"uploadedBy"`
	CreatedAt        time.Time `json:"createdAt"`
}
