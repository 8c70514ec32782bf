package model

import "time"

const (
	ActivityActionUpload = "UPLOAD"

	ActivityTargetDocument = "document"
)

// ActivityLog is an immutable audit trail entry.
type ActivityLog struct {
	ID         string
	UserID     string
	Action     string
	TargetType string
	TargetID   string
	Details    []byte
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
