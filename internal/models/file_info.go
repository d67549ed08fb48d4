package models

import "time"

// FileInfo is the stored metadata of an uploaded log file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	// Status is "uploaded", or "rejected" when the eligibility probe failed.
	Status   string `json:"status"`
	Eligible bool   `json:"eligible"`
}
