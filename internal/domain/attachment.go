package domain

import (
	"io"
	"time"
)

// Attachment is a file bound to exactly one ChatMessage. Deleting the
// message deletes its attachments and their backing files.
type Attachment struct {
	Id               int64
	MessageId        int64
	Filename         string // collision-free stored name
	OriginalFilename string // user supplied, untrusted
	FilePath         string
	FileSize         int64
	MimeType         string
	ThumbnailPath    *string
	IsProcessed      bool
	UploadedAt       time.Time
}

func (a *Attachment) FileURL() string {
	return "/uploads/" + a.Filename
}

func (a *Attachment) ThumbnailURL() string {
	if a.ThumbnailPath == nil {
		return ""
	}
	return "/uploads/thumbnails/" + *a.ThumbnailPath
}

// PendingFile is an uploaded file that passed validation but has not been
// ingested yet.
type PendingFile struct {
	Filename  string
	SizeBytes int64
	MimeType  string
	Data      io.Reader
}
