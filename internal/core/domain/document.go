package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileUpload is an inline payload received through the classify-new path,
// already decoded from its transport encoding.
type FileUpload struct {
	Filename string
	Content  []byte
}

// Document is a blob staged for classification. Content is held only for the
// duration of the request; the stored object itself is immutable.
type Document struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// StoredObject is listing metadata for one blob under the storage root.
type StoredObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentTypeForFilename infers the content type from the file extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// OracleDocument is the payload handed to the classification oracle. When
// Text is non-empty the extracted representation is sent; otherwise the raw
// bytes go inline with their mime type.
type OracleDocument struct {
	Filename string
	MimeType string
	Text     string
	Content  []byte
}
