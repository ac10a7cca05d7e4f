package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/voxmarket/voxmarket-api/models"
)

const (
	// MaxDeliveryFileSize is 500MB in bytes; video deliveries are large.
	MaxDeliveryFileSize = 500 * 1024 * 1024
)

// deliveryFormats maps each service type to the file extensions its delivery
// uploader accepts.
var deliveryFormats = map[models.ServiceType][]string{
	models.ServiceVoiceOver:     {".mp3", ".wav", ".aiff", ".flac"},
	models.ServiceScriptwriting: {".pdf", ".docx", ".txt", ".md"},
	models.ServiceVideoEditing:  {".mp4", ".mov", ".mkv"},
}

// contentTypes maps delivery extensions to the content type stored alongside
// the object.
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateDeliveryFile validates an uploaded delivery against the order's
// service type: size limit plus the per-service extension allowlist.
func ValidateDeliveryFile(fileHeader *multipart.FileHeader, serviceType models.ServiceType) error {
	if fileHeader.Size > MaxDeliveryFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxDeliveryFileSize/(1024*1024)),
		}
	}

	allowed, ok := deliveryFormats[serviceType]
	if !ok {
		return &FileUploadError{
			Code:    "INVALID_SERVICE_TYPE",
			Message: fmt.Sprintf("No delivery formats configured for service type %q", serviceType),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed for %s deliveries", strings.Join(allowed, ", "), serviceType),
	}
}

// DeliveryContentType returns the content type to store for a delivery file,
// falling back to octet-stream for anything unmapped.
func DeliveryContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
