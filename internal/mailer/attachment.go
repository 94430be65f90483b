package mailer

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// Attachment is a file attached unmodified to every message of a run.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// LoadAttachment reads the file at path. Missing files, directories and
// unreadable files are reported as *AttachmentNotFoundError.
func LoadAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &AttachmentNotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &AttachmentNotFoundError{Path: path, Err: errors.New("is a directory")}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &AttachmentNotFoundError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	}, nil
}
