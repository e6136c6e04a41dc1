// Package storage keeps uploaded files on local disk under a root directory.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrEmpty       = errors.New("file is empty")
	ErrTooLarge    = errors.New("file exceeds upload limit")
	ErrUnsupported = errors.New("file type not allowed")
	ErrInvalidKey  = errors.New("invalid storage key")
	ErrNotFound    = errors.New("stored file not found")
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeText = "text/plain"
	MimeCSV  = "text/csv"
)

// File is an accepted upload.
type File struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type Disk struct {
	Root     string
	MaxBytes int64
}

func NewDisk(root string, maxBytes int64) *Disk {
	return &Disk{Root: root, MaxBytes: maxBytes}
}

// Sniff detects the content type of data and checks it against allowed.
// The declared type from the client is never trusted.
func Sniff(data []byte, allowed ...string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mime := mimetype.Detect(data)
	for _, want := range allowed {
		if mime.Is(want) {
			return want, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupported, "detected %s", mime.String())
}

// Save sniffs, size-checks and writes data under prefix, returning its key.
func (d *Disk) Save(ctx context.Context, prefix, name string, data []byte, allowed ...string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	if d.MaxBytes > 0 && int64(len(data)) > d.MaxBytes {
		return File{}, ErrTooLarge
	}
	contentType, err := Sniff(data, allowed...)
	if err != nil {
		return File{}, err
	}
	key := filepath.ToSlash(filepath.Join(prefix, uuid.NewString()+extension(contentType)))
	path, err := d.path(key)
	if err != nil {
		return File{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return File{}, errors.Wrap(err, "create upload dir")
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return File{}, errors.Wrap(err, "write upload")
	}
	return File{Key: key, Name: cleanName(name), ContentType: contentType, Size: int64(len(data))}, nil
}

func (d *Disk) Open(key string) (io.ReadCloser, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, errors.Wrap(err, "open upload")
}

func (d *Disk) Delete(key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove upload")
	}
	return nil
}

func (d *Disk) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(d.Root, clean), nil
}

func extension(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}

func cleanName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}
