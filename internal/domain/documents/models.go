package documents

import (
	"errors"
	"time"

	"hris/internal/platform/storage"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrForbidden = errors.New("forbidden")
)

const CategoryGeneral = "general"

// AllowedTypes is the upload allow-list. Content is sniffed, never trusted
// from the client.
var AllowedTypes = []string{
	storage.MimePDF,
	storage.MimeDOCX,
	storage.MimeXLSX,
	storage.MimePNG,
	storage.MimeJPEG,
	storage.MimeText,
}

type Document struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	EmployeeName string    `json:"employeeName,omitempty"`
	ManagerID    string    `json:"-"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	FileKey      string    `json:"-"`
	FileName     string    `json:"fileName"`
	ContentType  string    `json:"contentType"`
	FileSize     int64     `json:"fileSize"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CompanyWide reports whether the document belongs to no single employee.
func (d Document) CompanyWide() bool { return d.EmployeeID == "" }

type UploadInput struct {
	Title      string `json:"title" validate:"required,max=200"`
	Category   string `json:"category" validate:"max=50"`
	EmployeeID string `json:"employeeId" validate:"omitempty,uuid"`
}

type Attachment struct {
	Name string
	Data []byte
}

type Filter struct {
	Category   string
	EmployeeID string
}
