package tracker

import (
	"regexp"
	"strings"
	"time"
)

var filenameRegex = regexp.MustCompile(`^[-_\.A-Za-z0-9]+\.[A-Za-z0-9]+$`)

// Document is a private file attached to a ticket, e.g. an invoice
type Document struct {
	ID          int64
	TicketID    int64
	Filename    string
	Size        int64
	ContentType string
	Description string
	// StorageKey locates the payload in object storage
	StorageKey string
	UploaderID *int64
	Uploader   string
	Created    time.Time
}

// NewDocument creates a document record; the payload is stored separately
func NewDocument(ticketID int64, filename, contentType, description string, size int64, uploaderID *int64) (*Document, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	if err := validateDocumentDescription(description); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Document{
		TicketID:    ticketID,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		Description: strings.TrimSpace(description),
		UploaderID:  uploaderID,
		Created:     time.Now(),
	}, nil
}

// SetDescription changes the optional description
func (d *Document) SetDescription(description string) error {
	if err := validateDocumentDescription(description); err != nil {
		return err
	}
	d.Description = strings.TrimSpace(description)
	return nil
}

// ValidateFilename accepts plain names with an extension, such as
// my-invoice123.jpg
func ValidateFilename(filename string) error {
	if len(filename) > 120 || !filenameRegex.MatchString(filename) {
		return ErrInvalidFilename
	}
	return nil
}

func validateDocumentDescription(description string) error {
	if len([]rune(description)) > 255 {
		return ErrInvalidTicket.WithMessage("Document description cannot exceed 255 characters")
	}
	return nil
}

func (d *Document) String() string {
	return d.Filename
}

// Signature records a statutory declaration signed for a ticket
type Signature struct {
	ID         int64
	UserID     int64
	TicketID   int64
	SignedText string
	Created    time.Time
}

// NewSignature signs text for a ticket
func NewSignature(ticketID, userID int64, text string) *Signature {
	return &Signature{
		UserID:     userID,
		TicketID:   ticketID,
		SignedText: text,
		Created:    time.Now(),
	}
}
