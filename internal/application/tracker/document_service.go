package tracker

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// DocumentService keeps the private documents of tickets
type DocumentService struct {
	hooks
	tickets   tracker.TicketRepository
	documents tracker.DocumentRepository
	store     storage.ObjectStorage
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	tickets tracker.TicketRepository,
	documents tracker.DocumentRepository,
	store storage.ObjectStorage,
	settings Settings,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		hooks:     newHooks(settings, logger),
		tickets:   tickets,
		documents: documents,
		store:     store,
	}
}

// List returns the documents of a ticket the user may see: all of them
// for the requester and document staff, otherwise their own uploads
func (s *DocumentService) List(ctx context.Context, user *identity.User, ticketID int64) ([]DocumentResponse, error) {
	t, err := s.editableTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.FindByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	seeAll := t.CanSeeAllDocuments(user)
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		if seeAll || uploadedBy(d, user) {
			out = append(out, ToDocumentResponse(d))
		}
	}
	return out, nil
}

// Upload stores a document payload and records it on the ticket
func (s *DocumentService) Upload(ctx context.Context, user *identity.User, ticketID int64, in UploadDocumentInput) (*DocumentResponse, error) {
	t, err := s.editableTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	uploader := user.ID
	d, err := tracker.NewDocument(t.ID, in.Filename, in.ContentType, in.Description, in.Size, &uploader)
	if err != nil {
		return nil, err
	}
	if _, err := s.documents.FindByFilename(ctx, t.ID, d.Filename); err == nil {
		return nil, tracker.ErrDuplicateDocument
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	d.StorageKey = storage.DocumentKey(s.settings.DocsPrefix, t.ID, d.Filename)
	if err := s.store.Put(ctx, d.StorageKey, in.Body, d.Size, d.ContentType); err != nil {
		return nil, err
	}
	if err := s.documents.Create(ctx, d); err != nil {
		if delErr := s.store.Delete(ctx, d.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned document payload",
				zap.String("key", d.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	d.Uploader = user.Username
	s.logger.Info("Document uploaded",
		zap.Int64("ticket_id", t.ID),
		zap.Int64("document_id", d.ID),
		zap.Int64("size", d.Size))

	s.events.documentSaved(ctx, t, d, true, user)
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Update changes the description of a document
func (s *DocumentService) Update(ctx context.Context, user *identity.User, id int64, req UpdateDocumentRequest) (*DocumentResponse, error) {
	d, t, err := s.writableDocument(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := d.SetDescription(req.Description); err != nil {
		return nil, err
	}
	if err := s.documents.Update(ctx, d); err != nil {
		return nil, err
	}
	s.events.documentSaved(ctx, t, d, false, user)
	resp := ToDocumentResponse(d)
	return &resp, nil
}

// Delete removes a document with its payload
func (s *DocumentService) Delete(ctx context.Context, user *identity.User, id int64) error {
	d, t, err := s.writableDocument(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete document payload", zap.String("key", d.StorageKey), zap.Error(err))
	}
	s.logger.Info("Document deleted", zap.Int64("ticket_id", t.ID), zap.Int64("document_id", id))
	s.events.documentRemoved(ctx, t, d, user)
	return nil
}

// Download hands out a presigned link when the backend supports it and
// an open stream otherwise
func (s *DocumentService) Download(ctx context.Context, user *identity.User, ticketID int64, filename string) (*Download, error) {
	t, err := s.editableTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	d, err := s.documents.FindByFilename(ctx, ticketID, filename)
	if err != nil {
		return nil, err
	}
	if !t.CanSeeAllDocuments(user) && !uploadedBy(d, user) {
		return nil, shared.ErrForbidden.WithMessage("You cannot see this document")
	}

	url, expires, err := s.store.PresignDownload(ctx, d.StorageKey, d.Filename)
	switch {
	case err == nil:
		return &Download{URL: url, Expires: expires, Filename: d.Filename}, nil
	case !errors.Is(err, storage.ErrPresignUnsupported):
		return nil, err
	}

	obj, err := s.store.Open(ctx, d.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, shared.ErrNotFound.WithMessage("Document payload is missing")
	}
	if err != nil {
		return nil, err
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = d.ContentType
	}
	return &Download{
		Body:        obj.Body,
		Size:        obj.Size,
		ContentType: contentType,
		Filename:    d.Filename,
	}, nil
}

func (s *DocumentService) editableTicket(ctx context.Context, user *identity.User, ticketID int64) (*tracker.Ticket, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !t.IsEditable(user) {
		return nil, shared.ErrForbidden.WithMessage("You cannot edit this ticket")
	}
	return t, nil
}

func (s *DocumentService) writableDocument(ctx context.Context, user *identity.User, id int64) (*tracker.Document, *tracker.Ticket, error) {
	if err := requireUser(user); err != nil {
		return nil, nil, err
	}
	d, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.editableTicket(ctx, user, d.TicketID)
	if err != nil {
		return nil, nil, err
	}
	if !t.CanEditDocuments(user) && !uploadedBy(d, user) {
		return nil, nil, shared.ErrForbidden.WithMessage("You cannot edit this document")
	}
	return d, t, nil
}

func uploadedBy(d *tracker.Document, user *identity.User) bool {
	return d.UploaderID != nil && user.IsAuthenticated() && *d.UploaderID == user.ID
}
