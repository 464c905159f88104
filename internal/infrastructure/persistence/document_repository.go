package persistence

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create stores document metadata. Filenames are unique per ticket.
func (r *GormDocumentRepository) Create(ctx context.Context, doc *tracker.Document) error {
	model := models.DocumentModelFromDomain(doc)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return tracker.ErrDuplicateDocument
		}
		return err
	}
	doc.ID = model.ID
	doc.Created = model.CreatedAt
	return nil
}

// Update updates document metadata
func (r *GormDocumentRepository) Update(ctx context.Context, doc *tracker.Document) error {
	result := r.db.WithContext(ctx).Save(models.DocumentModelFromDomain(doc))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return tracker.ErrDuplicateDocument
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes document metadata
func (r *GormDocumentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id int64) (*tracker.Document, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByFilename finds a document of a ticket by filename
func (r *GormDocumentRepository) FindByFilename(ctx context.Context, ticketID int64, filename string) (*tracker.Document, error) {
	return r.findOne(ctx, "ticket_id = ? AND filename = ?", ticketID, filename)
}

// FindByTicket lists the documents of a ticket by filename
func (r *GormDocumentRepository) FindByTicket(ctx context.Context, ticketID int64) ([]*tracker.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("filename").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withUploaders(ctx, rows)
}

func (r *GormDocumentRepository) findOne(ctx context.Context, query string, args ...any) (*tracker.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	docs, err := r.withUploaders(ctx, []models.DocumentModel{model})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// withUploaders fills the uploader usernames
func (r *GormDocumentRepository) withUploaders(ctx context.Context, rows []models.DocumentModel) ([]*tracker.Document, error) {
	docs := make([]*tracker.Document, len(rows))
	ids := map[int64]bool{}
	for i := range rows {
		docs[i] = rows[i].ToDomain()
		if rows[i].UploaderID != nil {
			ids[*rows[i].UploaderID] = true
		}
	}
	if len(ids) == 0 {
		return docs, nil
	}
	var users []models.UserModel
	if err := r.db.WithContext(ctx).Select("id", "username").Where("id IN ?", keys(ids)).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for _, d := range docs {
		if d.UploaderID != nil {
			d.Uploader = names[*d.UploaderID]
		}
	}
	return docs, nil
}

// GormSignatureRepository implements SignatureRepository using GORM
type GormSignatureRepository struct {
	db *gorm.DB
}

// NewGormSignatureRepository creates a new GormSignatureRepository
func NewGormSignatureRepository(db *gorm.DB) *GormSignatureRepository {
	return &GormSignatureRepository{db: db}
}

// Create stores a signature
func (r *GormSignatureRepository) Create(ctx context.Context, sig *tracker.Signature) error {
	model := models.SignatureModelFromDomain(sig)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	sig.ID = model.ID
	sig.Created = model.CreatedAt
	return nil
}

// DeleteFor removes the signatures of user on a ticket
func (r *GormSignatureRepository) DeleteFor(ctx context.Context, ticketID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("ticket_id = ? AND user_id = ?", ticketID, userID).
		Delete(&models.SignatureModel{}).Error
}

// Exists reports whether user signed the ticket
func (r *GormSignatureRepository) Exists(ctx context.Context, ticketID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SignatureModel{}).
		Where("ticket_id = ? AND user_id = ?", ticketID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByTicket lists the signatures of a ticket, oldest first
func (r *GormSignatureRepository) FindByTicket(ctx context.Context, ticketID int64) ([]*tracker.Signature, error) {
	var rows []models.SignatureModel
	if err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*tracker.Signature, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
