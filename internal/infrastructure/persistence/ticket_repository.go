package persistence

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTicketRepository implements TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Create inserts the ticket with its acks, expeditures and preexpeditures
func (r *GormTicketRepository) Create(ctx context.Context, ticket *tracker.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.TicketModelFromDomain(ticket)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		ticket.ID = model.ID
		ticket.Created = model.CreatedAt
		ticket.Updated = model.UpdatedAt

		for i := range ticket.Expeditures {
			e := &ticket.Expeditures[i]
			e.TicketID = ticket.ID
			row := models.ExpeditureModelFromDomain(e)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			e.ID = row.ID
		}
		for i := range ticket.Preexpeditures {
			p := &ticket.Preexpeditures[i]
			p.TicketID = ticket.ID
			row := models.PreexpeditureModelFromDomain(p)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			p.ID = row.ID
		}
		for i := range ticket.Acks {
			a := &ticket.Acks[i]
			a.TicketID = ticket.ID
			row := models.TicketAckModelFromDomain(a)
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			a.ID = row.ID
		}
		return nil
	})
}

// Update writes the ticket columns, derived ones included
func (r *GormTicketRepository) Update(ctx context.Context, ticket *tracker.Ticket) error {
	result := r.db.WithContext(ctx).Save(models.TicketModelFromDomain(ticket))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the ticket and everything hanging off it
func (r *GormTicketRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mediaIDs := tx.Model(&models.MediaInfoModel{}).Select("id").Where("ticket_id = ?", id)
		if err := tx.Where("media_info_id IN (?)", mediaIDs).Delete(&models.MediaInfoCategoryModel{}).Error; err != nil {
			return err
		}
		mediaIDs = tx.Model(&models.MediaInfoModel{}).Select("id").Where("ticket_id = ?", id)
		if err := tx.Where("media_info_id IN (?)", mediaIDs).Delete(&models.MediaInfoUsageModel{}).Error; err != nil {
			return err
		}
		children := []any{
			&models.MediaInfoModel{},
			&models.ExpeditureModel{},
			&models.PreexpeditureModel{},
			&models.TicketAckModel{},
			&models.DocumentModel{},
			&models.SignatureModel{},
			&models.CommentModel{},
			&models.TransactionTicketModel{},
		}
		for _, child := range children {
			if err := tx.Where("ticket_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("object_kind = ? AND object_id = ?", string(notification.WatchTicket), id).
			Delete(&models.WatcherModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TicketModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID loads the full ticket aggregate
func (r *GormTicketRepository) FindByID(ctx context.Context, id int64) (*tracker.Ticket, error) {
	var model models.TicketModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	tickets, err := r.load(ctx, []models.TicketModel{model})
	if err != nil {
		return nil, err
	}
	return tickets[0], nil
}

// FindAll returns one page of loaded tickets and the total match count
func (r *GormTicketRepository) FindAll(ctx context.Context, filter tracker.TicketFilter) ([]*tracker.Ticket, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var rows []models.TicketModel
	if err := query.Order(TicketOrderClause(filter.OrderBy)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	tickets, err := r.load(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// FindAllLoaded returns every matching ticket without paging
func (r *GormTicketRepository) FindAllLoaded(ctx context.Context, filter tracker.TicketFilter) ([]*tracker.Ticket, error) {
	var rows []models.TicketModel
	if err := r.filtered(ctx, filter).Order(TicketOrderClause(filter.OrderBy)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.load(ctx, rows)
}

func (r *GormTicketRepository) filtered(ctx context.Context, filter tracker.TicketFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.TicketModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		if id, err := strconv.ParseInt(search, 10, 64); err == nil {
			query = query.Where("id = ? OR LOWER(name) LIKE ?", id, like)
		} else {
			query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
	}
	if len(filter.TopicIDs) > 0 {
		query = query.Where("topic_id IN ?", filter.TopicIDs)
	}
	if filter.GrantID != nil {
		query = query.Where("topic_id IN (?)", r.db.Model(&models.TopicModel{}).
			Select("id").Where("grant_id = ?", *filter.GrantID))
	}
	if filter.SubtopicID != nil {
		query = query.Where("subtopic_id = ?", *filter.SubtopicID)
	}
	if len(filter.RequestedUserID) > 0 {
		query = query.Where("requested_user_id IN ?", filter.RequestedUserID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}
	return query
}

// SaveExpediture inserts or updates an expediture and the ticket's
// derived columns
func (r *GormTicketRepository) SaveExpediture(ctx context.Context, ticket *tracker.Ticket, e *tracker.Expediture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e.TicketID = ticket.ID
		row := models.ExpeditureModelFromDomain(e)
		if err := saveChild(tx, row, e.ID, ticket.ID); err != nil {
			return err
		}
		e.ID = row.ID
		return writeDerived(tx, ticket)
	})
}

// DeleteExpediture removes an expediture of the ticket
func (r *GormTicketRepository) DeleteExpediture(ctx context.Context, ticket *tracker.Ticket, expeditureID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChild(tx, &models.ExpeditureModel{}, expeditureID, ticket.ID); err != nil {
			return err
		}
		return writeDerived(tx, ticket)
	})
}

// ReplaceExpeditures deletes the ticket's expeditures and inserts items
// together with the derived columns
func (r *GormTicketRepository) ReplaceExpeditures(ctx context.Context, ticket *tracker.Ticket, items []*tracker.Expediture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", ticket.ID).Delete(&models.ExpeditureModel{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			rows := make([]*models.ExpeditureModel, len(items))
			for i, e := range items {
				e.TicketID = ticket.ID
				rows[i] = models.ExpeditureModelFromDomain(e)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			for i, e := range items {
				e.ID = rows[i].ID
			}
		}
		return writeDerived(tx, ticket)
	})
}

// SavePreexpediture inserts or updates a preexpediture
func (r *GormTicketRepository) SavePreexpediture(ctx context.Context, ticket *tracker.Ticket, p *tracker.Preexpediture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p.TicketID = ticket.ID
		row := models.PreexpeditureModelFromDomain(p)
		if err := saveChild(tx, row, p.ID, ticket.ID); err != nil {
			return err
		}
		p.ID = row.ID
		return writeDerived(tx, ticket)
	})
}

// DeletePreexpediture removes a preexpediture of the ticket
func (r *GormTicketRepository) DeletePreexpediture(ctx context.Context, ticket *tracker.Ticket, preexpeditureID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChild(tx, &models.PreexpeditureModel{}, preexpeditureID, ticket.ID); err != nil {
			return err
		}
		return writeDerived(tx, ticket)
	})
}

// AddAck stores an ack
func (r *GormTicketRepository) AddAck(ctx context.Context, ticket *tracker.Ticket, ack *tracker.TicketAck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ack.TicketID = ticket.ID
		row := models.TicketAckModelFromDomain(ack)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		ack.ID = row.ID
		return writeDerived(tx, ticket)
	})
}

// RemoveAck deletes an ack of the ticket
func (r *GormTicketRepository) RemoveAck(ctx context.Context, ticket *tracker.Ticket, ackID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChild(tx, &models.TicketAckModel{}, ackID, ticket.ID); err != nil {
			return err
		}
		return writeDerived(tx, ticket)
	})
}

// FindExpediture finds an expediture by ID
func (r *GormTicketRepository) FindExpediture(ctx context.Context, id int64) (*tracker.Expediture, error) {
	var model models.ExpeditureModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPreexpediture finds a preexpediture by ID
func (r *GormTicketRepository) FindPreexpediture(ctx context.Context, id int64) (*tracker.Preexpediture, error) {
	var model models.PreexpeditureModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListExpeditures returns the expeditures of tickets, by ticket then id
func (r *GormTicketRepository) ListExpeditures(ctx context.Context, ticketIDs []int64) ([]*tracker.Expediture, error) {
	out := []*tracker.Expediture{}
	if len(ticketIDs) == 0 {
		return out, nil
	}
	var rows []models.ExpeditureModel
	if err := r.db.WithContext(ctx).Where("ticket_id IN ?", ticketIDs).Order("ticket_id, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ListPreexpeditures returns the preexpeditures of tickets, by ticket then id
func (r *GormTicketRepository) ListPreexpeditures(ctx context.Context, ticketIDs []int64) ([]*tracker.Preexpediture, error) {
	out := []*tracker.Preexpediture{}
	if len(ticketIDs) == 0 {
		return out, nil
	}
	var rows []models.PreexpeditureModel
	if err := r.db.WithContext(ctx).Where("ticket_id IN ?", ticketIDs).Order("ticket_id, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SetMediaUpdated stamps the media refresh time
func (r *GormTicketRepository) SetMediaUpdated(ctx context.Context, ticketID int64) error {
	return r.updateColumn(ctx, ticketID, "media_updated", time.Now())
}

// Touch bumps the ticket's updated time
func (r *GormTicketRepository) Touch(ctx context.Context, ticketID int64) error {
	return r.updateColumn(ctx, ticketID, "updated_at", time.Now())
}

func (r *GormTicketRepository) updateColumn(ctx context.Context, ticketID int64, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Where("id = ?", ticketID).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// saveChild creates row when id is zero, otherwise updates it after
// checking it belongs to the ticket
func saveChild(tx *gorm.DB, row any, id, ticketID int64) error {
	if id == 0 {
		return tx.Create(row).Error
	}
	var count int64
	if err := tx.Model(row).Where("id = ? AND ticket_id = ?", id, ticketID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return tx.Save(row).Error
}

func deleteChild(tx *gorm.DB, model any, id, ticketID int64) error {
	result := tx.Where("id = ? AND ticket_id = ?", id, ticketID).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// writeDerived stores the derived columns the caller recomputed on ticket
func writeDerived(tx *gorm.DB, ticket *tracker.Ticket) error {
	updated := ticket.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	return tx.Model(&models.TicketModel{}).
		Where("id = ?", ticket.ID).
		Updates(map[string]any{
			"payment_status": string(ticket.PaymentStatus),
			"is_completed":   ticket.IsCompleted,
			"updated_at":     updated,
		}).Error
}

// load converts rows into full aggregates with batched child queries
func (r *GormTicketRepository) load(ctx context.Context, rows []models.TicketModel) ([]*tracker.Ticket, error) {
	tickets := make([]*tracker.Ticket, 0, len(rows))
	if len(rows) == 0 {
		return tickets, nil
	}
	db := r.db.WithContext(ctx)

	ids := make([]int64, 0, len(rows))
	byID := make(map[int64]*tracker.Ticket, len(rows))
	topicIDs := map[int64]bool{}
	userIDs := map[int64]bool{}
	for i := range rows {
		t := rows[i].ToDomain()
		tickets = append(tickets, t)
		ids = append(ids, t.ID)
		byID[t.ID] = t
		topicIDs[t.TopicID] = true
		if t.RequestedUserID != nil {
			userIDs[*t.RequestedUserID] = true
		}
	}

	var topicRows []models.TopicModel
	if err := db.Where("id IN ?", keys(topicIDs)).Find(&topicRows).Error; err != nil {
		return nil, err
	}
	topics, err := (&GormTopicRepository{db: r.db}).load(ctx, topicRows)
	if err != nil {
		return nil, err
	}
	topicByID := make(map[int64]*tracker.Topic, len(topics))
	for _, topic := range topics {
		topicByID[topic.ID] = topic
	}

	var acks []models.TicketAckModel
	if err := db.Where("ticket_id IN ?", ids).Order("added, id").Find(&acks).Error; err != nil {
		return nil, err
	}
	for _, a := range acks {
		if a.AddedByID != nil {
			userIDs[*a.AddedByID] = true
		}
	}

	var userRows []models.UserModel
	if len(userIDs) > 0 {
		if err := db.Where("id IN ?", keys(userIDs)).Find(&userRows).Error; err != nil {
			return nil, err
		}
	}
	userByID := make(map[int64]*identity.User, len(userRows))
	for i := range userRows {
		userByID[userRows[i].ID] = userRows[i].ToDomain()
	}

	for _, a := range acks {
		ack := a.ToDomain()
		if a.AddedByID != nil {
			if u, ok := userByID[*a.AddedByID]; ok {
				ack.AddedBy = u.Username
			}
		}
		byID[a.TicketID].Acks = append(byID[a.TicketID].Acks, ack)
	}

	var expeditures []models.ExpeditureModel
	if err := db.Where("ticket_id IN ?", ids).Order("id").Find(&expeditures).Error; err != nil {
		return nil, err
	}
	for i := range expeditures {
		t := byID[expeditures[i].TicketID]
		t.Expeditures = append(t.Expeditures, *expeditures[i].ToDomain())
	}

	var preexpeditures []models.PreexpeditureModel
	if err := db.Where("ticket_id IN ?", ids).Order("id").Find(&preexpeditures).Error; err != nil {
		return nil, err
	}
	for i := range preexpeditures {
		t := byID[preexpeditures[i].TicketID]
		t.Preexpeditures = append(t.Preexpeditures, *preexpeditures[i].ToDomain())
	}

	var mediaCounts []struct {
		TicketID int64
		Count    int64
	}
	if err := db.Model(&models.MediaInfoModel{}).
		Select("ticket_id, COUNT(*) AS count").
		Where("ticket_id IN ?", ids).
		Group("ticket_id").
		Scan(&mediaCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range mediaCounts {
		byID[c.TicketID].MediaCount = c.Count
	}

	for _, t := range tickets {
		t.Topic = topicByID[t.TopicID]
		if t.Topic != nil && t.SubtopicID != nil {
			for _, s := range t.Topic.Subtopics {
				if s.ID == *t.SubtopicID {
					t.Subtopic = s
				}
			}
		}
		if t.RequestedUserID != nil {
			t.RequestedUser = userByID[*t.RequestedUserID]
		}
	}
	return tickets, nil
}

func keys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
