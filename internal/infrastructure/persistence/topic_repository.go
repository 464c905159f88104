package persistence

import (
	"context"
	"errors"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTopicRepository implements TopicRepository using GORM
type GormTopicRepository struct {
	db *gorm.DB
}

// NewGormTopicRepository creates a new GormTopicRepository
func NewGormTopicRepository(db *gorm.DB) *GormTopicRepository {
	return &GormTopicRepository{db: db}
}

// Create creates a topic and its admin links
func (r *GormTopicRepository) Create(ctx context.Context, topic *tracker.Topic) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.TopicModelFromDomain(topic)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		topic.ID = model.ID
		topic.Created = model.CreatedAt
		return replaceAdmins(tx, topic.ID, topic.AdminIDs)
	})
}

// Update updates the topic and replaces its admins
func (r *GormTopicRepository) Update(ctx context.Context, topic *tracker.Topic) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Save(models.TopicModelFromDomain(topic))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return replaceAdmins(tx, topic.ID, topic.AdminIDs)
	})
}

// Delete removes a topic with its subtopics and admin links. Topics with
// tickets cannot be deleted.
func (r *GormTopicRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tickets int64
		if err := tx.Model(&models.TicketModel{}).Where("topic_id = ?", id).Count(&tickets).Error; err != nil {
			return err
		}
		if tickets > 0 {
			return shared.ErrConflict.WithMessage("Topic still has tickets")
		}
		if err := tx.Where("topic_id = ?", id).Delete(&models.TopicAdminModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("topic_id = ?", id).Delete(&models.SubtopicModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TopicModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID loads the topic with its grant, admins and subtopics
func (r *GormTopicRepository) FindByID(ctx context.Context, id int64) (*tracker.Topic, error) {
	var model models.TopicModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	topics, err := r.load(ctx, []models.TopicModel{model})
	if err != nil {
		return nil, err
	}
	return topics[0], nil
}

// FindByName finds a topic of a grant by exact name
func (r *GormTopicRepository) FindByName(ctx context.Context, grantID int64, name string) (*tracker.Topic, error) {
	var model models.TopicModel
	if err := r.db.WithContext(ctx).
		Where("grant_id = ? AND name = ?", grantID, name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	topics, err := r.load(ctx, []models.TopicModel{model})
	if err != nil {
		return nil, err
	}
	return topics[0], nil
}

// FindAll lists topics ordered by grant then name
func (r *GormTopicRepository) FindAll(ctx context.Context, filter tracker.TopicFilter) ([]*tracker.Topic, error) {
	query := r.db.WithContext(ctx).Model(&models.TopicModel{})
	if filter.GrantID != nil {
		query = query.Where("grant_id = ?", *filter.GrantID)
	}
	if filter.OpenOnly {
		query = query.Where("open_for_tickets = ?", true)
	}
	if filter.AdminID != nil {
		query = query.Where("id IN (?)", r.db.Model(&models.TopicAdminModel{}).
			Select("topic_id").Where("user_id = ?", *filter.AdminID))
	}
	var rows []models.TopicModel
	if err := query.Order("grant_id, name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.load(ctx, rows)
}

// SetAdmins replaces the admins of a topic
func (r *GormTopicRepository) SetAdmins(ctx context.Context, topicID int64, userIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceAdmins(tx, topicID, userIDs)
	})
}

func replaceAdmins(tx *gorm.DB, topicID int64, userIDs []int64) error {
	if err := tx.Where("topic_id = ?", topicID).Delete(&models.TopicAdminModel{}).Error; err != nil {
		return err
	}
	seen := make(map[int64]bool, len(userIDs))
	rows := make([]models.TopicAdminModel, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.TopicAdminModel{TopicID: topicID, UserID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// load converts rows and attaches grants, admins and subtopics in three
// batched queries
func (r *GormTopicRepository) load(ctx context.Context, rows []models.TopicModel) ([]*tracker.Topic, error) {
	topics := make([]*tracker.Topic, 0, len(rows))
	if len(rows) == 0 {
		return topics, nil
	}
	db := r.db.WithContext(ctx)

	ids := make([]int64, 0, len(rows))
	grantIDs := make([]int64, 0, len(rows))
	byID := make(map[int64]*tracker.Topic, len(rows))
	for i := range rows {
		t := rows[i].ToDomain()
		topics = append(topics, t)
		ids = append(ids, t.ID)
		grantIDs = append(grantIDs, t.GrantID)
		byID[t.ID] = t
	}

	var grants []models.GrantModel
	if err := db.Where("id IN ?", grantIDs).Find(&grants).Error; err != nil {
		return nil, err
	}
	grantByID := make(map[int64]*tracker.Grant, len(grants))
	for i := range grants {
		grantByID[grants[i].ID] = grants[i].ToDomain()
	}

	var admins []models.TopicAdminModel
	if err := db.Where("topic_id IN ?", ids).Order("user_id").Find(&admins).Error; err != nil {
		return nil, err
	}
	for _, a := range admins {
		byID[a.TopicID].AdminIDs = append(byID[a.TopicID].AdminIDs, a.UserID)
	}

	var subtopics []models.SubtopicModel
	if err := db.Where("topic_id IN ?", ids).Order("name").Find(&subtopics).Error; err != nil {
		return nil, err
	}
	for i := range subtopics {
		t := byID[subtopics[i].TopicID]
		t.Subtopics = append(t.Subtopics, subtopics[i].ToDomain())
	}

	for _, t := range topics {
		t.Grant = grantByID[t.GrantID]
	}
	return topics, nil
}

// GormSubtopicRepository implements SubtopicRepository using GORM
type GormSubtopicRepository struct {
	db *gorm.DB
}

// NewGormSubtopicRepository creates a new GormSubtopicRepository
func NewGormSubtopicRepository(db *gorm.DB) *GormSubtopicRepository {
	return &GormSubtopicRepository{db: db}
}

// Create creates a subtopic
func (r *GormSubtopicRepository) Create(ctx context.Context, subtopic *tracker.Subtopic) error {
	model := models.SubtopicModelFromDomain(subtopic)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	subtopic.ID = model.ID
	subtopic.Created = model.CreatedAt
	return nil
}

// Update updates a subtopic
func (r *GormSubtopicRepository) Update(ctx context.Context, subtopic *tracker.Subtopic) error {
	result := r.db.WithContext(ctx).Save(models.SubtopicModelFromDomain(subtopic))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a subtopic and detaches its tickets
func (r *GormSubtopicRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TicketModel{}).
			Where("subtopic_id = ?", id).
			Update("subtopic_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SubtopicModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a subtopic by ID
func (r *GormSubtopicRepository) FindByID(ctx context.Context, id int64) (*tracker.Subtopic, error) {
	var model models.SubtopicModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists subtopics, optionally of one topic
func (r *GormSubtopicRepository) FindAll(ctx context.Context, topicID *int64) ([]*tracker.Subtopic, error) {
	query := r.db.WithContext(ctx).Model(&models.SubtopicModel{})
	if topicID != nil {
		query = query.Where("topic_id = ?", *topicID)
	}
	var rows []models.SubtopicModel
	if err := query.Order("topic_id, name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*tracker.Subtopic, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
