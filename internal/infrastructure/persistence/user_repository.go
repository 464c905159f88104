package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user together with an empty profile and default
// preferences
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists.WithMessage("Username is already taken")
			}
			return err
		}
		user.ID = model.ID
		user.CreatedAt = model.CreatedAt

		if err := tx.Create(models.TrackerProfileModelFromDomain(identity.NewTrackerProfile(user.ID))).Error; err != nil {
			return err
		}
		if err := tx.Create(models.TrackerPreferencesModelFromDomain(identity.NewTrackerPreferences(user.ID))).Error; err != nil {
			return err
		}
		return replacePermissions(tx, user.ID, user.Permissions)
	})
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	users, err := r.withPermissions(ctx, []models.UserModel{model})
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

// FindByIDs finds users by ID; missing ids are skipped
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []int64) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, rows)
}

// FindByUsername finds a user by exact username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	users, err := r.withPermissions(ctx, []models.UserModel{model})
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

// FindByUsernames finds users by username; unknown names are skipped
func (r *GormUserRepository) FindByUsernames(ctx context.Context, usernames []string) ([]*identity.User, error) {
	if len(usernames) == 0 {
		return []*identity.User{}, nil
	}
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, rows)
}

// FindAll returns users with pagination
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Keyword != "" {
		like := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var rows []models.UserModel
	if err := query.Order("username ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	users, err := r.withPermissions(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// FindStaff returns active staff users
func (r *GormUserRepository) FindStaff(ctx context.Context) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("is_staff = ? AND is_active = ?", true, true).
		Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, rows)
}

// FindSuperusers returns active superusers
func (r *GormUserRepository) FindSuperusers(ctx context.Context) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("is_superuser = ? AND is_active = ?", true, true).
		Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(ctx, rows)
}

// ExistsByUsername checks if a username already exists
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetPermissions replaces the user's direct permissions
func (r *GormUserRepository) SetPermissions(ctx context.Context, userID int64, perms []identity.Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replacePermissions(tx, userID, perms)
	})
}

func replacePermissions(tx *gorm.DB, userID int64, perms []identity.Permission) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserPermissionModel{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	seen := make(map[identity.Permission]bool, len(perms))
	rows := make([]models.UserPermissionModel, 0, len(perms))
	for _, p := range perms {
		if !p.IsValid() {
			return shared.ErrInvalidInput.WithMessage("Unknown permission " + string(p))
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		rows = append(rows, models.UserPermissionModel{UserID: userID, Permission: string(p)})
	}
	return tx.Create(&rows).Error
}

// withPermissions converts rows to users and loads their permissions in one query
func (r *GormUserRepository) withPermissions(ctx context.Context, rows []models.UserModel) ([]*identity.User, error) {
	users := make([]*identity.User, 0, len(rows))
	if len(rows) == 0 {
		return users, nil
	}
	ids := make([]int64, 0, len(rows))
	byID := make(map[int64]*identity.User, len(rows))
	for i := range rows {
		u := rows[i].ToDomain()
		users = append(users, u)
		ids = append(ids, u.ID)
		byID[u.ID] = u
	}

	var perms []models.UserPermissionModel
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Order("permission").Find(&perms).Error; err != nil {
		return nil, err
	}
	for _, p := range perms {
		if u, ok := byID[p.UserID]; ok {
			u.Permissions = append(u.Permissions, identity.Permission(p.Permission))
		}
	}
	return users, nil
}

// normalizePage applies the default page size and bounds
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}
