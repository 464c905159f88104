package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/payment"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create stores a transaction with its ticket links
func (r *GormTransactionRepository) Create(ctx context.Context, t *payment.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.TransactionModelFromDomain(t)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		t.ID = model.ID
		t.Created = model.CreatedAt
		if len(t.TicketIDs) == 0 {
			return nil
		}
		links := make([]models.TransactionTicketModel, 0, len(t.TicketIDs))
		seen := map[int64]bool{}
		for _, id := range t.TicketIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			links = append(links, models.TransactionTicketModel{TransactionID: t.ID, TicketID: id})
		}
		return tx.Create(&links).Error
	})
}

// FindAll lists every transaction, newest first
func (r *GormTransactionRepository) FindAll(ctx context.Context) ([]*payment.Transaction, error) {
	return r.find(r.db.WithContext(ctx))
}

// FindByCluster lists the transactions of a cluster
func (r *GormTransactionRepository) FindByCluster(ctx context.Context, clusterID int64) ([]*payment.Transaction, error) {
	return r.find(r.db.WithContext(ctx).Where("cluster_id = ?", clusterID))
}

// FindByOther lists the transactions with a user as counterparty
func (r *GormTransactionRepository) FindByOther(ctx context.Context, userID int64) ([]*payment.Transaction, error) {
	return r.find(r.db.WithContext(ctx).Where("other_id = ?", userID))
}

func (r *GormTransactionRepository) find(query *gorm.DB) ([]*payment.Transaction, error) {
	var rows []models.TransactionModel
	if err := query.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*payment.Transaction, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]int64, len(rows))
	byID := make(map[int64]*payment.Transaction, len(rows))
	others := map[int64]bool{}
	for i := range rows {
		out[i] = rows[i].ToDomain()
		ids[i] = rows[i].ID
		byID[rows[i].ID] = out[i]
		if rows[i].OtherID != nil {
			others[*rows[i].OtherID] = true
		}
	}
	db := query.Session(&gorm.Session{NewDB: true})

	var links []struct {
		TransactionID int64
		TicketID      int64
		ShortName     string
	}
	if err := db.Table("transaction_tickets AS tt").
		Select("tt.transaction_id, tt.ticket_id, grants.short_name").
		Joins("JOIN tickets ON tickets.id = tt.ticket_id").
		Joins("JOIN topics ON topics.id = tickets.topic_id").
		Joins("JOIN grants ON grants.id = topics.grant_id").
		Where("tt.transaction_id IN ?", ids).
		Order("tt.ticket_id").
		Scan(&links).Error; err != nil {
		return nil, err
	}
	grants := map[int64]map[string]bool{}
	for _, l := range links {
		t := byID[l.TransactionID]
		t.TicketIDs = append(t.TicketIDs, l.TicketID)
		if grants[l.TransactionID] == nil {
			grants[l.TransactionID] = map[string]bool{}
		}
		grants[l.TransactionID][l.ShortName] = true
	}
	for id, names := range grants {
		t := byID[id]
		for name := range names {
			t.GrantShortNames = append(t.GrantShortNames, name)
		}
		sort.Strings(t.GrantShortNames)
	}

	if len(others) > 0 {
		var users []models.UserModel
		if err := db.Model(&models.UserModel{}).Select("id", "username").Where("id IN ?", keys(others)).Find(&users).Error; err != nil {
			return nil, err
		}
		names := make(map[int64]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Username
		}
		for _, t := range out {
			if t.OtherID != nil {
				t.Other = names[*t.OtherID]
			}
		}
	}
	return out, nil
}

// GormClusterRepository implements ClusterRepository using GORM. Clusters
// are maintained outside the tracker and only read here.
type GormClusterRepository struct {
	db           *gorm.DB
	transactions *GormTransactionRepository
}

// NewGormClusterRepository creates a new GormClusterRepository
func NewGormClusterRepository(db *gorm.DB) *GormClusterRepository {
	return &GormClusterRepository{db: db, transactions: NewGormTransactionRepository(db)}
}

// FindByID loads a cluster with its ticket ids and transactions
func (r *GormClusterRepository) FindByID(ctx context.Context, id int64) (*payment.Cluster, error) {
	var model models.ClusterModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	cluster := model.ToDomain()

	var ticketIDs []int64
	if err := r.db.WithContext(ctx).Model(&models.TicketModel{}).
		Where("cluster_id = ?", id).
		Order("id").
		Pluck("id", &ticketIDs).Error; err != nil {
		return nil, err
	}
	if ticketIDs != nil {
		cluster.TicketIDs = ticketIDs
	}

	txs, err := r.transactions.FindByCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	cluster.Transactions = txs
	return cluster, nil
}

// FindClusterIDOfTicket returns the cluster id of a ticket, or nil
func (r *GormClusterRepository) FindClusterIDOfTicket(ctx context.Context, ticketID int64) (*int64, error) {
	var model models.TicketModel
	if err := r.db.WithContext(ctx).Select("id", "cluster_id").First(&model, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ClusterID, nil
}
