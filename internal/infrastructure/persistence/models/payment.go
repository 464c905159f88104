package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/payment"
)

// TransactionModel is the persistence model for Transaction
type TransactionModel struct {
	BaseModel
	Date           time.Time       `gorm:"type:date;not null;index"`
	OtherID        *int64          `gorm:"index"`
	OtherText      string          `gorm:"type:varchar(60)"`
	Amount         decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Description    string          `gorm:"type:varchar(255);not null"`
	AccountingInfo string          `gorm:"type:varchar(255)"`
	ClusterID      *int64          `gorm:"index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
// Ticket ids, grant names and the other party are filled by the repository.
func (m *TransactionModel) ToDomain() *payment.Transaction {
	return &payment.Transaction{
		ID:              m.ID,
		Date:            m.Date,
		OtherID:         m.OtherID,
		OtherText:       m.OtherText,
		Amount:          m.Amount,
		Description:     m.Description,
		AccountingInfo:  m.AccountingInfo,
		TicketIDs:       []int64{},
		GrantShortNames: []string{},
		ClusterID:       m.ClusterID,
		Created:         m.CreatedAt,
	}
}

// TransactionModelFromDomain creates a persistence model from a Transaction
func TransactionModelFromDomain(t *payment.Transaction) *TransactionModel {
	return &TransactionModel{
		BaseModel:      base(t.ID, t.Created),
		Date:           t.Date,
		OtherID:        t.OtherID,
		OtherText:      t.OtherText,
		Amount:         t.Amount,
		Description:    t.Description,
		AccountingInfo: t.AccountingInfo,
		ClusterID:      t.ClusterID,
	}
}

// TransactionTicketModel links a transaction to a related ticket
type TransactionTicketModel struct {
	TransactionID int64 `gorm:"primaryKey"`
	TicketID      int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (TransactionTicketModel) TableName() string {
	return "transaction_tickets"
}

// ClusterModel is the persistence model for Cluster. The id is not
// generated: it is the id of the cluster's lowest ticket.
type ClusterModel struct {
	ID                int64            `gorm:"primaryKey;autoIncrement:false"`
	MoreTickets       bool             `gorm:"not null;default:false"`
	TotalTickets      *decimal.Decimal `gorm:"type:decimal(8,2)"`
	TotalTransactions *decimal.Decimal `gorm:"type:decimal(10,2)"`
}

// TableName returns the table name for GORM
func (ClusterModel) TableName() string {
	return "clusters"
}

// ToDomain converts the persistence model to a domain Cluster
func (m *ClusterModel) ToDomain() *payment.Cluster {
	return &payment.Cluster{
		ID:                m.ID,
		MoreTickets:       m.MoreTickets,
		TotalTickets:      m.TotalTickets,
		TotalTransactions: m.TotalTransactions,
		TicketIDs:         []int64{},
		Transactions:      []*payment.Transaction{},
	}
}
