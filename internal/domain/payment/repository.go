package payment

import "context"

// TransactionRepository persists transactions
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindAll(ctx context.Context) ([]*Transaction, error)
	FindByCluster(ctx context.Context, clusterID int64) ([]*Transaction, error)
	FindByOther(ctx context.Context, userID int64) ([]*Transaction, error)
}

// ClusterRepository persists clusters
type ClusterRepository interface {
	FindByID(ctx context.Context, id int64) (*Cluster, error)
	// FindClusterIDOfTicket returns the cluster id of a ticket, or nil
	FindClusterIDOfTicket(ctx context.Context, ticketID int64) (*int64, error)
}
