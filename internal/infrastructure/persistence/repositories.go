package persistence

import "gorm.io/gorm"

// Repositories bundles the gorm repositories over one database
type Repositories struct {
	Users         *GormUserRepository
	Profiles      *GormProfileRepository
	Grants        *GormGrantRepository
	Topics        *GormTopicRepository
	Subtopics     *GormSubtopicRepository
	Tickets       *GormTicketRepository
	Media         *GormMediaRepository
	Documents     *GormDocumentRepository
	Signatures    *GormSignatureRepository
	Comments      *GormCommentRepository
	Notifications *GormNotificationRepository
	Watchers      *GormWatcherRepository
	Transactions  *GormTransactionRepository
	Clusters      *GormClusterRepository
	Reports       *GormReportRepository
	Tasks         *GormTaskStore
}

// NewRepositories creates every repository over db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewGormUserRepository(db),
		Profiles:      NewGormProfileRepository(db),
		Grants:        NewGormGrantRepository(db),
		Topics:        NewGormTopicRepository(db),
		Subtopics:     NewGormSubtopicRepository(db),
		Tickets:       NewGormTicketRepository(db),
		Media:         NewGormMediaRepository(db),
		Documents:     NewGormDocumentRepository(db),
		Signatures:    NewGormSignatureRepository(db),
		Comments:      NewGormCommentRepository(db),
		Notifications: NewGormNotificationRepository(db),
		Watchers:      NewGormWatcherRepository(db),
		Transactions:  NewGormTransactionRepository(db),
		Clusters:      NewGormClusterRepository(db),
		Reports:       NewGormReportRepository(db),
		Tasks:         NewGormTaskStore(db),
	}
}
