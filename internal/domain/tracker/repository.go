package tracker

import (
	"context"
)

// GrantRepository persists grants
type GrantRepository interface {
	Create(ctx context.Context, grant *Grant) error
	Update(ctx context.Context, grant *Grant) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Grant, error)
	FindBySlug(ctx context.Context, slug string) (*Grant, error)
	FindAll(ctx context.Context) ([]*Grant, error)
}

// TopicFilter narrows topic listings
type TopicFilter struct {
	GrantID  *int64
	OpenOnly bool
	AdminID  *int64
}

// TopicRepository persists topics with their admins and subtopics
type TopicRepository interface {
	Create(ctx context.Context, topic *Topic) error
	Update(ctx context.Context, topic *Topic) error
	Delete(ctx context.Context, id int64) error
	// FindByID loads the topic with its grant, admins and subtopics
	FindByID(ctx context.Context, id int64) (*Topic, error)
	FindByName(ctx context.Context, grantID int64, name string) (*Topic, error)
	FindAll(ctx context.Context, filter TopicFilter) ([]*Topic, error)
	SetAdmins(ctx context.Context, topicID int64, userIDs []int64) error
}

// SubtopicRepository persists subtopics
type SubtopicRepository interface {
	Create(ctx context.Context, subtopic *Subtopic) error
	Update(ctx context.Context, subtopic *Subtopic) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Subtopic, error)
	FindAll(ctx context.Context, topicID *int64) ([]*Subtopic, error)
}

// TicketFilter narrows ticket listings
type TicketFilter struct {
	Search          string
	TopicIDs        []int64
	GrantID         *int64
	SubtopicID      *int64
	RequestedUserID []int64
	PaymentStatus   PaymentStatus
	IsCompleted     *bool
	Page            int
	PageSize        int
	// OrderBy is one of id, updated, event_date, name; prefix "-" for desc
	OrderBy string
}

// TicketRepository persists the ticket aggregate. Every child mutation
// writes the child and the ticket's derived columns in one transaction;
// callers recompute the derived fields on the in-memory ticket first.
type TicketRepository interface {
	// Create inserts the ticket with its initial expeditures and
	// preexpeditures
	Create(ctx context.Context, ticket *Ticket) error
	Update(ctx context.Context, ticket *Ticket) error
	Delete(ctx context.Context, id int64) error

	// FindByID loads the full aggregate: topic, subtopic, requester,
	// acks, expeditures, preexpeditures and media count
	FindByID(ctx context.Context, id int64) (*Ticket, error)
	FindAll(ctx context.Context, filter TicketFilter) ([]*Ticket, int64, error)
	// FindAllLoaded returns every matching ticket as a full aggregate
	FindAllLoaded(ctx context.Context, filter TicketFilter) ([]*Ticket, error)

	SaveExpediture(ctx context.Context, ticket *Ticket, e *Expediture) error
	DeleteExpediture(ctx context.Context, ticket *Ticket, expeditureID int64) error
	// ReplaceExpeditures swaps every expediture of the ticket for items in
	// one transaction
	ReplaceExpeditures(ctx context.Context, ticket *Ticket, items []*Expediture) error
	SavePreexpediture(ctx context.Context, ticket *Ticket, p *Preexpediture) error
	DeletePreexpediture(ctx context.Context, ticket *Ticket, preexpeditureID int64) error

	AddAck(ctx context.Context, ticket *Ticket, ack *TicketAck) error
	RemoveAck(ctx context.Context, ticket *Ticket, ackID int64) error

	FindExpediture(ctx context.Context, id int64) (*Expediture, error)
	FindPreexpediture(ctx context.Context, id int64) (*Preexpediture, error)
	ListExpeditures(ctx context.Context, ticketIDs []int64) ([]*Expediture, error)
	ListPreexpeditures(ctx context.Context, ticketIDs []int64) ([]*Preexpediture, error)

	SetMediaUpdated(ctx context.Context, ticketID int64) error
	Touch(ctx context.Context, ticketID int64) error
}

// MediaRepository persists ticket media with categories and usages
type MediaRepository interface {
	// Create returns ErrDuplicateMedia when the page is already attached
	Create(ctx context.Context, media *MediaInfo) error
	// Update replaces the wiki data, categories and usages
	Update(ctx context.Context, media *MediaInfo) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*MediaInfo, error)
	FindByTicket(ctx context.Context, ticketID int64) ([]*MediaInfo, error)
}

// DocumentRepository persists document metadata
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Document, error)
	FindByTicket(ctx context.Context, ticketID int64) ([]*Document, error)
	FindByFilename(ctx context.Context, ticketID int64, filename string) (*Document, error)
}

// SignatureRepository persists statutory declaration signatures
type SignatureRepository interface {
	Create(ctx context.Context, sig *Signature) error
	DeleteFor(ctx context.Context, ticketID, userID int64) error
	Exists(ctx context.Context, ticketID, userID int64) (bool, error)
	FindByTicket(ctx context.Context, ticketID int64) ([]*Signature, error)
}

// CommentRepository persists ticket comments
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByTicket(ctx context.Context, ticketID int64) ([]*Comment, error)
}

// AckCount is the number of content acks a user gave in one topic
type AckCount struct {
	UserID   int64
	GrantID  int64
	TopicID  int64
	AckCount int64
}

// ReportRepository runs the cross-table summaries
type ReportRepository interface {
	ContentAcksPerUser(ctx context.Context) ([]AckCount, error)
	CountTickets(ctx context.Context, requestedUserID *int64) (int64, error)
	CountMedia(ctx context.Context, requestedUserID *int64) (int64, error)
}
