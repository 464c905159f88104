package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
)

// GrantModel is the persistence model for the Grant domain entity.
type GrantModel struct {
	BaseModel
	FullName    string `gorm:"type:varchar(80);not null;uniqueIndex"`
	ShortName   string `gorm:"type:varchar(16);not null"`
	Slug        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (GrantModel) TableName() string {
	return "grants"
}

// ToDomain converts the persistence model to a domain Grant
func (m *GrantModel) ToDomain() *tracker.Grant {
	return &tracker.Grant{
		ID:          m.ID,
		FullName:    m.FullName,
		ShortName:   m.ShortName,
		Slug:        m.Slug,
		Description: m.Description,
		Created:     m.CreatedAt,
	}
}

// GrantModelFromDomain creates a persistence model from a domain Grant
func GrantModelFromDomain(g *tracker.Grant) *GrantModel {
	return &GrantModel{
		BaseModel:   base(g.ID, g.Created),
		FullName:    g.FullName,
		ShortName:   g.ShortName,
		Slug:        g.Slug,
		Description: g.Description,
	}
}

// TopicModel is the persistence model for the Topic domain entity.
type TopicModel struct {
	BaseModel
	Name                       string `gorm:"type:varchar(80);not null"`
	GrantID                    int64  `gorm:"not null;index"`
	OpenForTickets             bool   `gorm:"not null"`
	TicketMedia                bool   `gorm:"not null"`
	TicketExpenses             bool   `gorm:"not null"`
	TicketPreexpenses          bool   `gorm:"not null"`
	TicketStatutoryDeclaration bool   `gorm:"not null;default:false"`
	TicketCommentsPublic       bool   `gorm:"not null"`
	Description                string `gorm:"type:text"`
	FormDescription            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TopicModel) TableName() string {
	return "topics"
}

// ToDomain converts the persistence model to a domain Topic.
// Admins, grant and subtopics are loaded by the repository.
func (m *TopicModel) ToDomain() *tracker.Topic {
	return &tracker.Topic{
		ID:                         m.ID,
		Name:                       m.Name,
		GrantID:                    m.GrantID,
		OpenForTickets:             m.OpenForTickets,
		TicketMedia:                m.TicketMedia,
		TicketExpenses:             m.TicketExpenses,
		TicketPreexpenses:          m.TicketPreexpenses,
		TicketStatutoryDeclaration: m.TicketStatutoryDeclaration,
		TicketCommentsPublic:       m.TicketCommentsPublic,
		Description:                m.Description,
		FormDescription:            m.FormDescription,
		AdminIDs:                   []int64{},
		Subtopics:                  []*tracker.Subtopic{},
		Created:                    m.CreatedAt,
	}
}

// TopicModelFromDomain creates a persistence model from a domain Topic
func TopicModelFromDomain(t *tracker.Topic) *TopicModel {
	return &TopicModel{
		BaseModel:                  base(t.ID, t.Created),
		Name:                       t.Name,
		GrantID:                    t.GrantID,
		OpenForTickets:             t.OpenForTickets,
		TicketMedia:                t.TicketMedia,
		TicketExpenses:             t.TicketExpenses,
		TicketPreexpenses:          t.TicketPreexpenses,
		TicketStatutoryDeclaration: t.TicketStatutoryDeclaration,
		TicketCommentsPublic:       t.TicketCommentsPublic,
		Description:                t.Description,
		FormDescription:            t.FormDescription,
	}
}

// TopicAdminModel links a topic to one of its admins
type TopicAdminModel struct {
	TopicID int64 `gorm:"primaryKey"`
	UserID  int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (TopicAdminModel) TableName() string {
	return "topic_admins"
}

// SubtopicModel is the persistence model for the Subtopic domain entity.
type SubtopicModel struct {
	BaseModel
	Name            string `gorm:"type:varchar(80);not null"`
	Description     string `gorm:"type:text"`
	FormDescription string `gorm:"type:text"`
	TopicID         int64  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SubtopicModel) TableName() string {
	return "subtopics"
}

// ToDomain converts the persistence model to a domain Subtopic
func (m *SubtopicModel) ToDomain() *tracker.Subtopic {
	return &tracker.Subtopic{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		FormDescription: m.FormDescription,
		TopicID:         m.TopicID,
		Created:         m.CreatedAt,
	}
}

// SubtopicModelFromDomain creates a persistence model from a domain Subtopic
func SubtopicModelFromDomain(s *tracker.Subtopic) *SubtopicModel {
	return &SubtopicModel{
		BaseModel:       base(s.ID, s.Created),
		Name:            s.Name,
		Description:     s.Description,
		FormDescription: s.FormDescription,
		TopicID:         s.TopicID,
	}
}

// TicketModel is the persistence model for the Ticket aggregate root.
// payment_status and is_completed are derived columns kept in sync by
// every write path.
type TicketModel struct {
	BaseModel
	UpdatedAt                time.Time `gorm:"not null;index"`
	MediaUpdated             *time.Time
	EventDate                *time.Time `gorm:"type:date;index"`
	RequestedUserID          *int64     `gorm:"index"`
	RequestedText            string     `gorm:"type:varchar(30)"`
	Name                     string     `gorm:"type:varchar(100);not null"`
	TopicID                  int64      `gorm:"not null;index"`
	SubtopicID               *int64     `gorm:"index"`
	RatingPercentage         *int
	MandatoryReport          bool            `gorm:"not null;default:false"`
	ReportURL                string          `gorm:"type:varchar(255)"`
	EventURL                 string          `gorm:"type:varchar(255)"`
	Description              string          `gorm:"type:text"`
	SupervisorNotes          string          `gorm:"type:text"`
	Deposit                  decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0"`
	ClusterID                *int64          `gorm:"index"`
	PaymentStatus            string          `gorm:"type:varchar(20);not null;default:'n_a';index"`
	Imported                 bool            `gorm:"not null;default:false"`
	EnableComments           bool            `gorm:"not null"`
	CarTravel                bool            `gorm:"not null;default:false"`
	StatutoryDeclaration     bool            `gorm:"not null;default:false"`
	StatutoryDeclarationDate *time.Time
	IsCompleted              bool `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "tickets"
}

// ToDomain converts the persistence model to a domain Ticket without its
// children.
func (m *TicketModel) ToDomain() *tracker.Ticket {
	return &tracker.Ticket{
		ID:                       m.ID,
		Created:                  m.CreatedAt,
		Updated:                  m.UpdatedAt,
		MediaUpdated:             m.MediaUpdated,
		EventDate:                m.EventDate,
		RequestedUserID:          m.RequestedUserID,
		RequestedText:            m.RequestedText,
		Name:                     m.Name,
		TopicID:                  m.TopicID,
		SubtopicID:               m.SubtopicID,
		RatingPercentage:         m.RatingPercentage,
		MandatoryReport:          m.MandatoryReport,
		ReportURL:                m.ReportURL,
		EventURL:                 m.EventURL,
		Description:              m.Description,
		SupervisorNotes:          m.SupervisorNotes,
		Deposit:                  m.Deposit,
		ClusterID:                m.ClusterID,
		PaymentStatus:            tracker.PaymentStatus(m.PaymentStatus),
		Imported:                 m.Imported,
		EnableComments:           m.EnableComments,
		CarTravel:                m.CarTravel,
		StatutoryDeclaration:     m.StatutoryDeclaration,
		StatutoryDeclarationDate: m.StatutoryDeclarationDate,
		IsCompleted:              m.IsCompleted,
		Acks:                     []tracker.TicketAck{},
		Expeditures:              []tracker.Expediture{},
		Preexpeditures:           []tracker.Preexpediture{},
	}
}

// TicketModelFromDomain creates a persistence model from a domain Ticket
func TicketModelFromDomain(t *tracker.Ticket) *TicketModel {
	updated := t.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	return &TicketModel{
		BaseModel:                base(t.ID, t.Created),
		UpdatedAt:                updated,
		MediaUpdated:             t.MediaUpdated,
		EventDate:                t.EventDate,
		RequestedUserID:          t.RequestedUserID,
		RequestedText:            t.RequestedText,
		Name:                     t.Name,
		TopicID:                  t.TopicID,
		SubtopicID:               t.SubtopicID,
		RatingPercentage:         t.RatingPercentage,
		MandatoryReport:          t.MandatoryReport,
		ReportURL:                t.ReportURL,
		EventURL:                 t.EventURL,
		Description:              t.Description,
		SupervisorNotes:          t.SupervisorNotes,
		Deposit:                  t.Deposit,
		ClusterID:                t.ClusterID,
		PaymentStatus:            string(t.PaymentStatus),
		Imported:                 t.Imported,
		EnableComments:           t.EnableComments,
		CarTravel:                t.CarTravel,
		StatutoryDeclaration:     t.StatutoryDeclaration,
		StatutoryDeclarationDate: t.StatutoryDeclarationDate,
		IsCompleted:              t.IsCompleted,
	}
}

// ExpeditureModel is the persistence model for Expediture
type ExpeditureModel struct {
	BaseModel
	TicketID       int64           `gorm:"not null;index"`
	Description    string          `gorm:"type:varchar(255);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	AccountingInfo string          `gorm:"type:varchar(255)"`
	Paid           bool            `gorm:"not null;default:false"`
	Wage           bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ExpeditureModel) TableName() string {
	return "expeditures"
}

// ToDomain converts the persistence model to a domain Expediture
func (m *ExpeditureModel) ToDomain() *tracker.Expediture {
	return &tracker.Expediture{
		ID:             m.ID,
		TicketID:       m.TicketID,
		Description:    m.Description,
		Amount:         m.Amount,
		AccountingInfo: m.AccountingInfo,
		Paid:           m.Paid,
		Wage:           m.Wage,
		Created:        m.CreatedAt,
	}
}

// ExpeditureModelFromDomain creates a persistence model from an Expediture
func ExpeditureModelFromDomain(e *tracker.Expediture) *ExpeditureModel {
	return &ExpeditureModel{
		BaseModel:      base(e.ID, e.Created),
		TicketID:       e.TicketID,
		Description:    e.Description,
		Amount:         e.Amount,
		AccountingInfo: e.AccountingInfo,
		Paid:           e.Paid,
		Wage:           e.Wage,
	}
}

// PreexpeditureModel is the persistence model for Preexpediture
type PreexpeditureModel struct {
	BaseModel
	TicketID    int64           `gorm:"not null;index"`
	Description string          `gorm:"type:varchar(255);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Wage        bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PreexpeditureModel) TableName() string {
	return "preexpeditures"
}

// ToDomain converts the persistence model to a domain Preexpediture
func (m *PreexpeditureModel) ToDomain() *tracker.Preexpediture {
	return &tracker.Preexpediture{
		ID:          m.ID,
		TicketID:    m.TicketID,
		Description: m.Description,
		Amount:      m.Amount,
		Wage:        m.Wage,
		Created:     m.CreatedAt,
	}
}

// PreexpeditureModelFromDomain creates a persistence model from a Preexpediture
func PreexpeditureModelFromDomain(p *tracker.Preexpediture) *PreexpeditureModel {
	return &PreexpeditureModel{
		BaseModel:   base(p.ID, p.Created),
		TicketID:    p.TicketID,
		Description: p.Description,
		Amount:      p.Amount,
		Wage:        p.Wage,
	}
}

// TicketAckModel is the persistence model for TicketAck
type TicketAckModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	TicketID  int64     `gorm:"not null;index"`
	AckType   string    `gorm:"type:varchar(32);not null"`
	Added     time.Time `gorm:"not null"`
	AddedByID *int64
	Comment   string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (TicketAckModel) TableName() string {
	return "ticket_acks"
}

// ToDomain converts the persistence model to a domain TicketAck.
// AddedBy is filled by the repository.
func (m *TicketAckModel) ToDomain() tracker.TicketAck {
	return tracker.TicketAck{
		ID:        m.ID,
		TicketID:  m.TicketID,
		AckType:   tracker.AckType(m.AckType),
		Added:     m.Added,
		AddedByID: m.AddedByID,
		Comment:   m.Comment,
	}
}

// TicketAckModelFromDomain creates a persistence model from a TicketAck
func TicketAckModelFromDomain(a *tracker.TicketAck) *TicketAckModel {
	return &TicketAckModel{
		ID:        a.ID,
		TicketID:  a.TicketID,
		AckType:   string(a.AckType),
		Added:     a.Added,
		AddedByID: a.AddedByID,
		Comment:   a.Comment,
	}
}

// MediaInfoModel is the persistence model for MediaInfo
type MediaInfoModel struct {
	BaseModel
	TicketID   int64                    `gorm:"not null;index"`
	PageTitle  string                   `gorm:"type:varchar(255)"`
	PageID     int64                    `gorm:"not null;default:0"`
	Width      int                      `gorm:"not null;default:0"`
	Height     int                      `gorm:"not null;default:0"`
	ThumbURL   string                   `gorm:"type:varchar(512)"`
	Categories []MediaInfoCategoryModel `gorm:"foreignKey:MediaInfoID"`
	Usages     []MediaInfoUsageModel    `gorm:"foreignKey:MediaInfoID"`
}

// TableName returns the table name for GORM
func (MediaInfoModel) TableName() string {
	return "media_infos"
}

// ToDomain converts the persistence model to a domain MediaInfo
func (m *MediaInfoModel) ToDomain() *tracker.MediaInfo {
	media := &tracker.MediaInfo{
		ID:         m.ID,
		TicketID:   m.TicketID,
		PageTitle:  m.PageTitle,
		PageID:     m.PageID,
		Width:      m.Width,
		Height:     m.Height,
		ThumbURL:   m.ThumbURL,
		Created:    m.CreatedAt,
		Categories: make([]tracker.MediaInfoCategory, 0, len(m.Categories)),
		Usages:     make([]tracker.MediaInfoUsage, 0, len(m.Usages)),
	}
	for _, c := range m.Categories {
		media.Categories = append(media.Categories, tracker.MediaInfoCategory{
			ID:          c.ID,
			MediaInfoID: c.MediaInfoID,
			Title:       c.Title,
		})
	}
	for _, u := range m.Usages {
		media.Usages = append(media.Usages, tracker.MediaInfoUsage{
			ID:          u.ID,
			MediaInfoID: u.MediaInfoID,
			URL:         u.URL,
			Title:       u.Title,
			Project:     u.Project,
		})
	}
	return media
}

// MediaInfoModelFromDomain creates a persistence model from a MediaInfo.
// Categories and usages are written separately.
func MediaInfoModelFromDomain(m *tracker.MediaInfo) *MediaInfoModel {
	return &MediaInfoModel{
		BaseModel: base(m.ID, m.Created),
		TicketID:  m.TicketID,
		PageTitle: m.PageTitle,
		PageID:    m.PageID,
		Width:     m.Width,
		Height:    m.Height,
		ThumbURL:  m.ThumbURL,
	}
}

// MediaInfoCategoryModel is a category of a media file
type MediaInfoCategoryModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MediaInfoID int64  `gorm:"not null;index"`
	Title       string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (MediaInfoCategoryModel) TableName() string {
	return "media_info_categories"
}

// MediaInfoUsageModel is a page using a media file
type MediaInfoUsageModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MediaInfoID int64  `gorm:"not null;index"`
	URL         string `gorm:"type:varchar(512);not null"`
	Title       string `gorm:"type:varchar(255)"`
	Project     string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (MediaInfoUsageModel) TableName() string {
	return "media_info_usages"
}

// DocumentModel is the persistence model for Document metadata
type DocumentModel struct {
	BaseModel
	TicketID    int64  `gorm:"not null;uniqueIndex:idx_documents_ticket_filename"`
	Filename    string `gorm:"type:varchar(120);not null;uniqueIndex:idx_documents_ticket_filename"`
	Size        int64  `gorm:"not null;default:0"`
	ContentType string `gorm:"type:varchar(64);not null"`
	Description string `gorm:"type:varchar(255)"`
	StorageKey  string `gorm:"type:varchar(255);not null"`
	UploaderID  *int64
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *tracker.Document {
	return &tracker.Document{
		ID:          m.ID,
		TicketID:    m.TicketID,
		Filename:    m.Filename,
		Size:        m.Size,
		ContentType: m.ContentType,
		Description: m.Description,
		StorageKey:  m.StorageKey,
		UploaderID:  m.UploaderID,
		Created:     m.CreatedAt,
	}
}

// DocumentModelFromDomain creates a persistence model from a Document
func DocumentModelFromDomain(d *tracker.Document) *DocumentModel {
	return &DocumentModel{
		BaseModel:   base(d.ID, d.Created),
		TicketID:    d.TicketID,
		Filename:    d.Filename,
		Size:        d.Size,
		ContentType: d.ContentType,
		Description: d.Description,
		StorageKey:  d.StorageKey,
		UploaderID:  d.UploaderID,
	}
}

// SignatureModel is the persistence model for Signature
type SignatureModel struct {
	BaseModel
	UserID     int64  `gorm:"not null;index"`
	TicketID   int64  `gorm:"not null;index"`
	SignedText string `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (SignatureModel) TableName() string {
	return "signatures"
}

// ToDomain converts the persistence model to a domain Signature
func (m *SignatureModel) ToDomain() *tracker.Signature {
	return &tracker.Signature{
		ID:         m.ID,
		UserID:     m.UserID,
		TicketID:   m.TicketID,
		SignedText: m.SignedText,
		Created:    m.CreatedAt,
	}
}

// SignatureModelFromDomain creates a persistence model from a Signature
func SignatureModelFromDomain(s *tracker.Signature) *SignatureModel {
	return &SignatureModel{
		BaseModel:  base(s.ID, s.Created),
		UserID:     s.UserID,
		TicketID:   s.TicketID,
		SignedText: s.SignedText,
	}
}

// CommentModel is the persistence model for ticket comments
type CommentModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	TicketID  int64     `gorm:"not null;index"`
	UserID    *int64    `gorm:"index"`
	UserName  string    `gorm:"type:varchar(50)"`
	Comment   string    `gorm:"type:text;not null"`
	Submitted time.Time `gorm:"not null;index"`
	IsPublic  bool      `gorm:"not null"`
	IsRemoved bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CommentModel) TableName() string {
	return "comments"
}

// ToDomain converts the persistence model to a domain Comment
func (m *CommentModel) ToDomain() *tracker.Comment {
	return &tracker.Comment{
		ID:        m.ID,
		TicketID:  m.TicketID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Comment:   m.Comment,
		Submitted: m.Submitted,
		IsPublic:  m.IsPublic,
		IsRemoved: m.IsRemoved,
	}
}

// CommentModelFromDomain creates a persistence model from a Comment
func CommentModelFromDomain(c *tracker.Comment) *CommentModel {
	return &CommentModel{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Comment:   c.Comment,
		Submitted: c.Submitted,
		IsPublic:  c.IsPublic,
		IsRemoved: c.IsRemoved,
	}
}
