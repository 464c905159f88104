package tracker

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
)

const dateLayout = "2006-01-02"

// =============================================================================
// Ticket DTOs
// =============================================================================

// ExpenseInput is one expediture or preexpediture submitted with a ticket
type ExpenseInput struct {
	Description string          `json:"description" binding:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	Wage        bool            `json:"wage"`
}

// TicketAdminFields can only be written by staff. Other users sending
// them have them ignored.
type TicketAdminFields struct {
	RatingPercentage *int    `json:"rating_percentage" binding:"omitempty,min=0,max=100"`
	SupervisorNotes  *string `json:"supervisor_notes"`
	MandatoryReport  *bool   `json:"mandatory_report"`
	Imported         *bool   `json:"imported"`
	EnableComments   *bool   `json:"enable_comments"`
	RequestedUserID  *int64  `json:"requested_user"`
	RequestedText    *string `json:"requested_text" binding:"omitempty,max=30"`
}

// CreateTicketRequest represents a request to create a ticket
type CreateTicketRequest struct {
	Name                 string          `json:"name" binding:"required,max=100"`
	TopicID              int64           `json:"topic" binding:"required"`
	SubtopicID           *int64          `json:"subtopic"`
	EventDate            string          `json:"event_date" binding:"omitempty,datetime=2006-01-02"`
	EventURL             string          `json:"event_url" binding:"omitempty,url,max=255"`
	ReportURL            string          `json:"report_url" binding:"omitempty,url,max=255"`
	Description          string          `json:"description"`
	Deposit              decimal.Decimal `json:"deposit"`
	CarTravel            bool            `json:"car_travel"`
	StatutoryDeclaration bool            `json:"statutory_declaration"`
	Expeditures          []ExpenseInput  `json:"expeditures" binding:"omitempty,dive"`
	Preexpeditures       []ExpenseInput  `json:"preexpeditures" binding:"omitempty,dive"`
	TicketAdminFields
}

// UpdateTicketRequest represents a partial ticket update
type UpdateTicketRequest struct {
	Name                 *string          `json:"name" binding:"omitempty,max=100"`
	TopicID              *int64           `json:"topic"`
	SubtopicID           *int64           `json:"subtopic"`
	ClearSubtopic        bool             `json:"clear_subtopic"`
	EventDate            *string          `json:"event_date" binding:"omitempty,datetime=2006-01-02"`
	EventURL             *string          `json:"event_url" binding:"omitempty,max=255"`
	ReportURL            *string          `json:"report_url" binding:"omitempty,max=255"`
	Description          *string          `json:"description"`
	Deposit              *decimal.Decimal `json:"deposit"`
	CarTravel            *bool            `json:"car_travel"`
	StatutoryDeclaration *bool            `json:"statutory_declaration"`
	TicketAdminFields
}

// TicketListFilter represents ticket listing query parameters
type TicketListFilter struct {
	Search          string `form:"search"`
	TopicID         *int64 `form:"topic"`
	GrantID         *int64 `form:"grant"`
	SubtopicID      *int64 `form:"subtopic"`
	RequestedUserID *int64 `form:"requested_user"`
	PaymentStatus   string `form:"payment_status" binding:"omitempty,oneof=n_a unpaid partially_paid paid overpaid"`
	IsCompleted     *bool  `form:"is_completed"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy         string `form:"ordering" binding:"omitempty,oneof=id -id updated -updated event_date -event_date name -name"`
}

func (f TicketListFilter) toDomain() tracker.TicketFilter {
	out := tracker.TicketFilter{
		Search:        f.Search,
		GrantID:       f.GrantID,
		SubtopicID:    f.SubtopicID,
		PaymentStatus: tracker.PaymentStatus(f.PaymentStatus),
		IsCompleted:   f.IsCompleted,
		Page:          f.Page,
		PageSize:      f.PageSize,
		OrderBy:       f.OrderBy,
	}
	if f.TopicID != nil {
		out.TopicIDs = []int64{*f.TopicID}
	}
	if f.RequestedUserID != nil {
		out.RequestedUserID = []int64{*f.RequestedUserID}
	}
	if out.Page == 0 {
		out.Page = 1
	}
	if out.PageSize == 0 {
		out.PageSize = 25
	}
	return out
}

// AckResponse represents a ticket ack
type AckResponse struct {
	ID            int64     `json:"id"`
	AckType       string    `json:"ack_type"`
	Display       string    `json:"display"`
	Added         time.Time `json:"added"`
	AddedBy       string    `json:"added_by"`
	Comment       string    `json:"comment"`
	UserRemovable bool      `json:"user_removable"`
}

// TicketResponse represents a ticket in API responses
type TicketResponse struct {
	ID                       int64                 `json:"id"`
	Created                  time.Time             `json:"created"`
	Updated                  time.Time             `json:"updated"`
	MediaUpdated             *time.Time            `json:"media_updated"`
	EventDate                string                `json:"event_date"`
	RequestedUser            *int64                `json:"requested_user"`
	RequestedText            string                `json:"requested_text"`
	RequestedBy              string                `json:"requested_by"`
	Name                     string                `json:"name"`
	Topic                    int64                 `json:"topic"`
	TopicName                string                `json:"topic_name"`
	Subtopic                 *int64                `json:"subtopic"`
	RatingPercentage         *int                  `json:"rating_percentage"`
	MandatoryReport          bool                  `json:"mandatory_report"`
	ReportURL                string                `json:"report_url"`
	EventURL                 string                `json:"event_url"`
	Description              string                `json:"description"`
	SupervisorNotes          string                `json:"supervisor_notes"`
	Deposit                  decimal.Decimal       `json:"deposit"`
	PaymentStatus            string                `json:"payment_status"`
	Imported                 bool                  `json:"imported"`
	EnableComments           bool                  `json:"enable_comments"`
	CarTravel                bool                  `json:"car_travel"`
	StatutoryDeclaration     bool                  `json:"statutory_declaration"`
	StatutoryDeclarationDate *time.Time            `json:"statutory_declaration_date"`
	IsCompleted              bool                  `json:"is_completed"`
	State                    string                `json:"state_str"`
	StateCode                string                `json:"state_code"`
	Acks                     []AckResponse         `json:"acks"`
	PossibleUserAcks         []tracker.PossibleAck `json:"possible_user_acks"`
	ExpeditureCount          int                   `json:"expeditures_count"`
	ExpeditureAmount         decimal.Decimal       `json:"expeditures_amount"`
	PreexpeditureCount       int                   `json:"preexpeditures_count"`
	PreexpeditureAmount      decimal.Decimal       `json:"preexpeditures_amount"`
	AcceptedExpeditures      decimal.Decimal       `json:"accepted_expeditures"`
	PaidExpeditures          decimal.Decimal       `json:"paid_expeditures"`
	MediaCount               int64                 `json:"media_count"`
}

// ToAckResponse converts a domain ack
func ToAckResponse(a *tracker.TicketAck) AckResponse {
	return AckResponse{
		ID:            a.ID,
		AckType:       string(a.AckType),
		Display:       a.AckType.Display(),
		Added:         a.Added,
		AddedBy:       a.AddedBy,
		Comment:       a.Comment,
		UserRemovable: a.UserRemovable(),
	}
}

// ToTicketResponse converts a loaded ticket
func ToTicketResponse(t *tracker.Ticket) TicketResponse {
	ec, ea := t.ExpeditureTotals()
	pc, pa := t.PreexpeditureTotals()
	state := t.State()
	resp := TicketResponse{
		ID:                       t.ID,
		Created:                  t.Created,
		Updated:                  t.Updated,
		MediaUpdated:             t.MediaUpdated,
		RequestedUser:            t.RequestedUserID,
		RequestedText:            t.RequestedText,
		RequestedBy:              t.RequestedBy(),
		Name:                     t.Name,
		Topic:                    t.TopicID,
		Subtopic:                 t.SubtopicID,
		RatingPercentage:         t.RatingPercentage,
		MandatoryReport:          t.MandatoryReport,
		ReportURL:                t.ReportURL,
		EventURL:                 t.EventURL,
		Description:              t.Description,
		SupervisorNotes:          t.SupervisorNotes,
		Deposit:                  t.Deposit,
		PaymentStatus:            string(t.PaymentStatus),
		Imported:                 t.Imported,
		EnableComments:           t.EnableComments,
		CarTravel:                t.CarTravel,
		StatutoryDeclaration:     t.StatutoryDeclaration,
		StatutoryDeclarationDate: t.StatutoryDeclarationDate,
		IsCompleted:              t.IsCompleted,
		State:                    state.Display,
		StateCode:                state.Code,
		Acks:                     make([]AckResponse, 0, len(t.Acks)),
		PossibleUserAcks:         t.PossibleUserAcks(),
		ExpeditureCount:          ec,
		ExpeditureAmount:         ea,
		PreexpeditureCount:       pc,
		PreexpeditureAmount:      pa,
		AcceptedExpeditures:      t.AcceptedExpeditures(),
		PaidExpeditures:          t.PaidExpeditures(),
		MediaCount:               t.MediaCount,
	}
	if t.EventDate != nil {
		resp.EventDate = t.EventDate.Format(dateLayout)
	}
	if t.Topic != nil {
		resp.TopicName = t.Topic.Name
	}
	for i := range t.Acks {
		resp.Acks = append(resp.Acks, ToAckResponse(&t.Acks[i]))
	}
	return resp
}

// AddAckRequest represents a request to add an ack
type AddAckRequest struct {
	AckType string `json:"ack_type" binding:"required"`
	Comment string `json:"comment" binding:"max=255"`
}

// SignRequest sets or withdraws the caller's statutory declaration
type SignRequest struct {
	StatutoryDeclaration bool `json:"statutory_declaration"`
}

// SignatureResponse represents a statutory declaration signature
type SignatureResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user"`
	TicketID   int64     `json:"ticket"`
	SignedText string    `json:"signed_text"`
	Created    time.Time `json:"created"`
}

// SignStatus tells whether the caller signed and what text they sign
type SignStatus struct {
	Signed      bool   `json:"statutory_declaration"`
	Declaration string `json:"declaration"`
}

// =============================================================================
// Expense DTOs
// =============================================================================

// CreateExpeditureRequest represents a request to add a real expense.
// AccountingInfo and Paid are ignored for non-staff users.
type CreateExpeditureRequest struct {
	TicketID       int64           `json:"ticket" binding:"required"`
	Description    string          `json:"description" binding:"required,max=255"`
	Amount         decimal.Decimal `json:"amount"`
	Wage           bool            `json:"wage"`
	AccountingInfo *string         `json:"accounting_info" binding:"omitempty,max=255"`
	Paid           *bool           `json:"paid"`
}

// UpdateExpeditureRequest represents a partial expediture update
type UpdateExpeditureRequest struct {
	Description    *string          `json:"description" binding:"omitempty,min=1,max=255"`
	Amount         *decimal.Decimal `json:"amount"`
	Wage           *bool            `json:"wage"`
	AccountingInfo *string          `json:"accounting_info" binding:"omitempty,max=255"`
	Paid           *bool            `json:"paid"`
}

// CreatePreexpeditureRequest represents a request to add a planned expense
type CreatePreexpeditureRequest struct {
	TicketID    int64           `json:"ticket" binding:"required"`
	Description string          `json:"description" binding:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	Wage        bool            `json:"wage"`
}

// UpdatePreexpeditureRequest represents a partial preexpediture update
type UpdatePreexpeditureRequest struct {
	Description *string          `json:"description" binding:"omitempty,min=1,max=255"`
	Amount      *decimal.Decimal `json:"amount"`
	Wage        *bool            `json:"wage"`
}

// ExpenseListFilter narrows expense listings
type ExpenseListFilter struct {
	TicketID *int64 `form:"ticket"`
	Wage     *bool  `form:"wage"`
	Paid     *bool  `form:"paid"`
}

// ExpeditureResponse represents a real expense
type ExpeditureResponse struct {
	ID             int64           `json:"id"`
	TicketID       int64           `json:"ticket"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	AccountingInfo string          `json:"accounting_info"`
	Paid           bool            `json:"paid"`
	Wage           bool            `json:"wage"`
}

// ToExpeditureResponse converts a domain expediture
func ToExpeditureResponse(e *tracker.Expediture) ExpeditureResponse {
	return ExpeditureResponse{
		ID:             e.ID,
		TicketID:       e.TicketID,
		Description:    e.Description,
		Amount:         e.Amount,
		AccountingInfo: e.AccountingInfo,
		Paid:           e.Paid,
		Wage:           e.Wage,
	}
}

// PreexpeditureResponse represents a planned expense
type PreexpeditureResponse struct {
	ID          int64           `json:"id"`
	TicketID    int64           `json:"ticket"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Wage        bool            `json:"wage"`
}

// ToPreexpeditureResponse converts a domain preexpediture
func ToPreexpeditureResponse(p *tracker.Preexpediture) PreexpeditureResponse {
	return PreexpeditureResponse{
		ID:          p.ID,
		TicketID:    p.TicketID,
		Description: p.Description,
		Amount:      p.Amount,
		Wage:        p.Wage,
	}
}

// =============================================================================
// Media DTOs
// =============================================================================

// CreateMediaRequest attaches a wiki file by title or page id
type CreateMediaRequest struct {
	TicketID  int64  `json:"ticket" binding:"required"`
	PageTitle string `json:"page_title" binding:"max=255"`
	PageID    int64  `json:"page_id"`
}

// UsageResponse is a page using a media file
type UsageResponse struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Project string `json:"project"`
}

// MediaResponse represents a ticket media item
type MediaResponse struct {
	ID             int64           `json:"id"`
	TicketID       int64           `json:"ticket"`
	PageTitle      string          `json:"page_title"`
	PageID         int64           `json:"page_id"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	ThumbURL       string          `json:"thumb_url"`
	DescriptionURL string          `json:"descriptionurl"`
	Categories     []string        `json:"categories"`
	Usages         []UsageResponse `json:"usages"`
}

// ToMediaResponse converts a domain media item
func ToMediaResponse(m *tracker.MediaInfo, articleBase string) MediaResponse {
	resp := MediaResponse{
		ID:             m.ID,
		TicketID:       m.TicketID,
		PageTitle:      m.PageTitle,
		PageID:         m.PageID,
		Width:          m.Width,
		Height:         m.Height,
		ThumbURL:       m.ThumbURL,
		DescriptionURL: m.MediawikiLink(articleBase),
		Categories:     make([]string, 0, len(m.Categories)),
		Usages:         make([]UsageResponse, 0, len(m.Usages)),
	}
	for _, c := range m.Categories {
		resp.Categories = append(resp.Categories, c.Title)
	}
	for _, u := range m.Usages {
		resp.Usages = append(resp.Usages, UsageResponse{URL: u.URL, Title: u.Title, Project: u.Project})
	}
	return resp
}

// MediaSummary is the show-media page of a ticket
type MediaSummary struct {
	TicketID                  int64                   `json:"ticket"`
	Media                     []MediaResponse         `json:"media"`
	UsagesCount               int                     `json:"usages_count"`
	WikidataUsagesCount       int                     `json:"wikidata_usages_count"`
	UniqueWikidataUsagesCount int                     `json:"unique_wikidata_usages_count"`
	PhotosPerCategory         []tracker.CategoryCount `json:"photos_per_category"`
	MediaUpdated              *time.Time              `json:"media_updated"`
}

// =============================================================================
// Document DTOs
// =============================================================================

// UploadDocumentInput carries an uploaded document payload
type UploadDocumentInput struct {
	Filename    string
	Description string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UpdateDocumentRequest edits a document description
type UpdateDocumentRequest struct {
	Description string `json:"description" binding:"max=255"`
}

// DocumentResponse represents document metadata
type DocumentResponse struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Description string    `json:"description"`
	Uploader    string    `json:"uploader"`
	Created     time.Time `json:"created"`
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(d *tracker.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		TicketID:    d.TicketID,
		Filename:    d.Filename,
		Size:        d.Size,
		ContentType: d.ContentType,
		Description: d.Description,
		Uploader:    d.Uploader,
		Created:     d.Created,
	}
}

// Download is either a presigned URL or an open payload stream
type Download struct {
	URL         string
	Expires     time.Time
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// =============================================================================
// Grant tree DTOs
// =============================================================================

// GrantRequest creates or replaces a grant
type GrantRequest struct {
	FullName    string `json:"full_name" binding:"required,max=80"`
	ShortName   string `json:"short_name" binding:"required,max=16"`
	Slug        string `json:"slug" binding:"required,max=50"`
	Description string `json:"description"`
}

// GrantResponse represents a grant
type GrantResponse struct {
	ID             int64              `json:"id"`
	FullName       string             `json:"full_name"`
	ShortName      string             `json:"short_name"`
	Slug           string             `json:"slug"`
	Description    string             `json:"description"`
	OpenForTickets bool               `json:"open_for_tickets"`
	Summary        *tracker.Aggregate `json:"summary,omitempty"`
}

// TopicRequest creates or replaces a topic. Nil switches keep their
// defaults on create and their value on update.
type TopicRequest struct {
	Name                       string  `json:"name" binding:"required,max=80"`
	GrantID                    int64   `json:"grant" binding:"required"`
	OpenForTickets             *bool   `json:"open_for_tickets"`
	TicketMedia                *bool   `json:"ticket_media"`
	TicketExpenses             *bool   `json:"ticket_expenses"`
	TicketPreexpenses          *bool   `json:"ticket_preexpenses"`
	TicketStatutoryDeclaration *bool   `json:"ticket_statutory_declaration"`
	TicketCommentsPublic       *bool   `json:"ticket_comments_public"`
	Description                string  `json:"description"`
	FormDescription            string  `json:"form_description"`
	AdminIDs                   []int64 `json:"admin"`
}

// TopicListFilter narrows topic listings
type TopicListFilter struct {
	GrantID  *int64 `form:"grant"`
	OpenOnly bool   `form:"open_for_tickets"`
}

// SubtopicRef is the short subtopic form embedded in topics
type SubtopicRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// TopicResponse represents a topic with its subtopics
type TopicResponse struct {
	ID                         int64              `json:"id"`
	Name                       string             `json:"name"`
	GrantID                    int64              `json:"grant"`
	OpenForTickets             bool               `json:"open_for_tickets"`
	TicketMedia                bool               `json:"ticket_media"`
	TicketExpenses             bool               `json:"ticket_expenses"`
	TicketPreexpenses          bool               `json:"ticket_preexpenses"`
	TicketStatutoryDeclaration bool               `json:"ticket_statutory_declaration"`
	TicketCommentsPublic       bool               `json:"ticket_comments_public"`
	Description                string             `json:"description"`
	FormDescription            string             `json:"form_description"`
	AdminIDs                   []int64            `json:"admin"`
	Subtopics                  []SubtopicRef      `json:"subtopics"`
	Summary                    *tracker.Aggregate `json:"summary,omitempty"`
}

// ToTopicResponse converts a domain topic
func ToTopicResponse(t *tracker.Topic) TopicResponse {
	resp := TopicResponse{
		ID:                         t.ID,
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
		AdminIDs:                   t.AdminIDs,
		Subtopics:                  make([]SubtopicRef, 0, len(t.Subtopics)),
	}
	if resp.AdminIDs == nil {
		resp.AdminIDs = []int64{}
	}
	for _, s := range t.Subtopics {
		resp.Subtopics = append(resp.Subtopics, SubtopicRef{ID: s.ID, Name: s.Name, DisplayName: s.String()})
	}
	return resp
}

// SubtopicRequest creates or replaces a subtopic
type SubtopicRequest struct {
	Name            string `json:"name" binding:"required,max=80"`
	TopicID         int64  `json:"topic" binding:"required"`
	Description     string `json:"description"`
	FormDescription string `json:"form_description"`
}

// SubtopicResponse represents a subtopic
type SubtopicResponse struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	TopicID         int64              `json:"topic"`
	Description     string             `json:"description"`
	FormDescription string             `json:"form_description"`
	Summary         *tracker.Aggregate `json:"summary,omitempty"`
}

// ToSubtopicResponse converts a domain subtopic
func ToSubtopicResponse(s *tracker.Subtopic) SubtopicResponse {
	return SubtopicResponse{
		ID:              s.ID,
		Name:            s.Name,
		TopicID:         s.TopicID,
		Description:     s.Description,
		FormDescription: s.FormDescription,
	}
}

// TopicFinanceRow is one topic line of the finance matrix
type TopicFinanceRow struct {
	TopicID   int64                  `json:"topic"`
	TopicName string                 `json:"topic_name"`
	Finance   *tracker.FinanceStatus `json:"finance"`
}

// GrantFinanceResponse is one grant block of the finance matrix
type GrantFinanceResponse struct {
	GrantID   int64                  `json:"grant"`
	GrantName string                 `json:"grant_name"`
	Topics    []TopicFinanceRow      `json:"topics"`
	Finance   *tracker.FinanceStatus `json:"finance"`
}

// FinanceResponse is the whole finance matrix
type FinanceResponse struct {
	Grants    []GrantFinanceResponse `json:"grants"`
	HaveFuzzy bool                   `json:"have_fuzzy"`
}
