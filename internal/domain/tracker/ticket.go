package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
)

// DefaultRatingPercentage is the rating given to new tickets
const DefaultRatingPercentage = 100

// Ticket is one tracked request: a trip, an event or an expense claim.
// The acks, expeditures and preexpeditures are loaded with the ticket and
// drive every derived value below.
type Ticket struct {
	ID                       int64
	Created                  time.Time
	Updated                  time.Time
	MediaUpdated             *time.Time
	EventDate                *time.Time
	RequestedUserID          *int64
	RequestedUser            *identity.User
	RequestedText            string
	Name                     string
	TopicID                  int64
	Topic                    *Topic
	SubtopicID               *int64
	Subtopic                 *Subtopic
	RatingPercentage         *int
	MandatoryReport          bool
	ReportURL                string
	EventURL                 string
	Description              string
	SupervisorNotes          string
	Deposit                  decimal.Decimal
	ClusterID                *int64
	PaymentStatus            PaymentStatus
	Imported                 bool
	EnableComments           bool
	CarTravel                bool
	StatutoryDeclaration     bool
	StatutoryDeclarationDate *time.Time
	IsCompleted              bool

	Acks           []TicketAck
	Expeditures    []Expediture
	Preexpeditures []Preexpediture
	MediaCount     int64
}

// NewTicket creates a draft ticket requested by user in topic
func NewTicket(topic *Topic, requester *identity.User, name string) (*Ticket, error) {
	if topic == nil {
		return nil, ErrInvalidTicket.WithMessage("Ticket needs a topic")
	}
	rating := DefaultRatingPercentage
	t := &Ticket{
		Created:          time.Now(),
		TopicID:          topic.ID,
		Topic:            topic,
		RatingPercentage: &rating,
		Deposit:          decimal.Zero,
		PaymentStatus:    PaymentNA,
		EnableComments:   true,
	}
	if requester.IsAuthenticated() {
		id := requester.ID
		t.RequestedUserID = &id
		t.RequestedUser = requester
	}
	if err := t.Rename(name); err != nil {
		return nil, err
	}
	return t, nil
}

// Rename validates and sets the ticket name
func (t *Ticket) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 100 {
		return ErrInvalidTicket.WithMessage("Ticket name must be 1 to 100 characters")
	}
	t.Name = name
	return nil
}

func (t *Ticket) String() string {
	return fmt.Sprintf("%d: %s", t.ID, t.Name)
}

// RequestedBy returns the requester username or the free-text requester
func (t *Ticket) RequestedBy() string {
	if t.RequestedUser != nil {
		return t.RequestedUser.Username
	}
	return t.RequestedText
}

// IsRequester reports whether user requested the ticket
func (t *Ticket) IsRequester(user *identity.User) bool {
	return user.IsAuthenticated() && t.RequestedUserID != nil && *t.RequestedUserID == user.ID
}

// AckSet returns the set of ack types present on the ticket
func (t *Ticket) AckSet() map[AckType]bool {
	set := make(map[AckType]bool, len(t.Acks))
	for _, a := range t.Acks {
		set[a.AckType] = true
	}
	return set
}

// HasAck reports whether the ticket carries ack
func (t *Ticket) HasAck(ack AckType) bool {
	for _, a := range t.Acks {
		if a.AckType == ack {
			return true
		}
	}
	return false
}

// HasAllAcks reports whether the ticket carries every listed ack
func (t *Ticket) HasAllAcks(acks ...AckType) bool {
	for _, a := range acks {
		if !t.HasAck(a) {
			return false
		}
	}
	return true
}

// FindAck returns the first ack of the given type
func (t *Ticket) FindAck(ack AckType) (*TicketAck, bool) {
	for i := range t.Acks {
		if t.Acks[i].AckType == ack {
			return &t.Acks[i], true
		}
	}
	return nil, false
}

// IsConcept reports whether no ack was added yet
func (t *Ticket) IsConcept() bool {
	return len(t.Acks) == 0
}

// IsLocked reports whether the ticket was archived or closed
func (t *Ticket) IsLocked() bool {
	return t.HasAck(AckArchive) || t.HasAck(AckClose)
}

// State is a workflow state of a ticket
type State struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

var (
	StateHistorical        = State{"historical", "historical"}
	StateClosed            = State{"closed", "closed"}
	StateArchived          = State{"archived", "archived"}
	StateWaitingRating     = State{"wfrating", "waiting for content rating"}
	StateComplete          = State{"complete", "complete"}
	StateWaitingFiling     = State{"wffill", "waiting for filing of documents"}
	StateWaitingDocs       = State{"wfdocssub", "waiting for document submission"}
	StateWaitingApproval   = State{"wfapproval", "waiting for approval"}
	StateWaitingSubmitting = State{"wfsubmitting", "waiting for submitting"}
	StateWaitingPreapprove = State{"wfpreapproval", "waiting for preapproval"}
	StateDraft             = State{"draft", "draft"}
)

// AllStates lists the states in the order exports offer them
func AllStates() []State {
	return []State{
		StateDraft,
		StateWaitingPreapprove,
		StateWaitingSubmitting,
		StateWaitingApproval,
		StateWaitingRating,
		StateWaitingDocs,
		StateWaitingFiling,
		StateComplete,
		StateArchived,
		StateClosed,
		StateHistorical,
	}
}

// State computes the workflow state from the ack set
func (t *Ticket) State() State {
	if t.Imported {
		return StateHistorical
	}
	acks := t.AckSet()
	switch {
	case acks[AckClose]:
		return StateClosed
	case acks[AckArchive]:
		return StateArchived
	case acks[AckContent]:
		if t.RatingPercentage == nil || *t.RatingPercentage == 0 {
			return StateWaitingRating
		}
		switch {
		case acks[AckDocs]:
			return StateComplete
		case acks[AckUserDocs]:
			return StateWaitingFiling
		default:
			return StateWaitingDocs
		}
	case acks[AckPrecontent]:
		if acks[AckUserContent] {
			return StateWaitingApproval
		}
		return StateWaitingSubmitting
	case acks[AckUserPrecontent]:
		return StateWaitingPreapprove
	case acks[AckUserContent]:
		return StateWaitingApproval
	default:
		return StateDraft
	}
}

// StateString returns the english display name of the state
func (t *Ticket) StateString() string {
	return t.State().Display
}

// StateCode returns the machine code of the state
func (t *Ticket) StateCode() string {
	return t.State().Code
}

// ExpeditureTotals returns the count and sum of real expeditures
func (t *Ticket) ExpeditureTotals() (int, decimal.Decimal) {
	sum := decimal.Zero
	for _, e := range t.Expeditures {
		sum = sum.Add(e.Amount)
	}
	return len(t.Expeditures), sum
}

// PreexpeditureTotals returns the count and sum of planned expeditures
func (t *Ticket) PreexpeditureTotals() (int, decimal.Decimal) {
	sum := decimal.Zero
	for _, p := range t.Preexpeditures {
		sum = sum.Add(p.Amount)
	}
	return len(t.Preexpeditures), sum
}

// AcceptedExpeditures is the expediture sum reduced by the rating. It is
// zero until the content ack exists and a rating is set.
func (t *Ticket) AcceptedExpeditures() decimal.Decimal {
	if !t.HasAck(AckContent) || t.RatingPercentage == nil {
		return decimal.Zero
	}
	_, total := t.ExpeditureTotals()
	return rate(total, *t.RatingPercentage).Round(2)
}

// PaidExpeditures is the paid expediture sum reduced by the rating
func (t *Ticket) PaidExpeditures() decimal.Decimal {
	if t.RatingPercentage == nil {
		return decimal.Zero
	}
	return rate(t.paidSum(true, false), *t.RatingPercentage).Round(2)
}

// PaidWages is the paid wage sum reduced by the rating, unrounded
func (t *Ticket) PaidWages() decimal.Decimal {
	if t.RatingPercentage == nil || *t.RatingPercentage == 0 {
		return decimal.Zero
	}
	return rate(t.paidSum(true, true), *t.RatingPercentage)
}

func (t *Ticket) paidSum(paid, wagesOnly bool) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Expeditures {
		if e.Paid != paid || (wagesOnly && !e.Wage) {
			continue
		}
		sum = sum.Add(e.Amount)
	}
	return sum
}

func rate(amount decimal.Decimal, percentage int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(percentage))).Div(decimal.NewFromInt(100))
}

// ComputePaymentStatus derives the payment status from the expeditures
func (t *Ticket) ComputePaymentStatus() PaymentStatus {
	paid := 0
	for _, e := range t.Expeditures {
		if e.Paid {
			paid++
		}
	}
	return PaymentStatusFor(paid, len(t.Expeditures))
}

// RecomputeDerived refreshes payment_status and is_completed
func (t *Ticket) RecomputeDerived() {
	t.PaymentStatus = t.ComputePaymentStatus()
	t.IsCompleted = t.IsLocked()
}

// Touch applies the save-time rules. prev is the stored version, nil on
// create.
func (t *Ticket) Touch(prev *Ticket, now time.Time) {
	if !t.CarTravel {
		t.StatutoryDeclaration = false
	}
	wasDeclared := prev != nil && prev.StatutoryDeclaration
	switch {
	case !wasDeclared && t.StatutoryDeclaration:
		t.StatutoryDeclarationDate = &now
	case wasDeclared && !t.StatutoryDeclaration:
		t.StatutoryDeclarationDate = nil
	}
	t.Updated = now
	if t.EventDate == nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		t.EventDate = &today
	}
	t.RecomputeDerived()
}

// PossibleUserAckTypes lists the user acks the requester may still add
func (t *Ticket) PossibleUserAckTypes() []AckType {
	out := make([]AckType, 0, 3)
	for _, ack := range UserEditableAckTypes() {
		uber, _ := ack.Uber()
		if !t.HasAck(ack) && !t.HasAck(uber) {
			out = append(out, ack)
		}
	}
	return out
}

// PossibleUserAcks wraps PossibleUserAckTypes with display names
func (t *Ticket) PossibleUserAcks() []PossibleAck {
	types := t.PossibleUserAckTypes()
	out := make([]PossibleAck, 0, len(types))
	for _, a := range types {
		out = append(out, PossibleAck{AckType: a, Display: a.Display()})
	}
	return out
}

// CanAckBeAdded enforces the minimum wait between a user ack and its
// admin counterpart. Acks outside the wait-needed group always pass.
func (t *Ticket) CanAckBeAdded(ack AckType, now time.Time, minWait time.Duration) bool {
	if !ack.NeedsWait() {
		return true
	}
	if ack == AckPrecontent && t.HasAck(AckContent) {
		return false
	}
	userAck, ok := t.FindAck(ack.UserAck())
	if !ok {
		return false
	}
	return !t.IsLocked() && !t.HasAck(ack) && now.After(userAck.Added.Add(minWait))
}

// IsEditable reports whether the ticket may be edited outside admin tools
func (t *Ticket) IsEditable(user *identity.User) bool {
	if user.HasPerm(identity.PermSupervisor) || user.HasPerm(identity.PermChangeTicket) {
		return true
	}
	return user.IsAuthenticated() && !t.IsLocked()
}

// CanEdit reports whether user may edit the ticket as its requester
func (t *Ticket) CanEdit(user *identity.User) bool {
	return t.IsEditable(user) && t.IsRequester(user)
}

// CanSeeAllDocuments reports whether user sees every document
func (t *Ticket) CanSeeAllDocuments(user *identity.User) bool {
	return t.IsRequester(user) || user.HasPerm(identity.PermSeeAllDocs) || user.HasPerm(identity.PermEditAllDocs)
}

// CanEditDocuments reports whether user may change documents
func (t *Ticket) CanEditDocuments(user *identity.User) bool {
	return t.IsRequester(user) || user.HasPerm(identity.PermEditAllDocs)
}

// CanSeeComments reports whether user may read the ticket comments
func (t *Ticket) CanSeeComments(user *identity.User, profile *identity.TrackerProfile) bool {
	if t.Topic != nil && t.Topic.TicketCommentsPublic {
		return true
	}
	return t.CanAlwaysSeeComments(user, profile)
}

// CanAlwaysSeeComments ignores the topic's public-comments switch
func (t *Ticket) CanAlwaysSeeComments(user *identity.User, profile *identity.TrackerProfile) bool {
	if !user.IsAuthenticated() {
		return false
	}
	return t.IsRequester(user) ||
		user.HasPerm(identity.PermSupervisor) ||
		user.HasPerm(identity.PermChangeTicket) ||
		profile.IsChapterLinked()
}

// CanCopyPreexpeditures reports whether preexpeditures may be copied
func (t *Ticket) CanCopyPreexpeditures(user *identity.User) bool {
	return t.CanEdit(user) && !t.HasAck(AckContent)
}

// CanEditExpeditures reports whether user may add or change expeditures.
// perm is add_expediture or change_expediture.
func (t *Ticket) CanEditExpeditures(user *identity.User, perm identity.Permission) bool {
	return user.HasPerm(perm) || (t.CanEdit(user) && !t.HasAck(AckContent))
}

// CanEditPreexpeditures reports whether user may add or change
// preexpeditures. perm is add_preexpediture or change_preexpediture.
func (t *Ticket) CanEditPreexpeditures(user *identity.User, perm identity.Permission) bool {
	return user.HasPerm(perm) || (t.CanEdit(user) && !t.HasAck(AckPrecontent) && !t.HasAck(AckContent))
}

// CanEditMedia reports whether user may add or change media.
// perm is add_mediainfo or change_mediainfo.
func (t *Ticket) CanEditMedia(user *identity.User, perm identity.Permission) bool {
	return user.HasPerm(perm) || t.CanEdit(user)
}

// CanAdminAck reports whether user may add or remove admin acks
func (t *Ticket) CanAdminAck(user *identity.User) bool {
	return user.IsSupervisor() || t.Topic.IsAdmin(user)
}

// CanSign reports whether user may sign the statutory declaration
func (t *Ticket) CanSign(user *identity.User) bool {
	return user.IsAuthenticated() && t.SupportsSignatures() && !t.IsRequester(user)
}

// SupportsSignatures reports whether the topic and ticket take declarations
func (t *Ticket) SupportsSignatures() bool {
	return t.Topic != nil && t.Topic.TicketStatutoryDeclaration && t.CarTravel
}

// ValidateDepositOnCreate checks the deposit of a new ticket
func ValidateDepositOnCreate(deposit decimal.Decimal) error {
	if !deposit.IsZero() {
		return ErrDepositNotZero
	}
	return nil
}

// ValidateDepositOnUpdate checks a deposit change against the stored
// ticket: locked after preacceptance, capped by the preexpediture sum.
func (t *Ticket) ValidateDepositOnUpdate(deposit decimal.Decimal) error {
	if t.HasAck(AckPrecontent) {
		if deposit.Equal(t.Deposit) {
			return nil
		}
		return ErrDepositLocked
	}
	if deposit.IsNegative() {
		return ErrDepositTooHigh.WithMessage("Deposit cannot be negative")
	}
	_, planned := t.PreexpeditureTotals()
	if deposit.GreaterThan(planned) {
		return ErrDepositTooHigh
	}
	return nil
}

// ValidateSubtopic checks the subtopic belongs to the ticket topic
func (t *Ticket) ValidateSubtopic(subtopic *Subtopic) error {
	if subtopic == nil {
		return nil
	}
	if subtopic.TopicID != t.TopicID {
		return ErrSubtopicMismatch
	}
	return nil
}

// ValidateStatutoryDeclaration requires the declaration when the topic
// asks for it and the requester travelled by car.
func (t *Ticket) ValidateStatutoryDeclaration() error {
	if t.Topic != nil && t.Topic.TicketStatutoryDeclaration && t.CarTravel && !t.StatutoryDeclaration {
		return ErrStatutoryRequired
	}
	return nil
}
