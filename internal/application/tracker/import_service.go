package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	csvimport "github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Import types
const (
	ImportTicket     = "ticket"
	ImportTopic      = "topic"
	ImportSubtopic   = "subtopic"
	ImportGrant      = "grant"
	ImportExpense    = "expense"
	ImportPreexpense = "preexpense"
	ImportMedia      = "media"
	ImportUser       = "user"
)

const maxImportErrors = 100

// ImportResult reports what an import did
type ImportResult struct {
	Type     string               `json:"type"`
	Imported int                  `json:"imported"`
	Errors   []csvimport.RowError `json:"errors"`
	// Truncated is set when the row limit stopped the import early
	Truncated bool   `json:"truncated"`
	Message   string `json:"message,omitempty"`
}

type importRowFunc func(ctx context.Context, user *identity.User, row *csvimport.Row) error

type importer struct {
	rules  []csvimport.FieldRule
	run    importRowFunc
	access func(user *identity.User) error
}

// ImportService creates objects from uploaded CSV files. Rows go through
// the same services as the API, so permissions and notifications apply
// per row.
type ImportService struct {
	tickets   *TicketService
	expenses  *ExpenseService
	media     *MediaService
	grantTree *GrantService
	grants    tracker.GrantRepository
	topics    tracker.TopicRepository
	users     identity.UserRepository
	settings  Settings
	logger    *zap.Logger
	importers map[string]importer
}

// NewImportService creates a new ImportService
func NewImportService(
	tickets *TicketService,
	expenses *ExpenseService,
	media *MediaService,
	grantTree *GrantService,
	grants tracker.GrantRepository,
	topics tracker.TopicRepository,
	users identity.UserRepository,
	settings Settings,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ImportService{
		tickets:   tickets,
		expenses:  expenses,
		media:     media,
		grantTree: grantTree,
		grants:    grants,
		topics:    topics,
		users:     users,
		settings:  settings,
		logger:    logger,
	}
	s.importers = map[string]importer{
		ImportTicket: {
			rules: []csvimport.FieldRule{
				csvimport.Field("event_date").Custom(optionalDate).Build(),
				csvimport.Field("name").Required().MaxLength(100).Build(),
				csvimport.Field("topic").Required().Build(),
				csvimport.Field("event_url").MaxLength(255).Build(),
				csvimport.Field("description").Build(),
				csvimport.Field("deposit").Decimal().Build(),
			},
			run: s.importTicket,
		},
		ImportTopic: {
			rules: []csvimport.FieldRule{
				csvimport.Field("name").Required().MaxLength(80).Build(),
				csvimport.Field("grant").Required().Build(),
				csvimport.Field("open_for_new_tickets").Build(),
				csvimport.Field("media").Build(),
				csvimport.Field("preexpenses").Build(),
				csvimport.Field("expenses").Build(),
				csvimport.Field("description").Build(),
				csvimport.Field("form_description").Build(),
			},
			run:    s.importTopic,
			access: staffOnly("topics"),
		},
		ImportSubtopic: {
			rules: []csvimport.FieldRule{
				csvimport.Field("name").Required().MaxLength(80).Build(),
				csvimport.Field("topic").Required().Build(),
				csvimport.Field("description").Build(),
				csvimport.Field("form_description").Build(),
			},
			run:    s.importSubtopic,
			access: staffOnly("subtopics"),
		},
		ImportGrant: {
			rules: []csvimport.FieldRule{
				csvimport.Field("full_name").Required().MaxLength(80).Build(),
				csvimport.Field("short_name").Required().MaxLength(16).Build(),
				csvimport.Field("slug").Required().MaxLength(50).Build(),
				csvimport.Field("description").Build(),
			},
			run:    s.importGrant,
			access: staffOnly("grants"),
		},
		ImportExpense: {
			rules: []csvimport.FieldRule{
				csvimport.Field("ticket_id").Required().Int().Build(),
				csvimport.Field("description").Required().MaxLength(255).Build(),
				csvimport.Field("amount").Required().Decimal().Build(),
				csvimport.Field("wage").Bool().Build(),
				csvimport.Field("accounting_info").MaxLength(255).Build(),
				csvimport.Field("paid").Bool().Build(),
			},
			run: s.importExpense,
		},
		ImportPreexpense: {
			rules: []csvimport.FieldRule{
				csvimport.Field("ticket_id").Required().Int().Build(),
				csvimport.Field("description").Required().MaxLength(255).Build(),
				csvimport.Field("amount").Required().Decimal().Build(),
				csvimport.Field("wage").Bool().Build(),
			},
			run: s.importPreexpense,
		},
		ImportMedia: {
			rules: []csvimport.FieldRule{
				csvimport.Field("ticket_id").Required().Int().Build(),
				csvimport.Field("name").Required().MaxLength(255).Build(),
			},
			run: s.importMedia,
		},
		ImportUser: {
			rules: []csvimport.FieldRule{
				csvimport.Field("username").Required().MaxLength(150).Build(),
				csvimport.Field("password").Required().Build(),
				csvimport.Field("first_name").MaxLength(150).Build(),
				csvimport.Field("last_name").MaxLength(150).Build(),
				csvimport.Field("is_superuser").Bool().Build(),
				csvimport.Field("is_staff").Bool().Build(),
				csvimport.Field("is_active").Bool().Build(),
				csvimport.Field("email").Required().Build(),
			},
			run: s.importUser,
			access: func(user *identity.User) error {
				if !user.IsSuperuser {
					return shared.ErrForbidden.WithMessage("You must be a superuser in order to be able to import users.")
				}
				return nil
			},
		},
	}
	return s
}

// Types lists the supported import types
func (s *ImportService) Types() []string {
	return []string{ImportTicket, ImportTopic, ImportSubtopic, ImportGrant,
		ImportExpense, ImportPreexpense, ImportMedia, ImportUser}
}

// RowLimit is how many rows user may import at once; zero is unlimited
func (s *ImportService) RowLimit(user *identity.User) int {
	if user.HasPerm(identity.PermImportUnlimitedRows) || s.settings.ImportRowLimit <= 0 {
		return 0
	}
	return s.settings.ImportRowLimit
}

// Import reads a CSV file of the given type and creates a row at a time.
// Files with invalid rows are rejected before anything is created. A
// failing row is reported and the rest continue.
func (s *ImportService) Import(ctx context.Context, user *identity.User, typ string, r io.Reader) (*ImportResult, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	imp, ok := s.importers[typ]
	if !ok {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown import type %q", typ))
	}
	if imp.access != nil {
		if err := imp.access(user); err != nil {
			return nil, err
		}
	}

	limit := s.RowLimit(user)
	read, err := csvimport.Read(r, csvimport.ReadOptions{
		Rules:     imp.rules,
		Limit:     limit,
		MaxErrors: maxImportErrors,
	})
	if err != nil {
		return nil, importFileError(err)
	}
	result := &ImportResult{Type: typ, Truncated: read.Truncated}
	if read.Errors.HasErrors() {
		result.Errors = read.Errors.Errors()
		return result, shared.ErrInvalidInput.WithMessage(read.Errors.String())
	}

	failures := csvimport.NewErrorCollection(maxImportErrors)
	for _, row := range read.Rows {
		if err := imp.run(ctx, user, row); err != nil {
			failures.AddRowError(row.LineNumber, err)
			continue
		}
		result.Imported++
	}
	result.Errors = failures.Errors()
	if result.Truncated {
		result.Message = fmt.Sprintf("You do not have permission to import more than %d rows. First %d rows have already been imported.", limit, limit)
	}

	s.logger.Info("CSV imported",
		zap.String("type", typ),
		zap.Int64("user_id", user.ID),
		zap.Int("imported", result.Imported),
		zap.Int("failed", failures.TotalCount()),
		zap.Bool("truncated", result.Truncated))
	return result, nil
}

func importFileError(err error) error {
	var missing *csvimport.MissingColumnsError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader):
		return shared.ErrInvalidInput.WithMessage(err.Error())
	}
	return err
}

func (s *ImportService) importTicket(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	topic, err := s.topicByName(ctx, row.Get("topic"))
	if err != nil {
		return err
	}
	req := CreateTicketRequest{
		Name:        row.Get("name"),
		TopicID:     topic.ID,
		EventURL:    row.Get("event_url"),
		Description: row.Get("description"),
	}
	if d := row.Get("event_date"); d != "" && d != "None" {
		req.EventDate = d
	}
	if v := row.Get("deposit"); v != "" {
		if req.Deposit, err = csvimport.ParseDecimal(v); err != nil {
			return err
		}
	}
	_, err = s.tickets.Create(ctx, user, req)
	return err
}

func (s *ImportService) importTopic(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	grant, err := s.grantByName(ctx, row.Get("grant"))
	if err != nil {
		return err
	}
	flag := func(column string) *bool {
		v := csvimport.ParseBool(row.Get(column), true)
		return &v
	}
	_, err = s.grantTree.CreateTopic(ctx, user, TopicRequest{
		Name:              row.Get("name"),
		GrantID:           grant.ID,
		OpenForTickets:    flag("open_for_new_tickets"),
		TicketMedia:       flag("media"),
		TicketPreexpenses: flag("preexpenses"),
		TicketExpenses:    flag("expenses"),
		Description:       row.Get("description"),
		FormDescription:   row.Get("form_description"),
	})
	return err
}

func (s *ImportService) importSubtopic(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	topic, err := s.topicByName(ctx, row.Get("topic"))
	if err != nil {
		return err
	}
	_, err = s.grantTree.CreateSubtopic(ctx, user, SubtopicRequest{
		Name:            row.Get("name"),
		TopicID:         topic.ID,
		Description:     row.Get("description"),
		FormDescription: row.Get("form_description"),
	})
	return err
}

func (s *ImportService) importGrant(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	_, err := s.grantTree.CreateGrant(ctx, user, GrantRequest{
		FullName:    row.Get("full_name"),
		ShortName:   row.Get("short_name"),
		Slug:        row.Get("slug"),
		Description: row.Get("description"),
	})
	return err
}

func (s *ImportService) importExpense(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	ticketID, _ := strconv.ParseInt(row.Get("ticket_id"), 10, 64)
	amount, err := csvimport.ParseDecimal(row.Get("amount"))
	if err != nil {
		return err
	}
	req := CreateExpeditureRequest{
		TicketID:    ticketID,
		Description: row.Get("description"),
		Amount:      amount,
		Wage:        csvimport.ParseBool(row.Get("wage"), false),
	}
	if isStaff(user) {
		info := row.Get("accounting_info")
		paid := csvimport.ParseBool(row.Get("paid"), false)
		req.AccountingInfo, req.Paid = &info, &paid
	}
	_, err = s.expenses.CreateExpediture(ctx, user, req)
	return err
}

func (s *ImportService) importPreexpense(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	ticketID, _ := strconv.ParseInt(row.Get("ticket_id"), 10, 64)
	amount, err := csvimport.ParseDecimal(row.Get("amount"))
	if err != nil {
		return err
	}
	_, err = s.expenses.CreatePreexpediture(ctx, user, CreatePreexpeditureRequest{
		TicketID:    ticketID,
		Description: row.Get("description"),
		Amount:      amount,
		Wage:        csvimport.ParseBool(row.Get("wage"), false),
	})
	return err
}

func (s *ImportService) importMedia(ctx context.Context, user *identity.User, row *csvimport.Row) error {
	ticketID, _ := strconv.ParseInt(row.Get("ticket_id"), 10, 64)
	created, err := s.media.CreateBulk(ctx, user, []CreateMediaRequest{{
		TicketID:  ticketID,
		PageTitle: row.Get("name"),
	}})
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return tracker.ErrDuplicateMedia
	}
	return nil
}

func (s *ImportService) importUser(ctx context.Context, _ *identity.User, row *csvimport.Row) error {
	username := row.Get("username")
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrAlreadyExists.WithMessage(fmt.Sprintf("User %s already exists", username))
	}
	u, err := identity.NewUser(username, row.Get("email"), row.Get("password"))
	if err != nil {
		return err
	}
	if err := u.SetName(row.Get("first_name"), row.Get("last_name")); err != nil {
		return err
	}
	u.IsSuperuser = csvimport.ParseBool(row.Get("is_superuser"), false)
	u.IsStaff = csvimport.ParseBool(row.Get("is_staff"), false)
	u.IsActive = csvimport.ParseBool(row.Get("is_active"), true)
	return s.users.Create(ctx, u)
}

// topicByName finds a topic by name across grants, the oldest first
func (s *ImportService) topicByName(ctx context.Context, name string) (*tracker.Topic, error) {
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Topic %s does not exist", name))
}

func (s *ImportService) grantByName(ctx context.Context, fullName string) (*tracker.Grant, error) {
	grants, err := s.grants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		if g.FullName == fullName {
			return g, nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Grant %s does not exist", fullName))
}

func staffOnly(what string) func(user *identity.User) error {
	return func(user *identity.User) error {
		if !isStaff(user) {
			return shared.ErrForbidden.WithMessage(
				fmt.Sprintf("You must be a staffer in order to be able to import %s.", what))
		}
		return nil
	}
}

func optionalDate(value string) error {
	if value == "" || value == "None" {
		return nil
	}
	if _, err := parseDate(value); err != nil {
		return err
	}
	return nil
}

// ExampleFile is a one-row CSV showing the columns of an import type
type ExampleFile struct {
	Filename string
	Header   []string
	Row      []any
}

// Example returns the example file of an import type. Staff get the
// staff-only expense columns.
func (s *ImportService) Example(user *identity.User, typ string) (*ExampleFile, error) {
	switch typ {
	case ImportTicket:
		return &ExampleFile{"example-ticket.csv",
			[]string{"event_date", "name", "topic", "event_url", "description", "deposit"},
			[]any{"2010-04-23", "Name of a ticket", "Name of a topic", "http://wikimedia.cz", "Description", "0"}}, nil
	case ImportTopic:
		return &ExampleFile{"example-topic.csv",
			[]string{"name", "grant", "open_for_new_tickets", "media", "preexpenses", "expenses", "description", "form_description"},
			[]any{"Name of a topic", "Name of a grant", true, true, true, true, "Description", "Form description"}}, nil
	case ImportSubtopic:
		return &ExampleFile{"example-subtopic.csv",
			[]string{"name", "topic", "description", "form_description"},
			[]any{"Name of a subtopic", "Name of a topic", "Description", "Form description"}}, nil
	case ImportGrant:
		return &ExampleFile{"example-grant.csv",
			[]string{"full_name", "short_name", "slug", "description"},
			[]any{"Full name", "Short name", "Slug", "Description"}}, nil
	case ImportExpense:
		ex := &ExampleFile{"example-expense.csv",
			[]string{"ticket_id", "description", "amount", "wage"},
			[]any{"Ticket ID", "Description", "100", false}}
		if isStaff(user) {
			ex.Header = append(ex.Header, "accounting_info", "paid")
			ex.Row = append(ex.Row, "Accounting info", false)
		}
		return ex, nil
	case ImportPreexpense:
		return &ExampleFile{"example-preexpense.csv",
			[]string{"ticket_id", "description", "amount", "wage"},
			[]any{"Ticket ID", "Description", "100", false}}, nil
	case ImportMedia:
		return &ExampleFile{"example-media.csv",
			[]string{"ticket_id", "name"},
			[]any{"Ticket ID", "File:Name.jpg"}}, nil
	case ImportUser:
		return &ExampleFile{"example-user.csv",
			[]string{"username", "password", "first_name", "last_name", "is_superuser", "is_staff", "is_active", "email"},
			[]any{"Username", "Password", "First name", "Last name", false, false, true, "mail@address.example"}}, nil
	}
	return nil, shared.ErrInvalidInput.WithMessage("You can't download an example file of an invalid object")
}

// Write renders the example file
func (e *ExampleFile) Write(w io.Writer) error {
	cw := csvimport.NewWriter(w, e.Header...)
	cw.WriteRow(e.Row...)
	return cw.Err()
}
