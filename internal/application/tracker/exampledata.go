package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"go.uber.org/zap"
)

// Example data kinds, in dependency order
const (
	ExampleUsers     = "users"
	ExampleGrants    = "grants"
	ExampleTopics    = "topics"
	ExampleSubtopics = "subtopics"
	ExampleTickets   = "tickets"
)

// ExampleKinds lists every kind of example data
var ExampleKinds = []string{ExampleUsers, ExampleGrants, ExampleTopics, ExampleSubtopics, ExampleTickets}

const examplePassword = "verygoodpassword"

// ExampleCounts sets how many rows of each kind to generate
type ExampleCounts struct {
	Users     int
	Grants    int
	Topics    int
	Subtopics int
	Tickets   int
}

// DefaultExampleCounts returns the counts used when none are given
func DefaultExampleCounts() ExampleCounts {
	return ExampleCounts{Users: 4, Grants: 4, Topics: 12, Subtopics: 20, Tickets: 60}
}

// ExampleResult reports how many rows were created per kind
type ExampleResult map[string]int

// SelectExampleKinds resolves the only/skip comma lists into the kinds to
// generate
func SelectExampleKinds(only, skip string) ([]string, error) {
	kinds := slices.Clone(ExampleKinds)
	if only != "" {
		kinds = splitKinds(only)
	}
	for _, k := range splitKinds(skip) {
		i := slices.Index(kinds, k)
		if i < 0 {
			return nil, fmt.Errorf("unknown example data kind %q", k)
		}
		kinds = slices.Delete(kinds, i, i+1)
	}
	for _, k := range kinds {
		if !slices.Contains(ExampleKinds, k) {
			return nil, fmt.Errorf("unknown example data kind %q", k)
		}
	}
	if len(kinds) == 0 {
		return nil, ErrNoExampleKinds
	}
	return kinds, nil
}

func splitKinds(list string) []string {
	var out []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ExampleDataGenerator fills an empty database with plausible grants,
// topics and tickets for development
type ExampleDataGenerator struct {
	users     identity.UserRepository
	grants    tracker.GrantRepository
	topics    tracker.TopicRepository
	subtopics tracker.SubtopicRepository
	tickets   tracker.TicketRepository
	faker     *gofakeit.Faker
	now       func() time.Time
	logger    *zap.Logger
}

// NewExampleDataGenerator creates a generator; seed 0 picks a random seed
func NewExampleDataGenerator(
	users identity.UserRepository,
	grants tracker.GrantRepository,
	topics tracker.TopicRepository,
	subtopics tracker.SubtopicRepository,
	tickets tracker.TicketRepository,
	seed uint64,
	logger *zap.Logger,
) *ExampleDataGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExampleDataGenerator{
		users:     users,
		grants:    grants,
		topics:    topics,
		subtopics: subtopics,
		tickets:   tickets,
		faker:     gofakeit.New(seed),
		now:       time.Now,
		logger:    logger,
	}
}

// Generate creates the requested kinds in dependency order. Kinds that
// depend on missing parents fail with a validation error.
func (g *ExampleDataGenerator) Generate(ctx context.Context, kinds []string, counts ExampleCounts) (ExampleResult, error) {
	res := ExampleResult{}
	steps := []struct {
		kind string
		n    int
		fn   func(context.Context, int) (int, error)
	}{
		{ExampleUsers, counts.Users, g.addUsers},
		{ExampleGrants, counts.Grants, g.addGrants},
		{ExampleTopics, counts.Topics, g.addTopics},
		{ExampleSubtopics, counts.Subtopics, g.addSubtopics},
		{ExampleTickets, counts.Tickets, g.addTickets},
	}
	for _, step := range steps {
		if !slices.Contains(kinds, step.kind) || step.n <= 0 {
			continue
		}
		n, err := step.fn(ctx, step.n)
		res[step.kind] = n
		if err != nil {
			return res, fmt.Errorf("generate %s: %w", step.kind, err)
		}
		g.logger.Info("Generated example data", zap.String("kind", step.kind), zap.Int("count", n))
	}
	return res, nil
}

// addUsers skips usernames that already exist
func (g *ExampleDataGenerator) addUsers(ctx context.Context, n int) (int, error) {
	created := 0
	for i := 1; i <= n; i++ {
		username := fmt.Sprintf("ExampleUser_%d", i)
		if _, err := g.users.FindByUsername(ctx, username); err == nil {
			continue
		} else if !shared.IsNotFound(err) {
			return created, err
		}
		u, err := identity.NewUser(username, fmt.Sprintf("user%d@notreal.example", i), examplePassword)
		if err != nil {
			return created, err
		}
		if err := u.SetName(g.faker.FirstName(), g.faker.LastName()); err != nil {
			return created, err
		}
		if err := g.users.Create(ctx, u); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (g *ExampleDataGenerator) addGrants(ctx context.Context, n int) (int, error) {
	existing, err := g.grants.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	offset := len(existing)
	for i := 1; i <= n; i++ {
		k := offset + i
		grant, err := tracker.NewGrant(
			fmt.Sprintf("Grant number %d", k),
			fmt.Sprintf("ExampleG%d", k),
			fmt.Sprintf("exampleg%d", k),
			g.faker.Sentence(12),
		)
		if err != nil {
			return i - 1, err
		}
		if err := g.grants.Create(ctx, grant); err != nil {
			return i - 1, err
		}
	}
	return n, nil
}

func (g *ExampleDataGenerator) addTopics(ctx context.Context, n int) (int, error) {
	grants, err := g.grants.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(grants) == 0 {
		return 0, shared.NewDomainError("VALIDATION_ERROR", "Topics need at least one grant")
	}
	for i := 1; i <= n; i++ {
		grant := grants[g.faker.Number(0, len(grants)-1)]
		topic, err := tracker.NewTopic(grant.ID, fmt.Sprintf("Topic number %d", i))
		if err != nil {
			return i - 1, err
		}
		topic.Description = g.faker.Sentence(15)
		topic.FormDescription = "This description is shown to users who enter tickets for this topic."
		topic.OpenForTickets = g.faker.Bool()
		topic.TicketMedia = g.faker.Bool()
		topic.TicketExpenses = g.faker.Bool()
		topic.TicketPreexpenses = g.faker.Bool()
		if err := g.topics.Create(ctx, topic); err != nil {
			return i - 1, err
		}
	}
	return n, nil
}

func (g *ExampleDataGenerator) addSubtopics(ctx context.Context, n int) (int, error) {
	topics, err := g.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return 0, err
	}
	if len(topics) == 0 {
		return 0, shared.NewDomainError("VALIDATION_ERROR", "Subtopics need at least one topic")
	}
	for i := 1; i <= n; i++ {
		topic := topics[g.faker.Number(0, len(topics)-1)]
		sub, err := tracker.NewSubtopic(topic.ID, fmt.Sprintf("Subtopic number %d", i))
		if err != nil {
			return i - 1, err
		}
		sub.Description = "Description shown to users who enter tickets for this subtopic"
		if err := g.subtopics.Create(ctx, sub); err != nil {
			return i - 1, err
		}
	}
	return n, nil
}

func (g *ExampleDataGenerator) addTickets(ctx context.Context, n int) (int, error) {
	users, err := g.allUsers(ctx)
	if err != nil {
		return 0, err
	}
	topics, err := g.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return 0, err
	}
	if len(users) == 0 || len(topics) == 0 {
		return 0, shared.NewDomainError("VALIDATION_ERROR", "Tickets need at least one user and one topic")
	}
	subtopics, err := g.subtopics.FindAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	byTopic := make(map[int64][]*tracker.Subtopic)
	for _, s := range subtopics {
		byTopic[s.TopicID] = append(byTopic[s.TopicID], s)
	}

	for i := 1; i <= n; i++ {
		topic := topics[g.faker.Number(0, len(topics)-1)]
		user := users[g.faker.Number(0, len(users)-1)]
		t, err := tracker.NewTicket(topic, user, fmt.Sprintf("Example ticket number %d", i))
		if err != nil {
			return i - 1, err
		}
		if subs := byTopic[topic.ID]; len(subs) > 0 {
			id := subs[g.faker.Number(0, len(subs)-1)].ID
			t.SubtopicID = &id
		}
		t.Created = g.pastDate()
		t.Updated = t.Created
		event := g.pastDate()
		t.EventDate = &event
		rating := g.faker.Number(0, 100)
		t.RatingPercentage = &rating
		t.MandatoryReport = g.faker.Bool()
		t.Description = "Space for further notes. If you're entering a trip tell us where did you go and what you did there."
		t.SupervisorNotes = "This space is for notes of project supervisors and accounting staff."
		if err := g.tickets.Create(ctx, t); err != nil {
			return i - 1, err
		}
	}
	return n, nil
}

// pastDate returns a date within the three years before the current one
func (g *ExampleDataGenerator) pastDate() time.Time {
	year := g.now().Year()
	start := time.Date(year-3, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year-1, time.December, 28, 23, 59, 0, 0, time.UTC)
	return g.faker.DateRange(start, end)
}

func (g *ExampleDataGenerator) allUsers(ctx context.Context) ([]*identity.User, error) {
	var out []*identity.User
	for page := 1; ; page++ {
		users, total, err := g.users.FindAll(ctx, identity.UserFilter{Page: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		out = append(out, users...)
		if len(users) == 0 || int64(len(out)) >= total {
			return out, nil
		}
	}
}

// ErrNoExampleKinds is returned when the filters leave nothing to generate
var ErrNoExampleKinds = errors.New("no example data kinds selected")
