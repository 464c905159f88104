package tracker

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	notifyapp "github.com/wikimedia/wikimedia-cz-tracker/internal/application/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

// mockNotifier records fired events
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Fire(ctx context.Context, in notifyapp.FireInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *mockNotifier) HasPending(ctx context.Context, ticketID int64, types ...notification.Type) (bool, error) {
	args := m.Called(ctx, ticketID, types)
	return args.Bool(0), args.Error(1)
}

func (m *mockNotifier) HasPendingText(ctx context.Context, t notification.Type, fragment string) (bool, error) {
	args := m.Called(ctx, t, fragment)
	return args.Bool(0), args.Error(1)
}

// newMockNotifier accepts any event and reports nothing pending
func newMockNotifier() *mockNotifier {
	m := &mockNotifier{}
	m.On("Fire", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("HasPending", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	m.On("HasPendingText", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	return m
}

// firedTypes lists the event types fired so far
func (m *mockNotifier) firedTypes() []notification.Type {
	var out []notification.Type
	for _, call := range m.Calls {
		if call.Method == "Fire" {
			out = append(out, call.Arguments.Get(1).(notifyapp.FireInput).Type)
		}
	}
	return out
}

// mockQueue records scheduled tasks
type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, name string, params any) error {
	args := m.Called(ctx, name, params)
	return args.Error(0)
}

func (m *mockQueue) EnqueueUnique(ctx context.Context, name string, params any) (bool, error) {
	args := m.Called(ctx, name, params)
	return args.Bool(0), args.Error(1)
}

// stubPages resolves titles from a fixed map
type stubPages map[string]int64

func (p stubPages) PageID(_ context.Context, title string) (int64, error) {
	if id, ok := p[title]; ok {
		return id, nil
	}
	return 0, context.DeadlineExceeded
}

// stepClock advances a minute on every reading
type stepClock struct {
	t time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func testSettings() Settings {
	return Settings{
		Currency:       "CZK",
		BaseURL:        "https://tracker.example.org",
		StatutoryText:  "I declare the trip took place.",
		ImportRowLimit: DefaultImportRowLimit,
		DocsPrefix:     "docs",
		MediaTemplate:  "Wikimedia ČR tracker",
		InfoTemplate:   "Information",
		ThumbWidth:     300,
		ArticleBase:    "https://commons.wikimedia.org/wiki/",
	}
}

func newTestTicketService(f *testutil.Fixture, n Notifier) *TicketService {
	r := f.Repos
	s := NewTicketService(r.Tickets, r.Topics, r.Subtopics, r.Signatures, r.Users, r.Profiles, testSettings(), nil)
	s.now = newStepClock().now
	if n != nil {
		s.SetNotifier(n)
	}
	return s
}

func newTestExpenseService(f *testutil.Fixture, n Notifier) *ExpenseService {
	s := NewExpenseService(f.Repos.Tickets, testSettings(), nil)
	if n != nil {
		s.SetNotifier(n)
	}
	return s
}

func newTestGrantService(f *testutil.Fixture) *GrantService {
	r := f.Repos
	return NewGrantService(r.Grants, r.Topics, r.Subtopics, r.Tickets, testSettings(), nil)
}

func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }
func int64Ptr(i int64) *int64    { return &i }
func intPtr(i int) *int          { return &i }
