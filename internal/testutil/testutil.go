// Package testutil provides common test utilities for the tracker.
// It sets up databases, seed data and gin test contexts shared by the
// application and HTTP tests.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/persistence"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database for testing.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// NewTestDB opens a private in-memory sqlite database with the full
// schema. It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := persistence.NewSQLiteDatabase(":memory:", nil)
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// Repos bundles the gorm repositories over one database
type Repos = persistence.Repositories

// NewRepos creates every repository over db
func NewRepos(db *gorm.DB) *Repos {
	return persistence.NewRepositories(db)
}

// Fixture is a seeded database: a requester, a topic admin, a supervisor
// and one grant with one topic and subtopic
type Fixture struct {
	DB         *gorm.DB
	Repos      *Repos
	Requester  *identity.User
	Admin      *identity.User
	Supervisor *identity.User
	Grant      *tracker.Grant
	Topic      *tracker.Topic
	Subtopic   *tracker.Subtopic
}

// NewFixture seeds a fresh database
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	db := NewTestDB(t)
	f := &Fixture{DB: db, Repos: NewRepos(db)}
	ctx := context.Background()

	f.Requester = f.CreateUser(t, "requester")
	f.Admin = f.CreateUser(t, "topicadmin")
	f.Supervisor = f.CreateUser(t, "supervisor", identity.PermSupervisor)

	grant, err := tracker.NewGrant("Community support", "CS", "community", "")
	require.NoError(t, err)
	require.NoError(t, f.Repos.Grants.Create(ctx, grant))
	f.Grant = grant

	topic, err := tracker.NewTopic(grant.ID, "Photography")
	require.NoError(t, err)
	topic.AdminIDs = []int64{f.Admin.ID}
	require.NoError(t, f.Repos.Topics.Create(ctx, topic))
	f.Topic, err = f.Repos.Topics.FindByID(ctx, topic.ID)
	require.NoError(t, err)

	subtopic, err := tracker.NewSubtopic(topic.ID, "Castles")
	require.NoError(t, err)
	require.NoError(t, f.Repos.Subtopics.Create(ctx, subtopic))
	f.Subtopic = subtopic
	return f
}

// CreateUser creates an active user with english email language
func (f *Fixture) CreateUser(t *testing.T, username string, perms ...identity.Permission) *identity.User {
	t.Helper()
	ctx := context.Background()
	u, err := identity.NewUser(username, username+"@example.org", "password123")
	require.NoError(t, err)
	u.Permissions = append(u.Permissions, perms...)
	require.NoError(t, f.Repos.Users.Create(ctx, u))

	prefs, err := f.Repos.Profiles.FindPreferences(ctx, u.ID)
	require.NoError(t, err)
	prefs.EmailLanguage = "en"
	require.NoError(t, f.Repos.Profiles.SavePreferences(ctx, prefs))
	return u
}

// CreateTicket stores a ticket requested by the fixture requester in the
// fixture topic and returns it fully loaded
func (f *Fixture) CreateTicket(t *testing.T, name string) *tracker.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket, err := tracker.NewTicket(f.Topic, f.Requester, name)
	require.NoError(t, err)
	ticket.Touch(nil, time.Now())
	require.NoError(t, f.Repos.Tickets.Create(ctx, ticket))
	loaded, err := f.Repos.Tickets.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	return loaded
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// SetUserID sets the authenticated user ID in the context.
func (tc *TestContext) SetUserID(id int64) {
	tc.Context.Set("user_id", id)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}
