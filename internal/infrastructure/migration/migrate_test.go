package migration

import (
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4/database/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	trackermigrations "github.com/wikimedia/wikimedia-cz-tracker/migrations"
)

var trackerSchema = fstest.MapFS{
	"1_create_tickets.up.sql":      {Data: []byte("CREATE TABLE tickets (id bigserial)")},
	"1_create_tickets.down.sql":    {Data: []byte("DROP TABLE tickets")},
	"2_create_media.up.sql":        {Data: []byte("CREATE TABLE media_info (id bigserial)")},
	"2_create_media.down.sql":      {Data: []byte("DROP TABLE media_info")},
	"3_add_ticket_rating.up.sql":   {Data: []byte("ALTER TABLE tickets ADD rating_percentage int")},
	"3_add_ticket_rating.down.sql": {Data: []byte("ALTER TABLE tickets DROP rating_percentage")},
}

func newStubMigrator(t *testing.T) (*Migrator, *stub.Stub) {
	t.Helper()
	driver, err := stub.WithInstance(nil, &stub.Config{})
	require.NoError(t, err)
	m, err := newMigrator(trackerSchema, "stub", driver, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, driver.(*stub.Stub)
}

func TestMigrator_UpAndDown(t *testing.T) {
	m, db := newStubMigrator(t)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)
	assert.Equal(t, []string{
		"CREATE TABLE tickets (id bigserial)",
		"CREATE TABLE media_info (id bigserial)",
		"ALTER TABLE tickets ADD rating_percentage int",
	}, db.MigrationSequence)

	t.Run("nothing pending is not an error", func(t *testing.T) {
		require.NoError(t, m.Up())
		assert.Len(t, db.MigrationSequence, 3)
	})

	t.Run("step back and go to a version", func(t *testing.T) {
		require.NoError(t, m.Steps(-2))
		version, _, err := m.Version()
		require.NoError(t, err)
		assert.EqualValues(t, 1, version)
		assert.Equal(t, "DROP TABLE media_info", string(db.LastRunMigration))

		require.NoError(t, m.GoTo(2))
		version, _, err = m.Version()
		require.NoError(t, err)
		assert.EqualValues(t, 2, version)
	})

	t.Run("down rolls everything back", func(t *testing.T) {
		require.NoError(t, m.Down())
		version, _, err := m.Version()
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.Equal(t, "DROP TABLE tickets", string(db.LastRunMigration))
	})
}

func TestMigrator_DirtySchema(t *testing.T) {
	m, db := newStubMigrator(t)
	require.NoError(t, m.Steps(1))
	require.NoError(t, db.SetVersion(2, true))

	err := m.Up()
	require.ErrorIs(t, err, ErrDirty)
	assert.Contains(t, err.Error(), "version 2")
	assert.Len(t, db.MigrationSequence, 1)

	require.NoError(t, m.Force(1))
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)
	assert.False(t, dirty)
}

func TestMigrator_EmbeddedTrackerSchema(t *testing.T) {
	driver, err := stub.WithInstance(nil, &stub.Config{})
	require.NoError(t, err)
	m, err := newMigrator(trackermigrations.FS, "stub", driver, nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Up())
	db := driver.(*stub.Stub)
	require.Len(t, db.MigrationSequence, 2)
	assert.Contains(t, db.MigrationSequence[0], "CREATE TABLE tickets")
	assert.Contains(t, db.MigrationSequence[1], "CREATE TABLE")
}
