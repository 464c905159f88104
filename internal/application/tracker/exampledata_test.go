package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/testutil"
)

func TestSelectExampleKinds(t *testing.T) {
	tests := []struct {
		name    string
		only    string
		skip    string
		want    []string
		wantErr bool
	}{
		{name: "all", want: ExampleKinds},
		{name: "only", only: "grants, Topics", want: []string{"grants", "topics"}},
		{name: "skip", skip: "users,tickets", want: []string{"grants", "topics", "subtopics"}},
		{name: "only and skip", only: "grants,topics", skip: "topics", want: []string{"grants"}},
		{name: "unknown only", only: "widgets", wantErr: true},
		{name: "unknown skip", skip: "widgets", wantErr: true},
		{name: "nothing left", only: "users", skip: "users", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectExampleKinds(tt.only, tt.skip)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newExampleGenerator(f *testutil.Fixture) *ExampleDataGenerator {
	r := f.Repos
	return NewExampleDataGenerator(r.Users, r.Grants, r.Topics, r.Subtopics, r.Tickets, 42, nil)
}

func TestExampleDataGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("all kinds", func(t *testing.T) {
		f := testutil.NewFixture(t)
		gen := newExampleGenerator(f)
		counts := ExampleCounts{Users: 2, Grants: 2, Topics: 3, Subtopics: 4, Tickets: 5}

		res, err := gen.Generate(ctx, ExampleKinds, counts)
		require.NoError(t, err)
		assert.Equal(t, ExampleResult{"users": 2, "grants": 2, "topics": 3, "subtopics": 4, "tickets": 5}, res)

		grants, err := f.Repos.Grants.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, grants, 3)
		_, err = f.Repos.Grants.FindBySlug(ctx, "exampleg3")
		assert.NoError(t, err)

		u, err := f.Repos.Users.FindByUsername(ctx, "ExampleUser_1")
		require.NoError(t, err)
		assert.Equal(t, "user1@notreal.example", u.Email)
		assert.NotEmpty(t, u.FirstName)

		tickets, total, err := f.Repos.Tickets.FindAll(ctx, tracker.TicketFilter{PageSize: 50})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		for _, tk := range tickets {
			assert.Less(t, tk.Created.Year(), gen.now().Year())
			require.NotNil(t, tk.EventDate)
			require.NotNil(t, tk.RatingPercentage)
			assert.LessOrEqual(t, *tk.RatingPercentage, 100)
		}
	})

	t.Run("existing users are skipped", func(t *testing.T) {
		f := testutil.NewFixture(t)
		gen := newExampleGenerator(f)
		only := []string{ExampleUsers}

		_, err := gen.Generate(ctx, only, ExampleCounts{Users: 1})
		require.NoError(t, err)
		res, err := gen.Generate(ctx, only, ExampleCounts{Users: 2})
		require.NoError(t, err)
		assert.Equal(t, 1, res[ExampleUsers])
	})

	t.Run("subtopics without topics", func(t *testing.T) {
		f := testutil.NewFixture(t)
		require.NoError(t, f.Repos.Subtopics.Delete(ctx, f.Subtopic.ID))
		require.NoError(t, f.Repos.Topics.Delete(ctx, f.Topic.ID))

		_, err := newExampleGenerator(f).Generate(ctx, []string{ExampleSubtopics}, ExampleCounts{Subtopics: 1})
		assert.Error(t, err)
	})
}
