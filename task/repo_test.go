package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/internal/testutil"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *task.Repo {
	t.Helper()
	return task.NewRepo(testutil.NewTestDB(t))
}

func mustCreate(t *testing.T, r *task.Repo, userID string, in task.CreateInput) *task.Task {
	t.Helper()
	spec, err := in.Validate()
	require.NoError(t, err)
	created, err := r.Create(context.Background(), userID, spec)
	require.NoError(t, err)
	return created
}

func TestRepo_CreateAndGet(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	desc := "Leg day"
	conf := 140

	created := mustCreate(t, r, "u1", task.CreateInput{
		Title:            "Gym",
		Description:      &desc,
		Priority:         "HIGH",
		DueDate:          "2026-03-07T18:00:00Z",
		ParserConfidence: &conf,
		SemanticMetadata: meta.Map{"tags": meta.Array(meta.String("health"))},
	})
	require.NotEmpty(t, created.ID)

	got, err := r.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gym", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Leg day", *got.Description)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, 100, got.ParserConfidence)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.ScheduledStart)
	tags, ok := got.SemanticMetadata["tags"].AsArray()
	require.True(t, ok)
	assert.Len(t, tags, 1)
	assert.False(t, got.Deleted)
}

func TestRepo_GetOtherOwnerIsNotFound(t *testing.T) {
	r := newRepo(t)
	created := mustCreate(t, r, "u1", task.CreateInput{Title: "Private"})

	_, err := r.Get(context.Background(), "u2", created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.Get(context.Background(), "u1", "no-such-id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepo_SoftDeleteVisibility(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	keep := mustCreate(t, r, "u1", task.CreateInput{Title: "Keep"})
	gone := mustCreate(t, r, "u1", task.CreateInput{Title: "Gone"})

	require.NoError(t, r.SoftDelete(ctx, "u1", gone.ID))
	require.NoError(t, r.SoftDelete(ctx, "u1", gone.ID))

	listed, err := r.List(ctx, "u1", task.Filter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, keep.ID, listed[0].ID)

	all, err := r.List(ctx, "u1", task.Filter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := r.Get(ctx, "u1", gone.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	assert.ErrorIs(t, r.SoftDelete(ctx, "u2", keep.ID), apperr.ErrNotFound)
}

func TestRepo_ListOrderAndFilter(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	mustCreate(t, r, "u1", task.CreateInput{Title: "low", Priority: "low"})
	mustCreate(t, r, "u1", task.CreateInput{Title: "urgent", Priority: "urgent"})
	mustCreate(t, r, "u1", task.CreateInput{Title: "done", Priority: "medium", Status: "completed"})
	mustCreate(t, r, "u2", task.CreateInput{Title: "someone else", Priority: "urgent"})

	listed, err := r.List(ctx, "u1", task.Filter{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "urgent", listed[0].Title)
	assert.Equal(t, "done", listed[1].Title)
	assert.Equal(t, "low", listed[2].Title)

	completed := task.StatusCompleted
	listed, err = r.List(ctx, "u1", task.Filter{Status: &completed})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "done", listed[0].Title)

	listed, err = r.List(ctx, "u1", task.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "done", listed[0].Title)
}

func TestRepo_Update(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := mustCreate(t, r, "u1", task.CreateInput{Title: "Draft"})

	title := "Final"
	status := "Completed"
	require.NoError(t, task.UpdateInput{Title: &title, Status: &status}.Apply(created))
	require.NoError(t, r.Update(ctx, created))

	got, err := r.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	created.UserID = "u2"
	assert.ErrorIs(t, r.Update(ctx, created), apperr.ErrNotFound)
}

func TestRepo_TitlesChecksOwnershipInOneQuery(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	a := mustCreate(t, r, "u1", task.CreateInput{Title: "A"})
	b := mustCreate(t, r, "u1", task.CreateInput{Title: "B"})
	foreign := mustCreate(t, r, "u2", task.CreateInput{Title: "C"})
	require.NoError(t, r.SoftDelete(ctx, "u1", b.ID))

	titles, err := r.Titles(ctx, "u1", []string{a.ID, b.ID, foreign.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{a.ID: "A", b.ID: "B"}, titles)

	empty, err := r.Titles(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
