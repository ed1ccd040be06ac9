package plan_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/internal/testutil"
	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/task"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

func at(hour int) string {
	return day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
}

func strptr(s string) *string { return &s }

func newComposer(t *testing.T) (*sqlx.DB, *plan.Composer) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db, plan.NewComposer(testutil.NewTestUoW(db))
}

func assertNoRows(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range []string{"task", "plans", "plan_blocks", "audits"} {
		assert.Equal(t, 0, testutil.CountRows(t, db, table), table)
	}
}

func TestComposer_SaturdayGym(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()

	spec, err := plan.CreateInput{
		Title:  "Saturday",
		Blocks: []plan.BlockInput{{StartTS: at(9), EndTS: at(10), Task: &task.CreateInput{Title: "Gym"}}},
	}.Validate()
	require.NoError(t, err)

	out, err := c.CreatePlan(ctx, "u1", spec)
	require.NoError(t, err)
	require.NotEmpty(t, out.Plan.ID)
	require.Len(t, out.Blocks, 1)
	require.Len(t, out.Tasks, 1)

	block := out.Blocks[0]
	require.NotNil(t, block.TaskID)
	assert.Equal(t, out.Tasks[0].ID, *block.TaskID)
	assert.Equal(t, "Gym", block.Title)
	assert.Equal(t, 0, block.OrderIndex)

	gym, err := task.NewRepo(db).Get(ctx, "u1", *block.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "Gym", gym.Title)
	assert.Equal(t, task.PriorityMedium, gym.Priority)
	assert.Equal(t, task.StatusPending, gym.Status)
	assert.Equal(t, 0, gym.ParserConfidence)
	assert.Empty(t, gym.SemanticMetadata)

	fetched, err := plan.NewRepo(db).ListBlocks(ctx, out.Plan.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, block.ID, fetched[0].ID)
	assert.Equal(t, *block.TaskID, *fetched[0].TaskID)
	assert.True(t, fetched[0].StartTS.Equal(day.Add(9*time.Hour)))

	assert.Equal(t, 1, testutil.CountRows(t, db, "audits"))
}

func TestComposer_RollsBackWhenAnInlineTaskInsertFails(t *testing.T) {
	const n = 4
	db := testutil.NewTestDB(t)
	injected := errors.New("disk full")
	// Inline tasks are the first writes, so exec N-1 is the (N-1)th task insert.
	c := plan.NewComposer(&testutil.FailOnNthExecUoW{DB: db, FailOn: n - 1, Err: injected})

	in := plan.CreateInput{Title: "Busy day"}
	for i := 0; i < n; i++ {
		in.Blocks = append(in.Blocks, plan.BlockInput{
			StartTS: at(8 + i), EndTS: at(9 + i),
			Task: &task.CreateInput{Title: fmt.Sprintf("step %d", i)},
		})
	}
	spec, err := in.Validate()
	require.NoError(t, err)

	_, err = c.CreatePlan(context.Background(), "u1", spec)
	require.ErrorIs(t, err, injected)
	assertNoRows(t, db)
}

func TestComposer_RollsBackWhenABlockInsertFails(t *testing.T) {
	db := testutil.NewTestDB(t)
	injected := errors.New("constraint")
	// 1 inline task, 1 plan, then the second block insert.
	c := plan.NewComposer(&testutil.FailOnNthExecUoW{DB: db, FailOn: 4, Err: injected})

	spec, err := plan.CreateInput{
		Title: "Two blocks",
		Blocks: []plan.BlockInput{
			{StartTS: at(8), EndTS: at(9), Task: &task.CreateInput{Title: "Read"}},
			{StartTS: at(9), EndTS: at(10)},
		},
	}.Validate()
	require.NoError(t, err)

	_, err = c.CreatePlan(context.Background(), "u1", spec)
	require.ErrorIs(t, err, injected)
	assertNoRows(t, db)
}

func TestComposer_RejectsTasksTheCallerDoesNotOwn(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()
	tasks := task.NewRepo(db)

	mine, err := tasks.Create(ctx, "u1", task.Spec{Title: "Mine"})
	require.NoError(t, err)
	theirs, err := tasks.Create(ctx, "u2", task.Spec{Title: "Theirs"})
	require.NoError(t, err)

	spec, err := plan.CreateInput{
		Title: "Mixed",
		Blocks: []plan.BlockInput{
			{StartTS: at(8), EndTS: at(9), TaskID: &mine.ID},
			{StartTS: at(9), EndTS: at(10), TaskID: &theirs.ID},
			{StartTS: at(10), EndTS: at(11), Task: &task.CreateInput{Title: "Inline"}},
		},
	}.Validate()
	require.NoError(t, err)

	_, err = c.CreatePlan(ctx, "u1", spec)
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "blocks[1].taskId", ve.Fields[0].Field)

	assert.Equal(t, 2, testutil.CountRows(t, db, "task"))
	assert.Equal(t, 0, testutil.CountRows(t, db, "plans"))
	assert.Equal(t, 0, testutil.CountRows(t, db, "plan_blocks"))
}

func TestComposer_TitleFallbacksAndTaskIDPrecedence(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()
	existing, err := task.NewRepo(db).Create(ctx, "u1", task.Spec{Title: "Laundry"})
	require.NoError(t, err)

	spec, err := plan.CreateInput{
		Title: "Chores",
		Blocks: []plan.BlockInput{
			{StartTS: at(8), EndTS: at(9), TaskID: &existing.ID, Task: &task.CreateInput{Title: "ignored"}},
			{StartTS: at(9), EndTS: at(10)},
			{StartTS: at(10), EndTS: at(11), Title: strptr("Lunch"), Task: &task.CreateInput{Title: "Cook"}},
		},
	}.Validate()
	require.NoError(t, err)

	out, err := c.CreatePlan(ctx, "u1", spec)
	require.NoError(t, err)
	require.Len(t, out.Blocks, 3)
	assert.Equal(t, "Laundry", out.Blocks[0].Title)
	assert.Equal(t, existing.ID, *out.Blocks[0].TaskID)
	assert.Equal(t, plan.DefaultBlockTitle, out.Blocks[1].Title)
	assert.Nil(t, out.Blocks[1].TaskID)
	assert.Equal(t, "Lunch", out.Blocks[2].Title)
	assert.Len(t, out.Tasks, 1)
	assert.Equal(t, 2, testutil.CountRows(t, db, "task"))
}

func TestComposer_OrderRoundTrip(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()

	// Start times run backwards so only the order index explains the result.
	in := plan.CreateInput{Title: "Ordered"}
	for i := 0; i < 5; i++ {
		in.Blocks = append(in.Blocks, plan.BlockInput{Title: strptr(fmt.Sprintf("b%d", i)), StartTS: at(20 - i), EndTS: at(21 - i)})
	}
	spec, err := in.Validate()
	require.NoError(t, err)
	out, err := c.CreatePlan(ctx, "u1", spec)
	require.NoError(t, err)

	blocks, err := plan.NewRepo(db).ListBlocks(ctx, out.Plan.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	for i, b := range blocks {
		assert.Equal(t, fmt.Sprintf("b%d", i), b.Title)
		assert.Equal(t, i, b.OrderIndex)
	}
}

func TestComposer_AddBlocksContinuesOrder(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()

	spec, err := plan.CreateInput{
		Title:  "Morning",
		Blocks: []plan.BlockInput{{StartTS: at(7), EndTS: at(8)}, {StartTS: at(8), EndTS: at(9)}},
	}.Validate()
	require.NoError(t, err)
	out, err := c.CreatePlan(ctx, "u1", spec)
	require.NoError(t, err)

	extra, err := plan.BlockInput{StartTS: at(9), EndTS: at(10), Task: &task.CreateInput{Title: "Emails"}}.Validate()
	require.NoError(t, err)
	added, err := c.AddBlocks(ctx, "u1", out.Plan.ID, []plan.BlockSpec{extra})
	require.NoError(t, err)
	require.Len(t, added.Blocks, 1)
	assert.Equal(t, 2, added.Blocks[0].OrderIndex)
	assert.Equal(t, "Emails", added.Blocks[0].Title)

	_, err = c.AddBlocks(ctx, "u2", out.Plan.ID, []plan.BlockSpec{extra})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 3, testutil.CountRows(t, db, "plan_blocks"))
	assert.Equal(t, 1, testutil.CountRows(t, db, "task"))
}

func TestComposer_EqualOrderIndexesTieBreakOnStart(t *testing.T) {
	db, c := newComposer(t)
	ctx := context.Background()
	zero := 0

	spec, err := plan.CreateInput{
		Title: "Collisions",
		Blocks: []plan.BlockInput{
			{Title: strptr("late"), StartTS: at(11), EndTS: at(12), OrderIndex: &zero},
			{Title: strptr("early"), StartTS: at(9), EndTS: at(10), OrderIndex: &zero},
		},
	}.Validate()
	require.NoError(t, err)
	out, err := c.CreatePlan(ctx, "u1", spec)
	require.NoError(t, err)

	blocks, err := plan.NewRepo(db).ListBlocks(ctx, out.Plan.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "early", blocks[0].Title)
	assert.Equal(t, "late", blocks[1].Title)
}
