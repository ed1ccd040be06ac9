package task

import (
	"testing"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseEnumsFoldCase(t *testing.T) {
	p, err := ParsePriority(" URGENT ")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	st, err := ParseStatus("Snoozed")
	require.NoError(t, err)
	assert.Equal(t, StatusSnoozed, st)

	_, err = ParsePriority("asap")
	assert.Error(t, err)
	_, err = ParseStatus("done")
	assert.Error(t, err)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, ClampConfidence(-4))
	assert.Equal(t, 55, ClampConfidence(55))
	assert.Equal(t, 100, ClampConfidence(101))
}

func TestCreateInputDefaults(t *testing.T) {
	spec, err := CreateInput{Title: "  Call mum "}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Call mum", spec.Title)
	assert.Equal(t, PriorityMedium, spec.Priority)
	assert.Equal(t, StatusPending, spec.Status)
	assert.Equal(t, 0, spec.ParserConfidence)
	assert.NotNil(t, spec.SemanticMetadata)
	assert.Empty(t, spec.SemanticMetadata)
}

func TestCreateInputReportsEveryField(t *testing.T) {
	_, err := CreateInput{
		Title:          "",
		Priority:       "whenever",
		ScheduledStart: "2026-03-07T10:00:00Z",
		ScheduledEnd:   "2026-03-07T09:00:00Z",
		DueDate:        "friday",
	}.Validate()

	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	fields := map[string]string{}
	for _, fe := range ve.Fields {
		fields[fe.Field] = fe.Reason
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "dueDate")
	assert.Equal(t, "must be after scheduledStart", fields["scheduledEnd"])
}

func TestNormalizeUsesPrefix(t *testing.T) {
	var f apperr.Fields
	CreateInput{Title: ""}.Normalize(&f, "blocks[1].task")
	require.Len(t, f, 1)
	assert.Equal(t, "blocks[1].task.title", f[0].Field)
}

func TestUpdateInputApply(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	base := Task{Title: "Run", Priority: PriorityLow, Status: StatusPending, ScheduledStart: &start, ScheduledEnd: &end}

	t.Run("empty update is rejected", func(t *testing.T) {
		tk := base
		err := UpdateInput{}.Apply(&tk)
		_, ok := apperr.AsValidation(err)
		assert.True(t, ok)
	})

	t.Run("merged schedule is checked", func(t *testing.T) {
		tk := base
		err := UpdateInput{ScheduledStart: ptr("2026-03-07T11:00:00Z")}.Apply(&tk)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "scheduledEnd", ve.Fields[0].Field)
		assert.True(t, tk.ScheduledStart.Equal(start), "task must be untouched on failure")
	})

	t.Run("partial update merges", func(t *testing.T) {
		tk := base
		err := UpdateInput{Priority: ptr("High"), ParserConfidence: ptr(-3), ScheduledEnd: ptr("")}.Apply(&tk)
		require.NoError(t, err)
		assert.Equal(t, PriorityHigh, tk.Priority)
		assert.Equal(t, 0, tk.ParserConfidence)
		assert.Nil(t, tk.ScheduledEnd)
		assert.Equal(t, "Run", tk.Title)
	})
}
