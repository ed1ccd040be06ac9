package task

import (
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/internal/validate"
	"github.com/GoCodeAlone/dayplan/meta"
)

// Spec is a validated set of fields for a new task.
type Spec struct {
	Title            string
	Description      *string
	Priority         Priority
	Status           Status
	DueDate          *time.Time
	ScheduledStart   *time.Time
	ScheduledEnd     *time.Time
	RawInput         string
	ParserConfidence int
	SemanticMetadata meta.Map
}

// CreateInput is the wire payload for a new task. Priority defaults to
// medium, status to pending and metadata to an empty map.
type CreateInput struct {
	Title            string   `json:"title"`
	Description      *string  `json:"description,omitempty"`
	Priority         string   `json:"priority,omitempty"`
	Status           string   `json:"status,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`
	ScheduledStart   string   `json:"scheduledStart,omitempty"`
	ScheduledEnd     string   `json:"scheduledEnd,omitempty"`
	RawInput         string   `json:"rawInput,omitempty"`
	ParserConfidence *int     `json:"parserConfidence,omitempty"`
	SemanticMetadata meta.Map `json:"semanticMetadata,omitempty"`
}

// Validate checks a standalone create payload.
func (in CreateInput) Validate() (Spec, error) {
	var f apperr.Fields
	spec := in.Normalize(&f, "")
	return spec, f.Err()
}

// Normalize checks in, recording failures under prefix (e.g. "blocks[1].task"),
// and returns the normalized spec.
func (in CreateInput) Normalize(f *apperr.Fields, prefix string) Spec {
	spec := Spec{
		Title:            validate.Title(f, apperr.Path(prefix, "title"), in.Title),
		Description:      validate.Text(f, apperr.Path(prefix, "description"), in.Description),
		Priority:         PriorityMedium,
		Status:           StatusPending,
		DueDate:          validate.OptionalTimestamp(f, apperr.Path(prefix, "dueDate"), in.DueDate),
		ScheduledStart:   validate.OptionalTimestamp(f, apperr.Path(prefix, "scheduledStart"), in.ScheduledStart),
		ScheduledEnd:     validate.OptionalTimestamp(f, apperr.Path(prefix, "scheduledEnd"), in.ScheduledEnd),
		RawInput:         in.RawInput,
		SemanticMetadata: in.SemanticMetadata,
	}
	if in.Priority != "" {
		p, err := ParsePriority(in.Priority)
		if err != nil {
			f.Add(apperr.Path(prefix, "priority"), err.Error())
		}
		spec.Priority = p
	}
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			f.Add(apperr.Path(prefix, "status"), err.Error())
		}
		spec.Status = st
	}
	if in.ParserConfidence != nil {
		spec.ParserConfidence = ClampConfidence(*in.ParserConfidence)
	}
	if spec.SemanticMetadata == nil {
		spec.SemanticMetadata = meta.Map{}
	}
	validate.Ordered(f, apperr.Path(prefix, "scheduledEnd"), "scheduledStart", spec.ScheduledStart, spec.ScheduledEnd)
	return spec
}

// UpdateInput is a partial task update. Nil fields are left unchanged; an
// empty string clears the optional date fields and the description.
type UpdateInput struct {
	Title            *string  `json:"title,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Priority         *string  `json:"priority,omitempty"`
	Status           *string  `json:"status,omitempty"`
	DueDate          *string  `json:"dueDate,omitempty"`
	ScheduledStart   *string  `json:"scheduledStart,omitempty"`
	ScheduledEnd     *string  `json:"scheduledEnd,omitempty"`
	ParserConfidence *int     `json:"parserConfidence,omitempty"`
	SemanticMetadata meta.Map `json:"semanticMetadata,omitempty"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Priority == nil && in.Status == nil &&
		in.DueDate == nil && in.ScheduledStart == nil && in.ScheduledEnd == nil &&
		in.ParserConfidence == nil && in.SemanticMetadata == nil
}

// Apply validates in and merges it into t. t is only modified when the
// merged result is valid; the schedule rule is checked on merged values.
func (in UpdateInput) Apply(t *Task) error {
	if in.empty() {
		return apperr.Invalid("body", "no fields to update")
	}
	var f apperr.Fields
	next := *t

	if in.Title != nil {
		next.Title = validate.Title(&f, "title", *in.Title)
	}
	if in.Description != nil {
		next.Description = validate.Text(&f, "description", in.Description)
	}
	if in.Priority != nil {
		p, err := ParsePriority(*in.Priority)
		if err != nil {
			f.Add("priority", err.Error())
		}
		next.Priority = p
	}
	if in.Status != nil {
		st, err := ParseStatus(*in.Status)
		if err != nil {
			f.Add("status", err.Error())
		}
		next.Status = st
	}
	if in.DueDate != nil {
		next.DueDate = validate.OptionalTimestamp(&f, "dueDate", *in.DueDate)
	}
	if in.ScheduledStart != nil {
		next.ScheduledStart = validate.OptionalTimestamp(&f, "scheduledStart", *in.ScheduledStart)
	}
	if in.ScheduledEnd != nil {
		next.ScheduledEnd = validate.OptionalTimestamp(&f, "scheduledEnd", *in.ScheduledEnd)
	}
	if in.ParserConfidence != nil {
		next.ParserConfidence = ClampConfidence(*in.ParserConfidence)
	}
	if in.SemanticMetadata != nil {
		next.SemanticMetadata = in.SemanticMetadata
	}
	validate.Ordered(&f, "scheduledEnd", "scheduledStart", next.ScheduledStart, next.ScheduledEnd)

	if err := f.Err(); err != nil {
		return err
	}
	*t = next
	return nil
}
