package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/internal/validate"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/task"
)

// BlockInput is the wire payload for one block. When both TaskID and Task
// are given, TaskID wins and Task is ignored.
type BlockInput struct {
	Title      *string           `json:"title,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Location   *string           `json:"location,omitempty"`
	StartTS    string            `json:"startTs"`
	EndTS      string            `json:"endTs"`
	Completed  bool              `json:"completed,omitempty"`
	OrderIndex *int              `json:"orderIndex,omitempty"`
	TaskID     *string           `json:"taskId,omitempty"`
	Task       *task.CreateInput `json:"task,omitempty"`
}

// BlockSpec is a validated block entry. Path is the payload prefix used for
// errors found later (e.g. an unowned taskId).
type BlockSpec struct {
	Path       string
	Title      string
	Notes      *string
	Location   *string
	Start      time.Time
	End        time.Time
	Completed  bool
	OrderIndex *int
	Ref        TaskRef
}

// Validate checks a single block payload.
func (in BlockInput) Validate() (BlockSpec, error) {
	var f apperr.Fields
	spec := in.Normalize(&f, "")
	return spec, f.Err()
}

// Normalize checks in, recording failures under prefix.
func (in BlockInput) Normalize(f *apperr.Fields, prefix string) BlockSpec {
	spec := BlockSpec{
		Path:      prefix,
		Title:     validate.OptionalTitle(f, apperr.Path(prefix, "title"), in.Title),
		Notes:     validate.Text(f, apperr.Path(prefix, "notes"), in.Notes),
		Location:  validate.Text(f, apperr.Path(prefix, "location"), in.Location),
		Completed: in.Completed,
	}
	start, okStart := validate.RequiredTimestamp(f, apperr.Path(prefix, "startTs"), in.StartTS)
	end, okEnd := validate.RequiredTimestamp(f, apperr.Path(prefix, "endTs"), in.EndTS)
	if okStart && okEnd {
		validate.Ordered(f, apperr.Path(prefix, "endTs"), "startTs", &start, &end)
	}
	spec.Start, spec.End = start, end

	if in.OrderIndex != nil {
		validate.NonNegative(f, apperr.Path(prefix, "orderIndex"), *in.OrderIndex)
		idx := *in.OrderIndex
		spec.OrderIndex = &idx
	}

	switch {
	case in.TaskID != nil && strings.TrimSpace(*in.TaskID) != "":
		spec.Ref = ExistingTask{ID: strings.TrimSpace(*in.TaskID)}
	case in.Task != nil:
		spec.Ref = InlineTask{Spec: in.Task.Normalize(f, apperr.Path(prefix, "task"))}
	}
	return spec
}

// CreateInput is the wire payload for a new plan with its blocks.
type CreateInput struct {
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	IsTemplate  bool         `json:"isTemplate,omitempty"`
	Metadata    meta.Map     `json:"metadata,omitempty"`
	Blocks      []BlockInput `json:"blocks"`
}

// Spec is a validated plan creation request.
type Spec struct {
	Title       string
	Description *string
	IsTemplate  bool
	Metadata    meta.Map
	Blocks      []BlockSpec
}

// Validate checks the plan and every block, reporting all failures at once.
// Block fields are reported as blocks[i].<field>.
func (in CreateInput) Validate() (Spec, error) {
	var f apperr.Fields
	spec := Spec{
		Title:       validate.Title(&f, "title", in.Title),
		Description: validate.Text(&f, "description", in.Description),
		IsTemplate:  in.IsTemplate,
		Metadata:    in.Metadata,
	}
	if spec.Metadata == nil {
		spec.Metadata = meta.Map{}
	}
	if len(in.Blocks) == 0 {
		f.Add("blocks", "at least one block is required")
	}
	for i, b := range in.Blocks {
		spec.Blocks = append(spec.Blocks, b.Normalize(&f, fmt.Sprintf("blocks[%d]", i)))
	}
	return spec, f.Err()
}

// UpdateInput is a partial plan update.
type UpdateInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsTemplate  *bool    `json:"isTemplate,omitempty"`
	Metadata    meta.Map `json:"metadata,omitempty"`
}

// Apply validates in and merges it into p.
func (in UpdateInput) Apply(p *Plan) error {
	if in.Title == nil && in.Description == nil && in.IsTemplate == nil && in.Metadata == nil {
		return apperr.Invalid("body", "no fields to update")
	}
	var f apperr.Fields
	next := *p
	if in.Title != nil {
		next.Title = validate.Title(&f, "title", *in.Title)
	}
	if in.Description != nil {
		next.Description = validate.Text(&f, "description", in.Description)
	}
	if in.IsTemplate != nil {
		next.IsTemplate = *in.IsTemplate
	}
	if in.Metadata != nil {
		next.Metadata = in.Metadata
	}
	if err := f.Err(); err != nil {
		return err
	}
	*p = next
	return nil
}

// BlockUpdateInput is a partial block update. TaskID "" unlinks the task.
type BlockUpdateInput struct {
	Title      *string `json:"title,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Location   *string `json:"location,omitempty"`
	StartTS    *string `json:"startTs,omitempty"`
	EndTS      *string `json:"endTs,omitempty"`
	Completed  *bool   `json:"completed,omitempty"`
	OrderIndex *int    `json:"orderIndex,omitempty"`
	TaskID     *string `json:"taskId,omitempty"`
}

// LinksTask reports whether the update points the block at a (new) task id
// whose ownership must be checked.
func (in BlockUpdateInput) LinksTask() (string, bool) {
	if in.TaskID == nil {
		return "", false
	}
	id := strings.TrimSpace(*in.TaskID)
	return id, id != ""
}

// Apply validates in and merges it into b. The start/end rule is checked on
// the merged values.
func (in BlockUpdateInput) Apply(b *Block) error {
	if in.Title == nil && in.Notes == nil && in.Location == nil && in.StartTS == nil &&
		in.EndTS == nil && in.Completed == nil && in.OrderIndex == nil && in.TaskID == nil {
		return apperr.Invalid("body", "no fields to update")
	}
	var f apperr.Fields
	next := *b
	if in.Title != nil {
		next.Title = validate.Title(&f, "title", *in.Title)
	}
	if in.Notes != nil {
		next.Notes = validate.Text(&f, "notes", in.Notes)
	}
	if in.Location != nil {
		next.Location = validate.Text(&f, "location", in.Location)
	}
	okTimes := true
	if in.StartTS != nil {
		ts, ok := validate.RequiredTimestamp(&f, "startTs", *in.StartTS)
		next.StartTS, okTimes = ts, okTimes && ok
	}
	if in.EndTS != nil {
		ts, ok := validate.RequiredTimestamp(&f, "endTs", *in.EndTS)
		next.EndTS, okTimes = ts, okTimes && ok
	}
	if okTimes {
		validate.Ordered(&f, "endTs", "startTs", &next.StartTS, &next.EndTS)
	}
	if in.Completed != nil {
		next.Completed = *in.Completed
	}
	if in.OrderIndex != nil {
		validate.NonNegative(&f, "orderIndex", *in.OrderIndex)
		next.OrderIndex = *in.OrderIndex
	}
	if in.TaskID != nil {
		if id, ok := in.LinksTask(); ok {
			next.TaskID = &id
		} else {
			next.TaskID = nil
		}
	}
	if err := f.Err(); err != nil {
		return err
	}
	*b = next
	return nil
}
