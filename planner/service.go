// Package planner is the owner-scoped operation layer over tasks, plans and
// blocks. Both the HTTP API and the assistant's tools call into it.
//
// Every operation resolves the caller from the context before touching the
// store, writes its audit row in the same transaction as the mutation and
// publishes change events only after commit.
package planner

import (
	"context"
	"log/slog"

	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/meta"
	"github.com/GoCodeAlone/dayplan/plan"
	"github.com/GoCodeAlone/dayplan/store"
)

// Service implements the planning operations.
type Service struct {
	db       store.DBTX
	uow      store.UnitOfWork
	composer *plan.Composer
	bus      comms.Bus
	logger   *slog.Logger
}

// New builds a Service. db serves reads; uow runs every write. bus may be
// nil when nobody listens for change events.
func New(db store.DBTX, uow store.UnitOfWork, bus comms.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		uow:      uow,
		composer: plan.NewComposer(uow),
		bus:      bus,
		logger:   logger,
	}
}

func (s *Service) caller(ctx context.Context) (string, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func audit(ctx context.Context, tx store.DBTX, userID, entity, id string, action comms.Action, payload meta.Map) error {
	return store.RecordAudit(ctx, tx, store.AuditEntry{
		UserID:   userID,
		Entity:   entity,
		EntityID: id,
		Action:   string(action),
		Payload:  payload,
	})
}

// publish announces committed changes. Delivery failures are logged and
// never fail the operation.
func (s *Service) publish(ctx context.Context, events ...*comms.Event) {
	if s.bus == nil {
		return
	}
	for _, ev := range events {
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish change event",
				slog.String("entity", ev.Entity),
				slog.String("id", ev.EntityID),
				slog.Any("err", err))
		}
	}
}

func event(userID, entity, id string, action comms.Action) *comms.Event {
	return &comms.Event{UserID: userID, Entity: entity, EntityID: id, Action: action}
}

// Activity returns the caller's most recent audit entries, newest first.
func (s *Service) Activity(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	userID, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListAudits(ctx, s.db, userID, limit)
}
