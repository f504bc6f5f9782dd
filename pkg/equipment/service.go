// Package equipment enforces the read and write rules for Equipment records:
// internal notes are redacted for anonymous callers and every mutation requires
// an authenticated caller. Any authenticated caller may change any record.
package equipment

import (
	"context"
	"fmt"

	"equipapi/models"
	"equipapi/pkg/apperr"
	"equipapi/pkg/logging"
)

// Repository is the persistent store of Equipment records.
type Repository interface {
	// List returns records in insertion order.
	List(ctx context.Context, f Filter) ([]models.Equipment, error)
	Get(ctx context.Context, id uint) (models.Equipment, error)
	Create(ctx context.Context, rec *models.Equipment) error
	Update(ctx context.Context, rec *models.Equipment) error
	Delete(ctx context.Context, id uint) error
}

type Service struct {
	repo Repository
	log  logging.Logger
}

func NewService(repo Repository, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{repo: repo, log: log.With("component", "equipment")}
}

func (s *Service) List(ctx context.Context, f Filter, authenticated bool) ([]View, error) {
	recs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return newViews(recs, authenticated), nil
}

func (s *Service) Get(ctx context.Context, id uint, authenticated bool) (View, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(rec, authenticated), nil
}

// Create stores a new record. Authorization is checked before validation.
func (s *Service) Create(ctx context.Context, in Input, authenticated bool) (View, error) {
	if !authenticated {
		return nil, apperr.ErrUnauthorized
	}
	var rec models.Equipment
	if err := in.apply(&rec, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	s.log.Info(ctx, "equipment created", "id", rec.ID)
	return NewView(rec, true), nil
}

// Update overwrites the supplied keys of record id and re-validates the merged
// record. Checks run in order: authorization, existence, validation.
func (s *Service) Update(ctx context.Context, id uint, in Input, authenticated bool) (View, error) {
	if !authenticated {
		return nil, apperr.ErrUnauthorized
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(&rec, false); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &rec); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "equipment updated", "id", rec.ID)
	return NewView(rec, true), nil
}

func (s *Service) Delete(ctx context.Context, id uint, authenticated bool) error {
	if !authenticated {
		return apperr.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "equipment deleted", "id", id)
	return nil
}
