package addresslist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// EntryInput is the editable part of a list entry. Capacity applies to
// whitelist entries only and defaults to 0.
type EntryInput struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Capacity *int   `json:"capacity,omitempty"`
}

// Service implements address list administration. It is safe for concurrent use.
type Service struct {
	repo   Repository
	canon  CanonicalizerSource
	locker Locker
	sink   audit.Sink
	now    func() time.Time
}

// NewService creates a list service. locker and sink may be nil.
func NewService(repo Repository, canon CanonicalizerSource, locker Locker, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Service{repo: repo, canon: canon, locker: locker, sink: sink, now: time.Now}
}

// Create adds an entry to the list.
func (s *Service) Create(ctx context.Context, ref string, kind domain.ListKind, in EntryInput) (*domain.ListEntry, error) {
	e, err := s.build(ctx, ref, kind, in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e.ID = uuid.New().String()
	e.CreatedAt, e.UpdatedAt = now, now

	err = s.withKeyLock(ctx, ref, e, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, ref, e); err != nil {
			return err
		}
		return s.repo.Insert(ctx, ref, e)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.EventListCreate, ref, e)
	return e, nil
}

// Update replaces the address fields (and capacity) of an entry and re-derives its key.
func (s *Service) Update(ctx context.Context, ref string, kind domain.ListKind, id string, in EntryInput) (*domain.ListEntry, error) {
	existing, err := s.repo.Get(ctx, ref, kind, id)
	if err != nil {
		return nil, err
	}
	e, err := s.build(ctx, ref, kind, in)
	if err != nil {
		return nil, err
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.now().UTC()

	err = s.withKeyLock(ctx, ref, e, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, ref, e); err != nil {
			return err
		}
		return s.repo.Update(ctx, ref, e)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.EventListUpdate, ref, e)
	return e, nil
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, ref string, kind domain.ListKind, id string) error {
	if err := s.repo.Delete(ctx, ref, kind, id); err != nil {
		return err
	}
	s.record(ctx, audit.EventListDelete, ref, &domain.ListEntry{ID: id, Kind: kind})
	return nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, ref string, kind domain.ListKind, id string) (*domain.ListEntry, error) {
	return s.repo.Get(ctx, ref, kind, id)
}

// List returns entries matching filter. Limit defaults to 50 and is capped at 500.
func (s *Service) List(ctx context.Context, ref string, kind domain.ListKind, filter ListFilter) ([]domain.ListEntry, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.State = strings.ToUpper(strings.TrimSpace(filter.State))
	return s.repo.List(ctx, ref, kind, filter)
}

// Normalize derives the key for raw fields exactly as a write would.
func (s *Service) Normalize(ctx context.Context, ref, address1, address2, city string) (domain.NormalizedKey, error) {
	return eligibility.NewNormalizer(s.canon.CanonicalizerFor(ref)).Normalize(ctx, address1, address2, city)
}

func (s *Service) build(ctx context.Context, ref string, kind domain.ListKind, in EntryInput) (*domain.ListEntry, error) {
	if _, err := domain.ParseListKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	addr := domain.Address{
		Address1: in.Address1,
		Address2: in.Address2,
		City:     in.City,
		State:    in.State,
		Zip:      in.Zip,
	}.Trimmed()
	if err := addr.ValidateLocation(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	capacity := 0
	if kind.HasCapacity() && in.Capacity != nil {
		capacity = *in.Capacity
		if capacity < 0 {
			return nil, fmt.Errorf("%w: capacity must be >= 0, got %d", ErrInvalidEntry, capacity)
		}
	}

	// A stored key must match what a check derives, so unlike the check
	// itself a write never falls back to raw values.
	key, err := s.Normalize(ctx, ref, addr.Address1, addr.Address2, addr.City)
	if err != nil {
		return nil, err
	}

	return &domain.ListEntry{
		Kind:         kind,
		Address1:     addr.Address1,
		Address2:     addr.Address2,
		City:         addr.City,
		State:        addr.State,
		Zip:          addr.Zip,
		NormAddress1: key.Address1,
		NormAddress2: key.Address2,
		NormCity:     key.City,
		Capacity:     capacity,
	}, nil
}

func (s *Service) ensureUnique(ctx context.Context, ref string, e *domain.ListEntry) error {
	other, err := s.repo.FindByKey(ctx, ref, e.Kind, e.Key(), e.State, e.Zip)
	if err != nil {
		return err
	}
	if other != nil && other.ID != e.ID {
		return fmt.Errorf("%w: %s entry %s", ErrDuplicateKey, e.Kind, other.ID)
	}
	return nil
}

func (s *Service) withKeyLock(ctx context.Context, ref string, e *domain.ListEntry, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	key := fmt.Sprintf("%s:%s:%s|%s|%s", ref, e.Kind, e.Key(), e.State, e.Zip)
	return s.locker.WithLock(ctx, key, fn)
}

func (s *Service) record(ctx context.Context, t audit.EventType, ref string, e *domain.ListEntry) {
	payload := map[string]any{
		"kind": e.Kind,
		"id":   e.ID,
	}
	if e.Address1 != "" {
		payload["address1"] = logger.RedactAddress(e.Address1)
		payload["city"] = e.City
		payload["state"] = e.State
		payload["zip"] = e.Zip
	}
	if e.Kind.HasCapacity() && t != audit.EventListDelete {
		payload["capacity"] = e.Capacity
	}
	if err := s.sink.Record(ctx, audit.NewEvent(t, ref, payload)); err != nil {
		logger.Warn("addresslist: audit record failed", "database", ref, "event", string(t), "error", err)
	}
}
