package patient

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/pdms/pdms/internal/platform/events"
)

// Service runs every operation as a full load, mutate and save of the
// patient document. A single-slot semaphore serialises those cycles within
// one process and lets a waiting request give up when its context ends;
// separate processes sharing a document can still overwrite each other.
type Service struct {
	repo   Repository
	events events.Publisher
	logger zerolog.Logger
	lock   *semaphore.Weighted
}

func NewService(repo Repository, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		repo:   repo,
		events: pub,
		lock:   semaphore.NewWeighted(1),
		logger: logger.With().Str("component", "patient").Logger(),
	}
}

// List returns the whole store.
func (s *Service) List(ctx context.Context) (*Store, error) {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.lock.Release(1)
	return s.repo.Load(ctx)
}

// StoreName reports which backend holds the document.
func (s *Service) StoreName() string {
	if b, ok := s.repo.(Backend); ok {
		return b.Name()
	}
	return "custom"
}

// Health loads the document to confirm the store is readable.
func (s *Service) Health(ctx context.Context) error {
	_, err := s.List(ctx)
	return err
}

func (s *Service) Get(ctx context.Context, id string) (Patient, error) {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return Patient{}, err
	}
	defer s.lock.Release(1)

	store, err := s.repo.Load(ctx)
	if err != nil {
		return Patient{}, err
	}
	p, ok := store.Get(id)
	if !ok {
		return Patient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Sort returns every patient ordered by sortBy ("height", "weight" or
// "bmi") in the given order.
func (s *Service) Sort(ctx context.Context, sortBy, order string) ([]Patient, error) {
	order, err := checkSortArgs(sortBy, order)
	if err != nil {
		return nil, err
	}

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	store, err := s.repo.Load(ctx)
	s.lock.Release(1)
	if err != nil {
		return nil, err
	}
	return Sort(store.Patients(), sortBy, order)
}

func (s *Service) Create(ctx context.Context, p Patient) error {
	if err := Validate(p); err != nil {
		return err
	}

	err := s.mutate(ctx, func(store *Store) error {
		if store.Has(p.ID) {
			return fmt.Errorf("%w: %s", ErrConflict, p.ID)
		}
		store.Put(p)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.New(events.PatientCreated, p.ID, nil))
	return nil
}

// Update merges the set fields of u onto the stored record, validates the
// merged record and persists it.
func (s *Service) Update(ctx context.Context, id string, u PatientUpdate) (*UpdateResult, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var merged Patient
	err := s.mutate(ctx, func(store *Store) error {
		existing, ok := store.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		merged = u.Apply(existing)
		if err := Validate(merged); err != nil {
			return err
		}
		store.Put(merged)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.PatientUpdated, id, map[string]interface{}{
		"fields": u.fieldNames(),
	}))
	return &UpdateResult{Patient: merged, BMI: merged.BMI(), Verdict: merged.Verdict()}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(store *Store) error {
		if !store.Remove(id) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.New(events.PatientDeleted, id, nil))
	return nil
}

// mutate runs one load, apply and save cycle under the store lock. The
// document is not saved when apply fails.
func (s *Service) mutate(ctx context.Context, apply func(*Store) error) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	store, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if err := apply(store); err != nil {
		return err
	}
	return s.repo.Save(ctx, store)
}

// publish is called after the lock is released so a slow sink never holds
// up other requests.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("event", e.Type).Str("patient_id", e.Subject).Msg("event publish failed")
	}
}

func (u PatientUpdate) fieldNames() []string {
	var names []string
	if u.Name != nil {
		names = append(names, "name")
	}
	if u.City != nil {
		names = append(names, "city")
	}
	if u.Age != nil {
		names = append(names, "age")
	}
	if u.Gender != nil {
		names = append(names, "gender")
	}
	if u.Height != nil {
		names = append(names, "height")
	}
	if u.Weight != nil {
		names = append(names, "weight")
	}
	return names
}
