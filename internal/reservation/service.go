package reservation

import (
	"context"
	"errors"
	"strings"

	"github.com/tripdesk/tripdesk-go/internal/model"
)

var (
	ErrDateRequired     = errors.New("date is required")
	ErrTimeRequired     = errors.New("time is required")
	ErrActivityRequired = errors.New("activity is required")
)

// Service validates reservation input ahead of the store.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func validate(r *model.Reservation) error {
	if strings.TrimSpace(r.Date) == "" {
		return ErrDateRequired
	}
	if strings.TrimSpace(r.Time) == "" {
		return ErrTimeRequired
	}
	if strings.TrimSpace(r.Activity) == "" {
		return ErrActivityRequired
	}
	return nil
}

func (s *Service) Create(ctx context.Context, r *model.Reservation) (*model.Reservation, error) {
	if err := validate(r); err != nil {
		return nil, err
	}
	id, err := s.store.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.store.ByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, r *model.Reservation) (*model.Reservation, error) {
	if err := validate(r); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, r); err != nil {
		return nil, err
	}
	return s.store.ByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// List dispatches on whichever filter the caller supplied: a single
// date, a date range, a venue search, or nothing (everything).
func (s *Service) List(ctx context.Context, date, start, end, venue string) ([]model.Reservation, error) {
	switch {
	case date != "":
		return s.store.ByDate(ctx, date)
	case start != "" && end != "":
		return s.store.ByDateRange(ctx, start, end)
	case venue != "":
		return s.store.SearchVenue(ctx, venue)
	default:
		return s.store.All(ctx)
	}
}

func (s *Service) Stats(ctx context.Context) (model.ReservationStats, error) {
	return s.store.Stats(ctx)
}
