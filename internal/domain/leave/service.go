package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// prepare validates dates and fills days from the inclusive span when the
// caller left it at zero.
func prepare(r *Request) error {
	r.LeaveType = strings.TrimSpace(r.LeaveType)
	r.Reason = strings.TrimSpace(r.Reason)
	if strings.TrimSpace(r.EmployeeID) == "" {
		return fmt.Errorf("%w: employeeId is required", ErrInvalidRequest)
	}
	if r.LeaveType == "" {
		return fmt.Errorf("%w: leaveType is required", ErrInvalidRequest)
	}
	span, err := DaysBetween(r.StartDate, r.EndDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Days < 0 {
		return fmt.Errorf("%w: days must be zero or greater", ErrInvalidRequest)
	}
	if r.Days == 0 {
		r.Days = span
	}
	return nil
}

func (s *Service) Create(ctx context.Context, r Request) (Request, error) {
	if err := prepare(&r); err != nil {
		return Request{}, err
	}
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.Status = StatusPending
	r.DecidedBy = ""
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := s.Store.Create(ctx, r); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Request, int, error) {
	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Store.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.Store.Find(ctx, Filter{EmployeeID: employeeID})
}

func (s *Service) Find(ctx context.Context, filter Filter) ([]Request, error) {
	return s.Store.Find(ctx, filter)
}

// Update edits a pending request. Decided requests are frozen.
func (s *Service) Update(ctx context.Context, id string, u Update) (Request, error) {
	r, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if r.Status != StatusPending {
		return Request{}, ErrNotPending
	}
	datesChanged := false
	if u.LeaveType != nil {
		r.LeaveType = *u.LeaveType
	}
	if u.StartDate != nil {
		r.StartDate = *u.StartDate
		datesChanged = true
	}
	if u.EndDate != nil {
		r.EndDate = *u.EndDate
		datesChanged = true
	}
	if u.Reason != nil {
		r.Reason = *u.Reason
	}
	switch {
	case u.Days != nil:
		r.Days = *u.Days
	case datesChanged:
		r.Days = 0
	}
	if err := prepare(&r); err != nil {
		return Request{}, err
	}
	r.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(ctx, r); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status, decidedBy string) (Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return Request{}, ErrInvalidStatus
	}
	if _, err := s.Store.Get(ctx, id); err != nil {
		return Request{}, err
	}
	if err := s.Store.SetStatus(ctx, id, status, decidedBy); err != nil {
		return Request{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}
