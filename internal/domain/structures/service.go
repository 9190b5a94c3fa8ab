package structures

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

// ValidateComponent checks name, type and amount bounds. Percentages are
// capped at 100.
func ValidateComponent(in ComponentInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidComponent)
	}
	if in.Type != TypeFixed && in.Type != TypePercentage {
		return fmt.Errorf("%w: type must be fixed or percentage", ErrInvalidComponent)
	}
	if in.Amount < 0 {
		return fmt.Errorf("%w: amount must be zero or greater", ErrInvalidComponent)
	}
	if in.Type == TypePercentage && in.Amount > 100 {
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidComponent)
	}
	return nil
}

func newComponent(structureID string, in ComponentInput, now time.Time) Component {
	return Component{
		ID:                 uuid.NewString(),
		PayrollStructureID: structureID,
		Name:               strings.TrimSpace(in.Name),
		Amount:             in.Amount,
		Type:               in.Type,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CreateStructure stores the structure and any inline components atomically.
func (s *Service) CreateStructure(ctx context.Context, in StructureInput) (Structure, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Structure{}, fmt.Errorf("%w: name is required", ErrInvalidStructure)
	}
	for _, c := range append(append([]ComponentInput{}, in.Allowances...), in.Deductions...) {
		if err := ValidateComponent(c); err != nil {
			return Structure{}, err
		}
	}

	now := time.Now().UTC()
	st := Structure{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Allowances:  []Component{},
		Deductions:  []Component{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, c := range in.Allowances {
		st.Allowances = append(st.Allowances, newComponent(st.ID, c, now))
	}
	for _, c := range in.Deductions {
		st.Deductions = append(st.Deductions, newComponent(st.ID, c, now))
	}
	if err := s.Store.CreateStructure(ctx, st); err != nil {
		return Structure{}, err
	}
	return st, nil
}

func (s *Service) GetStructure(ctx context.Context, id string) (Structure, error) {
	return s.Store.GetStructure(ctx, id)
}

func (s *Service) ListStructures(ctx context.Context) ([]Structure, error) {
	return s.Store.ListStructures(ctx)
}

// UpdateStructure renames the structure; components are managed individually.
func (s *Service) UpdateStructure(ctx context.Context, id string, in StructureInput) (Structure, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Structure{}, fmt.Errorf("%w: name is required", ErrInvalidStructure)
	}
	st := Structure{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.Store.UpdateStructure(ctx, st); err != nil {
		return Structure{}, err
	}
	return s.Store.GetStructure(ctx, id)
}

func (s *Service) DeleteStructure(ctx context.Context, id string) error {
	return s.Store.DeleteStructure(ctx, id)
}

func (s *Service) AddComponent(ctx context.Context, kind Kind, structureID string, in ComponentInput) (Component, error) {
	if err := ValidateComponent(in); err != nil {
		return Component{}, err
	}
	c := newComponent(structureID, in, time.Now().UTC())
	if err := s.Store.CreateComponent(ctx, kind, c); err != nil {
		return Component{}, err
	}
	return c, nil
}

func (s *Service) GetComponent(ctx context.Context, kind Kind, id string) (Component, error) {
	return s.Store.GetComponent(ctx, kind, id)
}

func (s *Service) ListComponents(ctx context.Context, kind Kind, structureID string) ([]Component, error) {
	if structureID != "" {
		if _, err := s.Store.GetStructure(ctx, structureID); err != nil {
			return nil, err
		}
	}
	return s.Store.ListComponents(ctx, kind, structureID)
}

func (s *Service) UpdateComponent(ctx context.Context, kind Kind, id string, in ComponentInput) (Component, error) {
	if err := ValidateComponent(in); err != nil {
		return Component{}, err
	}
	c, err := s.Store.GetComponent(ctx, kind, id)
	if err != nil {
		return Component{}, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Amount = in.Amount
	c.Type = in.Type
	c.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdateComponent(ctx, kind, c); err != nil {
		return Component{}, err
	}
	return c, nil
}

func (s *Service) DeleteComponent(ctx context.Context, kind Kind, id string) error {
	return s.Store.DeleteComponent(ctx, kind, id)
}
