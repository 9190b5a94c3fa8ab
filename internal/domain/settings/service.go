package settings

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Store           *Store
	defaultCurrency string
}

// NewService falls back to defaultCurrency when no currency_symbol row
// exists.
func NewService(store *Store, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "K"
	}
	return &Service{Store: store, defaultCurrency: defaultCurrency}
}

func (s *Service) Create(ctx context.Context, key, value string) (Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Setting{}, ErrInvalidKey
	}
	return s.Store.Create(ctx, key, value)
}

func (s *Service) Get(ctx context.Context, key string) (Setting, error) {
	return s.Store.Get(ctx, key)
}

// Value returns the stored value, or fallback when the key is missing.
func (s *Service) Value(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.Store.Get(ctx, key)
	if errors.Is(err, ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.Store.List(ctx)
}

func (s *Service) Set(ctx context.Context, key, value string) (Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Setting{}, ErrInvalidKey
	}
	if err := s.Store.Set(ctx, key, value); err != nil {
		return Setting{}, err
	}
	return s.Store.Get(ctx, key)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.Store.Delete(ctx, key)
}

func (s *Service) Company(ctx context.Context) (Company, error) {
	var (
		c   Company
		err error
	)
	if c.Name, err = s.Value(ctx, KeyCompanyName, ""); err != nil {
		return Company{}, err
	}
	if c.Address, err = s.Value(ctx, KeyCompanyAddress, ""); err != nil {
		return Company{}, err
	}
	if c.CurrencySymbol, err = s.Value(ctx, KeyCurrencySymbol, s.defaultCurrency); err != nil {
		return Company{}, err
	}
	if strings.TrimSpace(c.CurrencySymbol) == "" {
		c.CurrencySymbol = s.defaultCurrency
	}
	return c, nil
}

func (s *Service) UpdateCompany(ctx context.Context, c Company) (Company, error) {
	values := map[string]string{
		KeyCompanyName:    strings.TrimSpace(c.Name),
		KeyCompanyAddress: strings.TrimSpace(c.Address),
		KeyCurrencySymbol: strings.TrimSpace(c.CurrencySymbol),
	}
	for key, value := range values {
		if err := s.Store.Set(ctx, key, value); err != nil {
			return Company{}, err
		}
	}
	return s.Company(ctx)
}
