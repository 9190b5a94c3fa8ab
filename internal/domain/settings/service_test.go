package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/settings"
	"payflow/internal/platform/db/dbtest"
)

func newService(t *testing.T) *settings.Service {
	t.Helper()
	return settings.NewService(settings.NewStore(dbtest.Open(t)), "K")
}

func TestSetUpserts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Set(ctx, "theme", "light")
	require.NoError(t, err)

	second, err := svc.Set(ctx, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "dark", second.Value)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateDuplicateKey(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "locale", "en-ZM")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "locale", "en-GB")
	assert.ErrorIs(t, err, settings.ErrDuplicateKey)

	_, err = svc.Create(ctx, " ", "x")
	assert.ErrorIs(t, err, settings.ErrInvalidKey)
}

func TestGetAndDeleteMissing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, settings.ErrSettingNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), settings.ErrSettingNotFound)

	value, err := svc.Value(ctx, "nope", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", value)
}

func TestCompanyProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	empty, err := svc.Company(ctx)
	require.NoError(t, err)
	assert.Equal(t, "K", empty.CurrencySymbol)
	assert.Empty(t, empty.Name)

	updated, err := svc.UpdateCompany(ctx, settings.Company{Name: " Acme Ltd ", Address: "Lusaka", CurrencySymbol: "ZMW"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated.Name)
	assert.Equal(t, "ZMW", updated.CurrencySymbol)

	reset, err := svc.UpdateCompany(ctx, settings.Company{Name: "Acme Ltd"})
	require.NoError(t, err)
	assert.Equal(t, "K", reset.CurrencySymbol)
}
