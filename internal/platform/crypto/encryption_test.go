package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptToString("smtp-app-password")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "smtp-app-password")

	plain, err := svc.DecryptFromString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "smtp-app-password", plain)
}

func TestUnconfiguredServicePassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	sealed, err := svc.EncryptToString("secret")
	require.NoError(t, err)
	plain, err := svc.DecryptFromString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	a, err := New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	b, err := New("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)

	sealed, err := a.EncryptToString("secret")
	require.NoError(t, err)
	_, err = b.DecryptFromString(sealed)
	assert.Error(t, err)
}
