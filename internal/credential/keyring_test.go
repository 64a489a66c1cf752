package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRoundTrip(t *testing.T) {
	v := NewVaultWith(keyring.NewArrayKeyring(nil))

	_, err := v.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.Set("k", "secret"))
	got, err := v.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, v.Delete("k"))
	_, err = v.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIMAPPasswordPrefersEnv(t *testing.T) {
	v := NewVaultWith(keyring.NewArrayKeyring(nil))
	require.NoError(t, v.Set(IMAPKey("me", "imap.test"), "from-keyring"))

	t.Setenv(PasswordEnv, "")
	pw, err := v.IMAPPassword("me", "imap.test")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", pw)

	t.Setenv(PasswordEnv, "from-env")
	pw, err = v.IMAPPassword("me", "imap.test")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}

func TestIMAPKey(t *testing.T) {
	assert.Equal(t, "imap-me@imap.test", IMAPKey("me", "imap.test"))
}
