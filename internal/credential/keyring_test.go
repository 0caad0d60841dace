package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringRoundTrip(t *testing.T) {
	k := &Keyring{ring: keyring.NewArrayKeyring(nil)}

	_, err := k.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, k.Save("user_1"))
	token, err := k.Load()
	require.NoError(t, err)
	assert.Equal(t, "user_1", token)

	require.NoError(t, k.Clear())
	require.NoError(t, k.Clear())
	_, err = k.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemory(t *testing.T) {
	var m Memory

	_, err := m.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, m.Save("user_2"))
	token, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "user_2", token)

	require.NoError(t, m.Clear())
	_, err = m.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
