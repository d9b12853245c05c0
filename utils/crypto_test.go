package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSealer_RejectsBadKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrKeySize)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("4821"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "enc:"))
	assert.NotContains(t, sealed, "4821")

	again, err := s.Seal([]byte("4821"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "4821", plain)
}

func TestSealer_OpenPlainPassthrough(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)

	plain, err := s.Open("1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", plain)
}

func TestSealer_OpenWrongKey(t *testing.T) {
	a, _ := NewSealer(bytes.Repeat([]byte{1}, 32))
	b, _ := NewSealer(bytes.Repeat([]byte{2}, 32))

	sealed, err := a.Seal([]byte("0000"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.Error(t, err)
}
