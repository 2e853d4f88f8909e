package settings

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer(make([]byte, 32))
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	sealed, err := s.Seal("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", sealed)

	again, err := s.Seal("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret123", plain)
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer(make([]byte, 32))
	require.NoError(t, err)

	_, err = s.Open("not base64!")
	assert.ErrorIs(t, err, ErrSealedData)

	sealed, err := s.Seal("x")
	require.NoError(t, err)
	other, err := NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrSealedData)
}

func TestNilSealerPassesThrough(t *testing.T) {
	var s *Sealer
	assert.False(t, s.Enabled())

	out, err := s.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = s.Open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestNewSealerKeySize(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrKeySize)
}

func TestLoadSealer(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadSealer("")
	require.NoError(t, err)
	assert.Nil(t, s)

	hexPath := filepath.Join(dir, "key.hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(hex.EncodeToString(make([]byte, 32))+"\n"), 0600))
	s, err = LoadSealer(hexPath)
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	rawPath := filepath.Join(dir, "key.bin")
	require.NoError(t, os.WriteFile(rawPath, make([]byte, 32), 0600))
	s, err = LoadSealer(rawPath)
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	_, err = LoadSealer(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
