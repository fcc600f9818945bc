package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Get("session")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("session", []byte(`{"a":1}`)))

	data, ok, err := s.Get("session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set("session", []byte("first")))
	require.NoError(t, s.Set("session", []byte("second")))

	data, ok, err := s.Get("session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", string(data))
}

func TestFileStoreDelete(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set("session", []byte("x")))
	require.NoError(t, s.Delete("session"))

	_, ok, err := s.Get("session")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete("session"))
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set("content:hero", []byte("hero")))
	require.NoError(t, s.Set("content:footer", []byte("footer")))

	data, ok, err := s.Get("content:hero")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hero", string(data))

	data, ok, err = s.Get("content:footer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "footer", string(data))
}
