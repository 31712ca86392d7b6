package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "tasks.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Read(ctx, "tasks.json")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Write(ctx, "tasks.json", []byte(`{"tasks":[]}`)))
	require.NoError(t, s.Write(ctx, "tasks.json", []byte(`{"tasks":[1]}`)))

	data, err := s.Read(ctx, "tasks.json")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":[1]}`, string(data))

	exists, err = s.Exists(ctx, "tasks.json")
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := os.ReadDir(filepath.Dir(s.Locate("tasks.json")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStorage_LocateStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "etc", "passwd"), s.Locate("../../etc/passwd"))
}
