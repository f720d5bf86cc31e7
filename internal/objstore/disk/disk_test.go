package disk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutListMove(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), "https://media.example/files")

	infos, err := s.List(ctx, "aa/bb/abcd1234")
	require.NoError(t, err)
	assert.Empty(t, infos)

	require.NoError(t, s.Put(ctx, "aa/bb/abcd1234", []byte("img"), "image/png"))

	infos, err = s.List(ctx, "aa/bb/abcd1234")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "aa/bb/abcd1234", infos[0].Path)
	assert.WithinDuration(t, time.Now(), infos[0].ModTime, time.Minute)

	// Rename to append an extension; List by hash prefix still finds it.
	require.NoError(t, s.Move(ctx, "aa/bb/abcd1234", "aa/bb/abcd1234.png"))

	infos, err = s.List(ctx, "aa/bb/abcd1234")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "aa/bb/abcd1234.png", infos[0].Path)
}

func TestURL(t *testing.T) {
	s := New(t.TempDir(), "https://media.example/files/")
	assert.Equal(t, "https://media.example/files/aa/bb/x.png", s.URL("aa/bb/x.png"))
}

func TestListMissingPrefix(t *testing.T) {
	s := New(t.TempDir(), "https://media.example")
	infos, err := s.List(context.Background(), "no/such/prefix")
	require.NoError(t, err)
	assert.Empty(t, infos)
}
