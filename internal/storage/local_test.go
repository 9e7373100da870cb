package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"skillbridge-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage("http://localhost:8081/", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := s.Save(ctx, "v1.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	rc, err := s.Open(ctx, "v1.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "http://localhost:8081/api/v1/avatars/v1.png", s.URL("v1.png"))

	require.NoError(t, s.Delete(ctx, "v1.png"))
	_, err = s.Open(ctx, "v1.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "v1.png"), "deleting a missing file is not an error")
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage("", t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "a/b.png", "", ".hidden"} {
		_, err := s.Save(context.Background(), key, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrValidation, key)
	}
}
