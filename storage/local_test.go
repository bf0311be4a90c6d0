package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	archive, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()

	path, err := archive.Put(ctx, id, "my report.txt", strings.NewReader("document body"))
	require.NoError(t, err)
	assert.Contains(t, path, id.String())
	assert.Contains(t, path, "my_report.txt")

	reader, err := archive.Get(ctx, path)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "document body", string(content))

	require.NoError(t, archive.Delete(ctx, path))
	_, err = archive.Get(ctx, path)
	assert.Error(t, err)

	// Deleting again is not an error.
	assert.NoError(t, archive.Delete(ctx, path))
}

func TestArchivePath_SanitizesFilename(t *testing.T) {
	id := uuid.New()
	path := archivePath(id, "drafts/my report v2.txt")
	assert.Equal(t, id.String()+"/my_report_v2.txt", path)
}
