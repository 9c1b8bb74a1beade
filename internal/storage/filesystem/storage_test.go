package filesystem

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"veo-console/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	store, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("Upload and Download", func(t *testing.T) {
		testData := "fake mp4 bytes"
		testPath := "results/models/veo/operations/op1.mp4"

		err := store.Upload(ctx, testPath, strings.NewReader(testData))
		require.NoError(t, err)

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		reader, err := store.Download(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, testData, string(content))
	})

	t.Run("Overwrite existing object", func(t *testing.T) {
		testPath := "results/overwrite.mp4"

		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("first")))
		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("second")))

		reader, err := store.Download(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()

		content, _ := io.ReadAll(reader)
		assert.Equal(t, "second", string(content))
	})

	t.Run("List files", func(t *testing.T) {
		files := map[string]string{
			"list/a/one.mp4": "1",
			"list/a/two.mp4": "2",
			"list/b/one.mp4": "3",
		}
		for path, content := range files {
			require.NoError(t, store.Upload(ctx, path, strings.NewReader(content)))
		}

		all, err := store.List(ctx, "list/")
		assert.NoError(t, err)
		assert.Len(t, all, 3)

		onlyA, err := store.List(ctx, "list/a/")
		assert.NoError(t, err)
		assert.ElementsMatch(t, []string{"list/a/one.mp4", "list/a/two.mp4"}, onlyA)
	})

	t.Run("Delete file", func(t *testing.T) {
		testPath := "to-delete.mp4"

		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("delete me")))
		require.NoError(t, store.Delete(ctx, testPath))

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.False(t, exists)

		// Deuxième suppression sans erreur
		assert.NoError(t, store.Delete(ctx, testPath))
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := store.Download(ctx, "non-existent.mp4")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		exists, err := store.Exists(ctx, "non-existent.mp4")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Path traversal rejected", func(t *testing.T) {
		err := store.Upload(ctx, "../../etc/evil.mp4", strings.NewReader("x"))
		assert.Error(t, err)

		_, err = store.Download(ctx, "../outside.mp4")
		assert.Error(t, err)
	})
}
