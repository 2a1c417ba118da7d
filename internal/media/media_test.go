package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/products/product_abc.jpg", "products/product_abc", false},
		{"https://res.cloudinary.com/demo/image/upload/products/product_abc.webp", "products/product_abc", false},
		{"https://res.cloudinary.com/demo/image/upload/v1/a/b/c.png", "a/b/c", false},
		{"https://res.cloudinary.com/demo/image/upload/", "", true},
		{"https://res.cloudinary.com/demo/image/upload/v12", "", true},
		{"https://example.com/images/x.jpg", "", true},
		{"::not a url", "", true},
	}
	for _, tt := range tests {
		got, err := PublicIDFromURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalDisk(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := store.Upload(ctx, strings.NewReader("png-bytes"), "product_1.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/product_1.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "product_1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Upload(ctx, strings.NewReader("again"), "product_1.png")
	assert.Error(t, err, "existing files are never overwritten")

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "product_1.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice or a foreign URL is a no-op
	assert.NoError(t, store.Delete(ctx, url))
	assert.NoError(t, store.Delete(ctx, "https://cdn.example.com/uploads/product_1.png"))
}

func TestLocalDiskStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalDisk(dir, "/uploads")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), strings.NewReader("x"), "../../escape.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.jpg", url)
	_, err = os.Stat(filepath.Join(dir, "escape.jpg"))
	assert.NoError(t, err)
}
