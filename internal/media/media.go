// Package media stores product images on an image host and removes them
// again when a product stops referencing them.
package media

import (
	"context"
	"io"
)

// Store uploads and deletes hosted images. Upload returns the public URL
// saved on the product.
type Store interface {
	Upload(ctx context.Context, r io.Reader, name string) (string, error)
	Delete(ctx context.Context, url string) error
}
