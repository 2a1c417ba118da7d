package main

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"prodexa/internal/catalog"
)

const (
	maxImageSize = 5 << 20 // 5MB per image
	// room for every slot plus the text fields
	maxProductFormSize = catalog.MaxImageSlots*maxImageSize + 1<<20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// sniffMIME reads the first 512 bytes to detect the content type and rewinds
// the file.
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// checkImage rejects oversized or non-image uploads before anything is sent
// to the image host.
func checkImage(fh *multipart.FileHeader) error {
	if fh.Size > maxImageSize {
		return catalog.Invalid("images", "%s is larger than 5MB", fh.Filename)
	}
	file, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	mime, err := sniffMIME(file)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	if !allowedImageTypes[mime] {
		return catalog.Invalid("images", "%s has unsupported type %s (allowed: jpeg, png, webp)", fh.Filename, mime)
	}
	return nil
}

func (app *application) uploadImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	url, err := app.media.Upload(ctx, file, name)
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", fh.Filename, err)
	}
	return url, nil
}

// uploadImages checks every file first, then uploads them in order. When an
// upload fails the ones already stored are cleaned up.
func (app *application) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	for _, fh := range files {
		if err := checkImage(fh); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := app.uploadImage(ctx, fh)
		if err != nil {
			app.deleteImagesAsync(urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// deleteImagesAsync removes images from the host in the background. Failures
// are logged and otherwise ignored.
func (app *application) deleteImagesAsync(urls []string) {
	if len(urls) == 0 {
		return
	}
	urls = append([]string(nil), urls...)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, url := range urls {
			if err := app.media.Delete(ctx, url); err != nil {
				app.logger.Warnw("failed to delete image", "url", url, "error", err)
			}
		}
	}()
}
