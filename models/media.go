package models

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
)

// FileUpload is a file received from a multipart request.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}

func newObjectKey(prefix string, contentType string) string {
	return path.Join(prefix, uuid.NewString()+extensionFromMimeType(contentType))
}

// storeImage normalises an image upload and writes it plus its thumbnail.
// It returns the object key and the stored content type.
func storeImage(ctx context.Context, prefix string, upload *FileUpload) (string, string, error) {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", "", utils.NewValidationError("unsupported image type %q", upload.ContentType)
	}
	processed, err := utils.ProcessImage(upload.Data, upload.ContentType)
	if err != nil {
		return "", "", err
	}

	store, err := utils.GetObjectStore()
	if err != nil {
		return "", "", err
	}
	key := newObjectKey(prefix, processed.ContentType)
	if err := store.Put(ctx, key, processed.Data, processed.ContentType); err != nil {
		return "", "", err
	}
	if err := store.Put(ctx, utils.ThumbnailKey(key), processed.Thumbnail, processed.ThumbnailType); err != nil {
		_ = store.Delete(ctx, key)
		return "", "", err
	}
	return key, processed.ContentType, nil
}

// storeFile writes an upload as-is.
func storeFile(ctx context.Context, prefix string, upload *FileUpload) (string, error) {
	store, err := utils.GetObjectStore()
	if err != nil {
		return "", err
	}
	key := newObjectKey(prefix, upload.ContentType)
	if err := store.Put(ctx, key, upload.Data, upload.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// removeObjects deletes stored objects, logging failures.
func removeObjects(ctx context.Context, keys ...string) {
	store, err := utils.GetObjectStore()
	if err != nil {
		config.LogError(config.GetLogger(), "media.go", "removeObjects", "object store", keys, err)
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			config.LogError(config.GetLogger(), "media.go", "removeObjects", "deleting object", key, err)
		}
	}
}

func readObject(ctx context.Context, key string) ([]byte, string, error) {
	store, err := utils.GetObjectStore()
	if err != nil {
		return nil, "", err
	}
	return store.Get(ctx, key)
}
