package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	maxImageUploadBytes int64 = 5 * 1024 * 1024
	// multipart parsing keeps up to this much in memory; larger parts spill to temp files
	multipartMemory int64 = 16 << 20
)

var errUploadTooLarge = errors.New("upload too large")

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// readUpload reads a multipart file field. A missing field yields (nil, nil).
func readUpload(c *gin.Context, field string, maxBytes int64) (*models.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > maxBytes {
		return nil, errUploadTooLarge
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, errUploadTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return &models.FileUpload{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// readImageUpload reads an optional image field limited to 5MB.
func readImageUpload(c *gin.Context, field string) (*models.FileUpload, error) {
	upload, err := readUpload(c, field, maxImageUploadBytes)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			return nil, utils.NewValidationError("%s exceeds 5MB limit", field)
		}
		return nil, utils.NewValidationError("invalid %s upload", field)
	}
	if upload != nil && !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, utils.NewValidationError("%s must be an image", field)
	}
	return upload, nil
}

/* multipart form coercion */

func formString(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func formDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v, ok := c.GetPostForm(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := utils.ParseDecimal(v)
	if err != nil {
		return nil, utils.NewValidationError("invalid %s", key)
	}
	return &d, nil
}

func formBool(c *gin.Context, key string) *bool {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return utils.ParseFormBool(v)
}

// formDecimals reads several decimal fields, stopping at the first invalid one.
func formDecimals(c *gin.Context, keys ...string) (map[string]*decimal.Decimal, error) {
	result := make(map[string]*decimal.Decimal, len(keys))
	for _, key := range keys {
		d, err := formDecimal(c, key)
		if err != nil {
			return nil, err
		}
		result[key] = d
	}
	return result, nil
}

func contentDisposition(kind string, filename string) string {
	return fmt.Sprintf(`%s; filename="%s"`, kind, filename)
}
