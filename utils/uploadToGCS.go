package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSArchiver keeps a copy of every accepted upload in a Cloud Storage bucket.
type GCSArchiver struct {
	Bucket string
}

// newStorageClient prefers ADC; GCS_CREDENTIALS_JSON passes explicit credentials locally.
func newStorageClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON")); credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func (a GCSArchiver) Archive(ctx context.Context, objectName string, data []byte, contentType string) error {
	if strings.TrimSpace(a.Bucket) == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := newStorageClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(a.Bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = map[string]string{
		"source":      "sales-upload",
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("archive %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("archive %s: close writer: %w", objectName, err)
	}
	return nil
}

// UploadObjectName builds "<prefix>/<id>_<filename>" with slashes in the file name flattened.
func UploadObjectName(prefix, filename, id string) string {
	name := strings.ReplaceAll(strings.TrimSpace(filename), "/", "_")
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s_%s", strings.Trim(prefix, "/"), id, name)
}
