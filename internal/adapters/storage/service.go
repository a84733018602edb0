// Package storage wraps S3-compatible object storage for files the CRM
// generates, such as lead exports.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a time-limited link to an object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService stores objects and hands out download links.
type StorageService interface {
	// UploadFile stores reader under folder with a unique suffix on fileName
	// and returns the object key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateFileSize checks size against the configured maximum.
	ValidateFileSize(sizeBytes int64) error
}

// Config is the MinIO part of the application config.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
