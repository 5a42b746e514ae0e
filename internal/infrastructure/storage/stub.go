package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
)

var _ returnsapp.PhotoStorage = (*StubPhotoStorage)(nil)

// StubPhotoStorage builds fake URLs without touching any backend.
// Used in development and tests when storage.type is "stub".
type StubPhotoStorage struct {
	BaseURL string
}

// NewStubPhotoStorage creates a StubPhotoStorage. An empty baseURL
// defaults to https://storage.example.com.
func NewStubPhotoStorage(baseURL string) *StubPhotoStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StubPhotoStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateUploadURL returns a fake upload URL
func (s *StubPhotoStorage) GenerateUploadURL(
	_ context.Context,
	storageKey, _ string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	return s.url("upload", storageKey, expiresIn)
}

// GenerateDownloadURL returns a fake download URL
func (s *StubPhotoStorage) GenerateDownloadURL(
	_ context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	return s.url("download", storageKey, expiresIn)
}

func (s *StubPhotoStorage) url(action, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = defaultUploadExpiry
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": []string{expiresAt.UTC().Format(time.RFC3339)}}
	return s.BaseURL + "/" + action + "/" + storageKey + "?" + q.Encode(), expiresAt, nil
}
