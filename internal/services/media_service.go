package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relaydesk/internal/storage"
	"relaydesk/pkg/logger"
)

const maxMirroredMediaBytes = 16 << 20

// MediaMirror copies inbound attachments from the provider CDN into
// tenant-owned object storage. Provider media links expire; mirrored ones
// do not. Mirroring is best effort: on any failure the caller keeps the
// original provider URL.
type MediaMirror struct {
	storage    *storage.Client
	httpClient *http.Client
	log        *logger.Logger
}

func NewMediaMirror(storage *storage.Client, log *logger.Logger) *MediaMirror {
	return &MediaMirror{
		storage:    storage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (m *MediaMirror) Mirror(ctx context.Context, businessID uuid.UUID, srcURL, contentType string) (string, error) {
	if m == nil || m.storage == nil {
		return "", fmt.Errorf("media storage not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch provider media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch provider media: status %d", resp.StatusCode)
	}

	key := fmt.Sprintf("media/%s/%s", businessID, uuid.New())
	body := io.LimitReader(resp.Body, maxMirroredMediaBytes)
	if err := m.storage.Upload(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	m.log.InfoCtx(ctx, "mirrored inbound media",
		zap.String("business_id", businessID.String()),
		zap.String("key", key))
	return m.storage.FileURL(key), nil
}
