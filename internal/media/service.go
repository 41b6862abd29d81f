package media

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
	"bluechain-mrv/backend/pkg/storage"
)

// Upload kinds.
const (
	KindPhoto    = "photo"
	KindVideo    = "video"
	KindDocument = "document"
)

const uploadURLExpiry = 15 * time.Minute

// Buckets maps each upload kind to its bucket.
type Buckets struct {
	Photo    string
	Video    string
	Document string
}

func (b Buckets) forKind(kind string) (string, bool) {
	switch kind {
	case KindPhoto:
		return b.Photo, true
	case KindVideo:
		return b.Video, true
	case KindDocument:
		return b.Document, true
	}
	return "", false
}

type UploadRequest struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name"`
}

type UploadTicket struct {
	UploadURL   string    `json:"upload_url"`
	PublicURL   string    `json:"public_url"`
	Key         string    `json:"key"`
	Bucket      string    `json:"bucket"`
	ContentType string    `json:"content_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	client  storage.S3Client
	buckets Buckets
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(client storage.S3Client, buckets Buckets, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		buckets: buckets,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateUploadURL presigns a PUT for a new object owned by the caller. The
// object key is <userID>/<unix millis>.<ext>.
func (s *Service) CreateUploadURL(ctx context.Context, identity *auth.Identity, req *UploadRequest) (*UploadTicket, error) {
	if identity == nil {
		return nil, apperrors.Authentication("Unauthorized")
	}
	bucket, ok := s.buckets.forKind(req.Kind)
	if !ok {
		return nil, apperrors.Validationf("kind", "kind must be one of %s, %s, %s", KindPhoto, KindVideo, KindDocument)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(req.FileName)), "."))
	if ext == "" {
		return nil, apperrors.Validation("file_name", "file_name must have an extension")
	}

	now := s.now()
	key := fmt.Sprintf("%s/%d.%s", identity.UserID, now.UnixMilli(), ext)
	contentType := mime.TypeByExtension("." + ext)

	uploadURL, err := s.client.PresignPut(ctx, bucket, key, contentType, uploadURLExpiry)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Debug("Upload URL issued",
		zap.String("user_id", identity.UserID.String()),
		zap.String("bucket", bucket),
		zap.String("key", key))

	return &UploadTicket{
		UploadURL:   uploadURL,
		PublicURL:   s.client.PublicURL(bucket, key),
		Key:         key,
		Bucket:      bucket,
		ContentType: contentType,
		ExpiresAt:   now.Add(uploadURLExpiry),
	}, nil
}
