package media

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PresignPut(ctx context.Context, bucket, key, contentType string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, contentType, expiration)
	return args.String(0), args.Error(1)
}

func (m *MockS3Client) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s/%s", bucket, key)
}

var buckets = Buckets{Photo: "project-photos", Video: "project-videos", Document: "documents"}

func TestCreateUploadURL(t *testing.T) {
	ctx := context.Background()
	user := &auth.Identity{UserID: uuid.New()}
	fixed := time.UnixMilli(1717171717171).UTC()

	t.Run("photo goes to photo bucket", func(t *testing.T) {
		client := new(MockS3Client)
		svc := NewService(client, buckets, zap.NewNop())
		svc.now = func() time.Time { return fixed }

		key := fmt.Sprintf("%s/1717171717171.jpg", user.UserID)
		client.On("PresignPut", ctx, "project-photos", key, "image/jpeg", 15*time.Minute).
			Return("https://s3.example.com/signed", nil)

		ticket, err := svc.CreateUploadURL(ctx, user, &UploadRequest{Kind: KindPhoto, FileName: "Mangrove.JPG"})
		require.NoError(t, err)
		assert.Equal(t, key, ticket.Key)
		assert.Equal(t, "https://s3.example.com/signed", ticket.UploadURL)
		assert.Equal(t, "https://cdn.example.com/project-photos/"+key, ticket.PublicURL)
		assert.Equal(t, fixed.Add(15*time.Minute), ticket.ExpiresAt)
		client.AssertExpectations(t)
	})

	t.Run("video bucket", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("PresignPut", ctx, "project-videos", mock.Anything, mock.Anything, mock.Anything).Return("u", nil)

		ticket, err := NewService(client, buckets, zap.NewNop()).CreateUploadURL(ctx, user, &UploadRequest{Kind: KindVideo, FileName: "drone.mp4"})
		require.NoError(t, err)
		assert.Equal(t, "project-videos", ticket.Bucket)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewService(new(MockS3Client), buckets, zap.NewNop())

		_, err := svc.CreateUploadURL(ctx, user, &UploadRequest{Kind: "audio", FileName: "a.mp3"})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))

		_, err = svc.CreateUploadURL(ctx, user, &UploadRequest{Kind: KindPhoto, FileName: "noext"})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))

		_, err = svc.CreateUploadURL(ctx, nil, &UploadRequest{Kind: KindPhoto, FileName: "a.png"})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthentication))
	})

	t.Run("presign failure", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("PresignPut", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("no credentials"))

		_, err := NewService(client, buckets, zap.NewNop()).CreateUploadURL(ctx, user, &UploadRequest{Kind: KindDocument, FileName: "deed.pdf"})
		assert.True(t, apperrors.Is(err, apperrors.KindStore))
	})
}
