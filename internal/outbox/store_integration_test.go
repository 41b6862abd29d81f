//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bluechain-mrv/backend/internal/testhelpers"
)

func TestStoreProcessPending(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	db := testDB.DB.Gorm
	ctx := context.Background()
	projectID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, EventProjectSubmitted, map[string]string{"id": projectID.String()},
			TopicProjects, ProjectTopic(projectID))
	})
	require.NoError(t, err)

	store := NewStore(db)
	var seen []string
	published, failed, err := store.ProcessPending(ctx, 10, func(ev *Event) error {
		seen = append(seen, ev.Topic)
		if ev.Topic == TopicProjects {
			return errors.New("nats: connection closed")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{TopicProjects, ProjectTopic(projectID)}, seen)

	var pending []Event
	require.NoError(t, db.Where("published_at IS NULL").Find(&pending).Error)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "nats: connection closed", *pending[0].LastError)

	// the failed row is retried on the next pass
	published, failed, err = store.ProcessPending(ctx, 10, func(*Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Zero(t, failed)
}

func TestEnqueueRollsBackWithCaller(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	db := testDB.DB.Gorm

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Enqueue(tx, EventWalletPurchase, map[string]int{"credits": 1}, WalletTopic(uuid.New())); err != nil {
			return err
		}
		return errors.New("purchase insert failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&Event{}).Count(&count).Error)
	assert.Zero(t, count)
}
