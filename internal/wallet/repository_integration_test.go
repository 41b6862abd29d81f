//go:build integration

package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/outbox"
	"bluechain-mrv/backend/internal/testhelpers"
)

func TestPostgresWalletPurchases(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	ctx := context.Background()

	repo := NewRepository(testDB.DB.Gorm)
	svc := NewService(repo, zap.NewNop())
	user := &auth.Identity{UserID: uuid.New()}

	w, created, err := svc.CreateWallet(ctx, user)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := svc.CreateWallet(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, w.ID, again.ID)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(ctx, user, &PurchaseRequest{Credits: 2, PricePerCredit: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assets, err := svc.Assets(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, assets, 4)
	for _, a := range assets {
		if a.Symbol == creditSymbol {
			assert.Equal(t, 10.0, a.Balance)
			assert.Equal(t, 1000.0, a.INRValue)
		} else {
			assert.Zero(t, a.Balance)
		}
	}

	txs, err := svc.Transactions(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, txs, 5)

	purchases, err := svc.Purchases(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, purchases, 5)

	var events int64
	require.NoError(t, testDB.DB.Gorm.Model(&outbox.Event{}).
		Where("topic = ?", outbox.WalletTopic(w.ID)).Count(&events).Error)
	assert.Equal(t, int64(5), events)
}

func TestPostgresCreateWalletConflict(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	repo := NewRepository(testDB.DB.Gorm)
	userID := uuid.New()

	first := &Wallet{ID: uuid.New(), UserID: userID, Address: "0x01"}
	require.NoError(t, repo.CreateWallet(context.Background(), first, nil))

	second := &Wallet{ID: uuid.New(), UserID: userID, Address: "0x02"}
	assert.ErrorIs(t, repo.CreateWallet(context.Background(), second, nil), ErrWalletExists)
}
