package wallet

import (
	"bytes"
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Wallet), args.Error(1)
}

func (m *MockRepository) CreateWallet(ctx context.Context, wallet *Wallet, assets []Asset) error {
	args := m.Called(ctx, wallet, assets)
	return args.Error(0)
}

func (m *MockRepository) RecordPurchase(ctx context.Context, purchase *Purchase, tx *Transaction) error {
	args := m.Called(ctx, purchase, tx)
	return args.Error(0)
}

func (m *MockRepository) ListAssets(ctx context.Context, walletID uuid.UUID) ([]Asset, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).([]Asset), args.Error(1)
}

func (m *MockRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]Transaction, error) {
	args := m.Called(ctx, walletID, limit)
	return args.Get(0).([]Transaction), args.Error(1)
}

func (m *MockRepository) ListPurchases(ctx context.Context, userID uuid.UUID) ([]Purchase, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Purchase), args.Error(1)
}

var addressPattern = regexp.MustCompile(`^0x[0-9A-F]{40}$`)

func TestCreateWallet(t *testing.T) {
	ctx := context.Background()
	user := &auth.Identity{UserID: uuid.New()}

	t.Run("creates wallet with default assets", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, zap.NewNop())

		repo.On("GetWalletByUser", ctx, user.UserID).Return(nil, nil)
		repo.On("CreateWallet", ctx, mock.AnythingOfType("*wallet.Wallet"), mock.MatchedBy(func(assets []Asset) bool {
			if len(assets) != 4 || assets[0].Symbol != "BCC" {
				return false
			}
			for _, a := range assets {
				if a.Balance != 0 || a.WalletID == uuid.Nil {
					return false
				}
			}
			return true
		})).Return(nil)

		w, created, err := svc.CreateWallet(ctx, user)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, user.UserID, w.UserID)
		assert.Zero(t, w.BalanceINR)
		assert.Regexp(t, addressPattern, w.Address)
		repo.AssertExpectations(t)
	})

	t.Run("existing wallet is returned unchanged", func(t *testing.T) {
		repo := new(MockRepository)
		existing := &Wallet{ID: uuid.New(), UserID: user.UserID, Address: "0xABC"}
		repo.On("GetWalletByUser", ctx, user.UserID).Return(existing, nil)

		w, created, err := NewService(repo, zap.NewNop()).CreateWallet(ctx, user)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, w)
		repo.AssertNotCalled(t, "CreateWallet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent create returns the winner", func(t *testing.T) {
		repo := new(MockRepository)
		winner := &Wallet{ID: uuid.New(), UserID: user.UserID}
		repo.On("GetWalletByUser", ctx, user.UserID).Return(nil, nil).Once()
		repo.On("CreateWallet", ctx, mock.Anything, mock.Anything).Return(ErrWalletExists)
		repo.On("GetWalletByUser", ctx, user.UserID).Return(winner, nil).Once()

		w, created, err := NewService(repo, zap.NewNop()).CreateWallet(ctx, user)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.ID, w.ID)
	})

	t.Run("requires identity", func(t *testing.T) {
		_, _, err := NewService(new(MockRepository), zap.NewNop()).CreateWallet(ctx, nil)
		assert.True(t, apperrors.Is(err, apperrors.KindAuthentication))
	})
}

func TestNewAddressUsesEntropy(t *testing.T) {
	svc := NewService(new(MockRepository), zap.NewNop())
	svc.entropy = bytes.NewReader(bytes.Repeat([]byte{0xab}, addressBytes))

	address, err := svc.newAddress()
	require.NoError(t, err)
	assert.Equal(t, "0x"+strings.Repeat("AB", addressBytes), address)

	svc.entropy = bytes.NewReader(nil)
	_, err = svc.newAddress()
	assert.Error(t, err)
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	user := &auth.Identity{UserID: uuid.New()}
	w := &Wallet{ID: uuid.New(), UserID: user.UserID, Address: "0x" + strings.Repeat("0F", addressBytes)}

	t.Run("records purchase and ledger entry", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, zap.NewNop())

		repo.On("GetWalletByUser", ctx, user.UserID).Return(w, nil)
		repo.On("RecordPurchase", ctx,
			mock.MatchedBy(func(p *Purchase) bool {
				return p.WalletID == w.ID && p.WalletHash == w.Address && p.Status == StatusCompleted
			}),
			mock.MatchedBy(func(tx *Transaction) bool {
				return tx.Type == TxBuy && tx.Token == "BCC" && tx.Amount == 10 && tx.INRValue == 1500
			}),
		).Return(nil)

		p, err := svc.Purchase(ctx, user, &PurchaseRequest{Credits: 10, PricePerCredit: 150})
		require.NoError(t, err)
		assert.Equal(t, 1500.0, p.INRAmount)
		assert.Equal(t, user.UserID, p.UserID)
		repo.AssertExpectations(t)
	})

	invalid := []PurchaseRequest{
		{Credits: 0, PricePerCredit: 150},
		{Credits: -5, PricePerCredit: 150},
		{Credits: 10, PricePerCredit: 0},
		{Credits: math.NaN(), PricePerCredit: 150},
		{Credits: 10, PricePerCredit: math.Inf(1)},
	}
	for _, req := range invalid {
		req := req
		t.Run("rejects invalid amount", func(t *testing.T) {
			repo := new(MockRepository)
			_, err := NewService(repo, zap.NewNop()).Purchase(ctx, user, &req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
			assert.Equal(t, "Invalid purchase amount", err.Error())
			repo.AssertNotCalled(t, "RecordPurchase", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("wallet required", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetWalletByUser", ctx, user.UserID).Return(nil, nil)

		_, err := NewService(repo, zap.NewNop()).Purchase(ctx, user, &PurchaseRequest{Credits: 1, PricePerCredit: 1})
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		assert.Equal(t, "Wallet not found. Please create a wallet first.", err.Error())
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetWalletByUser", ctx, user.UserID).Return(w, nil)
		repo.On("RecordPurchase", ctx, mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))

		_, err := NewService(repo, zap.NewNop()).Purchase(ctx, user, &PurchaseRequest{Credits: 1, PricePerCredit: 1})
		assert.True(t, apperrors.Is(err, apperrors.KindStore))
		assert.Equal(t, "deadlock detected", err.Error())
	})
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	w := &Wallet{ID: uuid.New(), UserID: userID}

	repo := new(MockRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("GetWalletByUser", ctx, userID).Return(w, nil)
	repo.On("ListTransactions", ctx, w.ID, transactionHistoryLimit).Return([]Transaction{{Type: TxBuy}}, nil)
	repo.On("ListAssets", ctx, w.ID).Return([]Asset{{Symbol: "BCC"}}, nil)

	txs, err := svc.Transactions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	assets, err := svc.Assets(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "BCC", assets[0].Symbol)

	owns, err := svc.OwnsWallet(ctx, userID, w.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = svc.OwnsWallet(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owns)
}
