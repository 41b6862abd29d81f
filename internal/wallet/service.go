package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
)

const (
	transactionHistoryLimit = 20
	addressBytes            = 20
)

type Service struct {
	repo    Repository
	logger  *zap.Logger
	entropy io.Reader
	now     func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		entropy: rand.Reader,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateWallet provisions a wallet with the default assets. When the caller
// already has one it is returned with created false.
func (s *Service) CreateWallet(ctx context.Context, identity *auth.Identity) (*Wallet, bool, error) {
	if identity == nil {
		return nil, false, apperrors.Authentication("Unauthorized")
	}

	existing, err := s.repo.GetWalletByUser(ctx, identity.UserID)
	if err != nil {
		return nil, false, apperrors.Store(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	address, err := s.newAddress()
	if err != nil {
		return nil, false, apperrors.Store(err)
	}

	now := s.now()
	w := &Wallet{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	assets := make([]Asset, len(defaultAssets))
	for i, a := range defaultAssets {
		a.ID = uuid.New()
		a.WalletID = w.ID
		a.CreatedAt = now
		a.UpdatedAt = now
		assets[i] = a
	}

	err = s.repo.CreateWallet(ctx, w, assets)
	if errors.Is(err, ErrWalletExists) {
		// lost a race with a concurrent create
		existing, err = s.repo.GetWalletByUser(ctx, identity.UserID)
		if err != nil {
			return nil, false, apperrors.Store(err)
		}
		if existing == nil {
			return nil, false, apperrors.Store(ErrWalletExists)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Store(err)
	}

	s.logger.Info("Wallet created",
		zap.String("user_id", identity.UserID.String()),
		zap.String("wallet_id", w.ID.String()))
	return w, true, nil
}

// Purchase buys credits into the caller's wallet. Any authenticated user
// with a wallet may purchase.
func (s *Service) Purchase(ctx context.Context, identity *auth.Identity, req *PurchaseRequest) (*Purchase, error) {
	if identity == nil {
		return nil, apperrors.Authentication("Unauthorized")
	}
	if !positive(req.Credits) || !positive(req.PricePerCredit) {
		return nil, apperrors.Validation("credits", "Invalid purchase amount")
	}

	w, err := s.repo.GetWalletByUser(ctx, identity.UserID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if w == nil {
		return nil, apperrors.NotFound("Wallet not found. Please create a wallet first.")
	}

	now := s.now()
	amount := req.Credits * req.PricePerCredit
	purchase := &Purchase{
		ID:             uuid.New(),
		UserID:         identity.UserID,
		WalletID:       w.ID,
		Credits:        req.Credits,
		PricePerCredit: req.PricePerCredit,
		INRAmount:      amount,
		WalletHash:     w.Address,
		Status:         StatusCompleted,
		CreatedAt:      now,
	}
	entry := &Transaction{
		ID:        uuid.New(),
		WalletID:  w.ID,
		Type:      TxBuy,
		Token:     creditSymbol,
		Amount:    req.Credits,
		INRValue:  amount,
		ToAddress: &w.Address,
		Status:    StatusCompleted,
		CreatedAt: now,
	}

	if err := s.repo.RecordPurchase(ctx, purchase, entry); err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("Credits purchased",
		zap.String("user_id", identity.UserID.String()),
		zap.String("wallet_id", w.ID.String()),
		zap.Float64("credits", req.Credits),
		zap.Float64("inr_amount", amount))
	return purchase, nil
}

// GetWallet returns the caller's wallet or a not-found error.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if w == nil {
		return nil, apperrors.NotFound("Wallet not found. Please create a wallet first.")
	}
	return w, nil
}

func (s *Service) Assets(ctx context.Context, userID uuid.UUID) ([]Asset, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	assets, err := s.repo.ListAssets(ctx, w.ID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return assets, nil
}

// Transactions returns the most recent ledger entries, newest first.
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, w.ID, transactionHistoryLimit)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return txs, nil
}

func (s *Service) Purchases(ctx context.Context, userID uuid.UUID) ([]Purchase, error) {
	purchases, err := s.repo.ListPurchases(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return purchases, nil
}

// OwnsWallet reports whether walletID belongs to userID.
func (s *Service) OwnsWallet(ctx context.Context, userID, walletID uuid.UUID) (bool, error) {
	w, err := s.repo.GetWalletByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return w != nil && w.ID == walletID, nil
}

// newAddress returns a simulated address: 0x followed by 40 hex digits.
func (s *Service) newAddress() (string, error) {
	b := make([]byte, addressBytes)
	if _, err := io.ReadFull(s.entropy, b); err != nil {
		return "", err
	}
	return "0x" + strings.ToUpper(hex.EncodeToString(b)), nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
