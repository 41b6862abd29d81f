package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bluechain-mrv/backend/internal/outbox"
)

// ErrWalletExists is returned when the user already has a wallet.
var ErrWalletExists = errors.New("wallet already exists")

type Repository interface {
	GetWalletByUser(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	CreateWallet(ctx context.Context, wallet *Wallet, assets []Asset) error
	RecordPurchase(ctx context.Context, purchase *Purchase, tx *Transaction) error
	ListAssets(ctx context.Context, walletID uuid.UUID) ([]Asset, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]Transaction, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]Purchase, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// GetWalletByUser returns nil without error when the user has no wallet.
func (r *gormRepository) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet inserts the wallet and its assets atomically. A concurrent
// creation for the same user yields ErrWalletExists.
func (r *gormRepository) CreateWallet(ctx context.Context, wallet *Wallet, assets []Asset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(wallet)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWalletExists
		}
		if len(assets) == 0 {
			return nil
		}
		return tx.Create(&assets).Error
	})
}

// RecordPurchase writes the purchase, credits the BCC asset, appends the
// ledger entry and enqueues the event in one transaction. The asset balance
// is incremented in SQL so concurrent purchases do not lose updates.
func (r *gormRepository) RecordPurchase(ctx context.Context, purchase *Purchase, entry *Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(purchase).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		asset := Asset{
			ID:        uuid.New(),
			WalletID:  purchase.WalletID,
			Name:      creditName,
			Symbol:    creditSymbol,
			Balance:   purchase.Credits,
			INRValue:  purchase.INRAmount,
			Icon:      creditIcon,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet_id"}, {Name: "symbol"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("assets.balance + ?", purchase.Credits),
				"inr_value":  gorm.Expr("assets.inr_value + ?", purchase.INRAmount),
				"updated_at": now,
			}),
		}).Create(&asset).Error
		if err != nil {
			return err
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		event := PurchaseEvent{Purchase: purchase, Transaction: entry}
		return outbox.Enqueue(tx, outbox.EventWalletPurchase, event, outbox.WalletTopic(purchase.WalletID))
	})
}

func (r *gormRepository) ListAssets(ctx context.Context, walletID uuid.UUID) ([]Asset, error) {
	assets := []Asset{}
	err := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("created_at").Find(&assets).Error
	return assets, err
}

func (r *gormRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]Transaction, error) {
	txs := []Transaction{}
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *gormRepository) ListPurchases(ctx context.Context, userID uuid.UUID) ([]Purchase, error) {
	purchases := []Purchase{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
