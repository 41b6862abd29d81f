package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a consumer's simulated custody account.
type Wallet struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Address    string    `gorm:"not null" json:"address"`
	BalanceINR float64   `gorm:"column:balance_inr;not null" json:"balance_inr"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Asset is a token balance held in a wallet, unique per symbol.
type Asset struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletID  uuid.UUID `gorm:"type:uuid;not null" json:"wallet_id"`
	Name      string    `gorm:"not null" json:"name"`
	Symbol    string    `gorm:"not null" json:"symbol"`
	Balance   float64   `gorm:"not null" json:"balance"`
	INRValue  float64   `gorm:"column:inr_value;not null" json:"inr_value"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction types and statuses.
const (
	TxReceived = "received"
	TxSent     = "sent"
	TxSwap     = "swap"
	TxBuy      = "buy"

	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// Transaction is a ledger entry of a wallet.
type Transaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletID    uuid.UUID `gorm:"type:uuid;not null" json:"wallet_id"`
	Type        string    `gorm:"not null" json:"type"`
	Token       string    `gorm:"not null" json:"token"`
	Amount      float64   `gorm:"not null" json:"amount"`
	INRValue    float64   `gorm:"column:inr_value;not null" json:"inr_value"`
	FromAddress *string   `json:"from_address"`
	ToAddress   *string   `json:"to_address"`
	Status      string    `gorm:"not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Purchase records a credit purchase.
type Purchase struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	WalletID       uuid.UUID `gorm:"type:uuid;not null" json:"wallet_id"`
	Credits        float64   `gorm:"not null" json:"credits"`
	PricePerCredit float64   `gorm:"not null" json:"price_per_credit"`
	INRAmount      float64   `gorm:"column:inr_amount;not null" json:"inr_amount"`
	WalletHash     string    `gorm:"not null" json:"wallet_hash"`
	Status         string    `gorm:"not null" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// PurchaseRequest is the body of purchase-credits.
type PurchaseRequest struct {
	Credits        float64 `json:"credits"`
	PricePerCredit float64 `json:"price_per_credit"`
}

// PurchaseEvent is the payload of wallet.purchase events.
type PurchaseEvent struct {
	Purchase    *Purchase    `json:"purchase"`
	Transaction *Transaction `json:"transaction"`
}

const (
	creditSymbol = "BCC"
	creditName   = "Blue Carbon Credits"
	creditIcon   = "🌊"
)

// defaultAssets are created with every wallet.
var defaultAssets = []Asset{
	{Name: creditName, Symbol: creditSymbol, Icon: creditIcon},
	{Name: "USD Coin", Symbol: "USDC", Icon: "💵"},
	{Name: "Ethereum", Symbol: "ETH", Icon: "⟠"},
	{Name: "Polygon", Symbol: "MATIC", Icon: "🟣"},
}
