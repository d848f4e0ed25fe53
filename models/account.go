package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account tracks a bettor's balance and open risk. Placing a wager never
// touches Balance; it only raises Risk (sum of stakes of pending wagers).
// Available funds are Balance minus Risk. Only settlement mutates Balance.
type Account struct {
	gorm.Model
	ID       uint            `gorm:"primaryKey"`
	UserRef  string          `gorm:"uniqueIndex;size:64"`
	Balance  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Risk     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Username *string
}

func (a Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.Risk)
}
