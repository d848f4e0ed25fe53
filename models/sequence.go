package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sequence is a derived, independently staked execution path inside a
// composite wager: one parlay per k-combination for a round robin, one
// if-bet chain per permutation for a reverse bet. LegOrder stores the
// 0-based leg positions in execution order, comma-joined, so sequence
// identity is reproducible across settlement attempts.
type Sequence struct {
	gorm.Model
	ID       uint            `gorm:"primaryKey"`
	WagerID  uint            `gorm:"index"`
	LegOrder string          `gorm:"size:64"`
	Stake    decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Payout   decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Status   WagerStatus     `gorm:"size:16;default:pending"`
}
