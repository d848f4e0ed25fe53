package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WagerType string

const (
	WagerSingle     WagerType = "single"
	WagerParlay     WagerType = "parlay"
	WagerTeaser     WagerType = "teaser"
	WagerRoundRobin WagerType = "round_robin"
	WagerIfBet      WagerType = "if_bet"
	WagerReverse    WagerType = "reverse"
	WagerBetItAll   WagerType = "bet_it_all"
)

type WagerStatus string

const (
	StatusPending   WagerStatus = "pending"
	StatusWon       WagerStatus = "won"
	StatusLost      WagerStatus = "lost"
	StatusPush      WagerStatus = "push"
	StatusCancelled WagerStatus = "cancelled"
)

// Terminal reports whether a status can no longer change. Settlement of a
// wager in a terminal status is a no-op.
func (s WagerStatus) Terminal() bool {
	return s != StatusPending
}

type TeaserPushRule string

const (
	TeaserPushRemoves TeaserPushRule = "push"
	TeaserPushLoses   TeaserPushRule = "lose"
	TeaserPushReverts TeaserPushRule = "revert"
)

type IfCondition string

const (
	IfWinOnly  IfCondition = "if_win_only"
	IfWinOrTie IfCondition = "if_win_or_tie"
)

// Wager is the unit a user places. Type-specific metadata lives on the row
// itself: teaser point adjustment and push rule, if-bet/reverse condition,
// bet-it-all chain flag and round-robin group size. Fields that don't apply
// to a given type are zero-valued and ignored by its state machine.
type Wager struct {
	gorm.Model
	ID              uint            `gorm:"primaryKey"`
	OwnerID         uint            `gorm:"index"`
	Owner           Account         `gorm:"foreignKey:OwnerID"`
	Type            WagerType       `gorm:"size:16"`
	Status          WagerStatus     `gorm:"size:16;default:pending;index"`
	Stake           decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Odds            int             // aggregate American odds; meaning depends on Type
	PotentialPayout decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Payout          decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	PlacedAt        time.Time
	SettledAt       *time.Time

	TeaserPoints *float64
	PushRule     TeaserPushRule `gorm:"size:8"`
	Condition    IfCondition    `gorm:"size:16"`
	AllOrNothing bool           `gorm:"default:false"`
	GroupSize    int            // round robin: parlay size k

	Legs      []Leg      `gorm:"foreignKey:WagerID"`
	Sequences []Sequence `gorm:"foreignKey:WagerID"`
}

type Market string

const (
	MarketSpread     Market = "spread"
	MarketMoneyline  Market = "moneyline"
	MarketTotal      Market = "total"
	MarketPlayerProp Market = "player_prop"
	MarketGameProp   Market = "game_prop"
)

type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

type LegResult string

const (
	LegPending LegResult = "pending"
	LegWon     LegResult = "won"
	LegLost    LegResult = "lost"
	LegPush    LegResult = "push"
	LegVoid    LegResult = "void"
)

func (r LegResult) Terminal() bool {
	return r != LegPending
}

// Leg is one market selection within a wager. Line sign is leg-relative,
// normalized at placement. BaseLine holds the pre-teaser line so the
// "revert" push rule can re-grade against it; nil for non-teaser legs.
type Leg struct {
	gorm.Model
	ID           uint      `gorm:"primaryKey"`
	WagerID      uint      `gorm:"index"`
	Position     int       // order within the wager, 0-based
	GameID       string    `gorm:"size:64;index"`
	Market       Market    `gorm:"size:16"`
	Selection    Side      `gorm:"size:8"`
	Line         *float64
	BaseLine     *float64
	AmericanOdds int
	Result       LegResult `gorm:"size:8;default:pending"`

	// statRef for player/game props
	PlayerID string `gorm:"size:64"`
	StatType string `gorm:"size:32"`
	PeriodID string `gorm:"size:16"`
}
