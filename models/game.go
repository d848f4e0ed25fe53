package models

import (
	"time"

	"gorm.io/gorm"
)

type GameStatus string

const (
	GameUpcoming GameStatus = "upcoming"
	GameLive     GameStatus = "live"
	GameFinished GameStatus = "finished"
)

// Game holds the final (or in-progress) result for one event. Rows are
// written by the result ingestor; the settlement core only reads them.
type Game struct {
	gorm.Model
	ID        uint       `gorm:"primaryKey"`
	GameID    string     `gorm:"uniqueIndex;size:64"`
	League    string     `gorm:"size:32"`
	Status    GameStatus `gorm:"size:16;index"`
	HomeTeam  string     `gorm:"size:128"`
	AwayTeam  string     `gorm:"size:128"`
	HomeScore *int
	AwayScore *int
	Period    int
	Clock     string `gorm:"size:16"`
	StartDate *time.Time
	FinalAt   *time.Time
}

// StatLine is one player or game stat for a finished game, keyed by the
// statRef fields a prop leg carries. Played=false records that the stat
// is definitively unavailable (DNP, period never occurred), which grades
// the referencing leg as void rather than leaving it pending.
type StatLine struct {
	gorm.Model
	ID       uint   `gorm:"primaryKey"`
	GameID   string `gorm:"size:64;index:game_stat_idx"`
	PlayerID string `gorm:"size:64;index:game_stat_idx"`
	StatType string `gorm:"size:32;index:game_stat_idx"`
	PeriodID string `gorm:"size:16"`
	Value    float64
	Played   bool `gorm:"default:true"`
}
