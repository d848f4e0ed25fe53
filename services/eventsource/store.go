// Package eventsource supplies final game results to the grader: a GORM
// store the settlement core reads, and an ESPN ingestor that keeps the
// store's game rows current.
package eventsource

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"oddsEngine/models"
	"oddsEngine/services/common"
	"oddsEngine/services/grading"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Snapshot builds the grading view of one game: final scores and every
// stat line recorded for it. A game the store has never seen counts as
// incomplete data, not as an error worth surfacing to the user.
func (s *Store) Snapshot(ctx context.Context, gameID string) (*grading.Snapshot, error) {
	var game models.Game
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: game %s unknown", common.ErrGradingIncomplete, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	snap := &grading.Snapshot{
		GameID:   gameID,
		Finished: game.Status == models.GameFinished,
	}
	if !snap.Finished {
		return snap, nil
	}
	if game.HomeScore == nil || game.AwayScore == nil {
		return nil, fmt.Errorf("%w: game %s finished without scores", common.ErrGradingIncomplete, gameID)
	}
	snap.HomeScore = *game.HomeScore
	snap.AwayScore = *game.AwayScore

	var lines []models.StatLine
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("load stats for game %s: %w", gameID, err)
	}

	snap.Stats = make(map[grading.StatKey]grading.StatValue, len(lines))
	for _, line := range lines {
		key := grading.StatKey{PlayerID: line.PlayerID, StatType: line.StatType, PeriodID: line.PeriodID}
		snap.Stats[key] = grading.StatValue{Value: line.Value, Available: line.Played}
	}
	return snap, nil
}
