package eventsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oddsEngine/models"
	"oddsEngine/models/external"
)

// Ingestor pulls the ESPN scoreboard and upserts game rows so the next
// sweep can settle wagers on finished games. It only writes games the
// store already tracks or that have gone final.
type Ingestor struct {
	db            *gorm.DB
	log           *zap.Logger
	client        *http.Client
	scoreboardURL string
}

func NewIngestor(db *gorm.DB, log *zap.Logger, scoreboardURL string) *Ingestor {
	return &Ingestor{
		db:            db,
		log:           log,
		client:        &http.Client{Timeout: 15 * time.Second},
		scoreboardURL: scoreboardURL,
	}
}

// IngestFinals fetches the scoreboard and records final scores. Non-final
// games get their live status refreshed; decode problems on a single event
// skip that event rather than failing the run.
func (ing *Ingestor) IngestFinals(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ing.scoreboardURL, nil)
	if err != nil {
		return err
	}
	resp, err := ing.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch scoreboard: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch scoreboard: status %d", resp.StatusCode)
	}

	var scoreboard external.ESPN_Scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&scoreboard); err != nil {
		return fmt.Errorf("decode scoreboard: %w", err)
	}

	updated := 0
	for _, event := range scoreboard.Events {
		for _, comp := range event.Competitions {
			if err := ing.upsertGame(event.ID, comp); err != nil {
				ing.log.Warn("skipping event", zap.String("event", event.ID), zap.Error(err))
				continue
			}
			updated++
		}
	}
	ing.log.Info("scoreboard ingested", zap.Int("events", len(scoreboard.Events)), zap.Int("updated", updated))
	return nil
}

func (ing *Ingestor) upsertGame(eventID string, comp external.ESPN_Comp) error {
	var home, away *external.ESPN_Competitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return fmt.Errorf("event %s: competitors incomplete", eventID)
	}

	status := models.GameLive
	var homeScore, awayScore *int
	var finalAt *time.Time
	switch comp.Status.Type.State {
	case "pre":
		status = models.GameUpcoming
	case "post":
		if !comp.Status.Type.Completed {
			break
		}
		status = models.GameFinished
		h, err := strconv.Atoi(home.Score)
		if err != nil {
			return fmt.Errorf("event %s: home score %q", eventID, home.Score)
		}
		a, err := strconv.Atoi(away.Score)
		if err != nil {
			return fmt.Errorf("event %s: away score %q", eventID, away.Score)
		}
		homeScore, awayScore = &h, &a
		now := time.Now()
		finalAt = &now
	}

	var game models.Game
	err := ing.db.Where(models.Game{GameID: eventID}).
		Attrs(models.Game{HomeTeam: home.Team.DisplayName, AwayTeam: away.Team.DisplayName}).
		FirstOrCreate(&game).Error
	if err != nil {
		return err
	}

	// a finished game never regresses
	if game.Status == models.GameFinished {
		return nil
	}

	game.Status = status
	game.Period = comp.Status.Period
	game.Clock = comp.Status.DisplayClock
	if homeScore != nil {
		game.HomeScore = homeScore
		game.AwayScore = awayScore
		game.FinalAt = finalAt
	}
	return ing.db.Save(&game).Error
}
