// Package notify posts settlement results to a Discord channel. Delivery is
// best effort; a failed send is logged and never blocks or retries
// settlement.
package notify

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"oddsEngine/models"
	"oddsEngine/services/oddsmath"
	"oddsEngine/services/settlement"
)

const (
	colorWon  = 0x57F287 // Discord green
	colorLost = 0xED4245 // Discord red
	colorPush = 0x99AAB5 // Discord grey
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	log       *zap.Logger
}

func NewDiscordNotifier(session *discordgo.Session, channelID string, log *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID, log: log}
}

// WagerSettled sends an embed summarizing the settled wager.
func (n *DiscordNotifier) WagerSettled(w *models.Wager, out *settlement.Outcome) {
	var title string
	var color int
	switch out.Status {
	case models.StatusWon:
		title = "🎉 Wager Won"
		color = colorWon
	case models.StatusLost:
		title = "💔 Wager Lost"
		color = colorLost
	default:
		title = "↩️ Wager Pushed"
		color = colorPush
	}

	var description strings.Builder
	description.WriteString(fmt.Sprintf("**Type:** %s\n", w.Type))
	description.WriteString(fmt.Sprintf("**Stake:** %s\n", w.Stake.StringFixed(2)))
	description.WriteString(fmt.Sprintf("**Payout:** %s\n", out.Payout.StringFixed(2)))

	description.WriteString("\n**Legs:**\n")
	for i, leg := range w.Legs {
		status := "⏳ Pending"
		switch out.LegResults[i] {
		case models.LegWon:
			status = "✅ Won"
		case models.LegLost:
			status = "❌ Lost"
		case models.LegPush:
			status = "↩️ Push"
		case models.LegVoid:
			status = "🚫 Void"
		}
		description.WriteString(fmt.Sprintf("%d. %s %s %s (%s) - %s\n",
			i+1, leg.GameID, leg.Market, leg.Selection,
			oddsmath.FormatOdds(float64(leg.AmericanOdds)), status))
	}

	if len(out.Sequences) > 0 {
		description.WriteString(fmt.Sprintf("\n**Sequences:** %d settled\n", len(out.Sequences)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description.String(),
		Color:       color,
	}

	_, err := n.session.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		n.log.Warn("settlement notification failed", zap.Uint("wager", w.ID), zap.Error(err))
	}
}
