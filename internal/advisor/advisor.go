// internal/advisor/advisor.go
//
// Gemini-backed HIT/STAND recommendation. Strictly advisory: the advisor
// sees only what the player sees (their cards and the dealer's visible
// cards) and never touches round state.

package advisor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

const promptTemplate = `You are a blackjack assistant.
Player cards: %s.
Dealer visible cards: %s.
Your response must be ONLY one word: "HIT" or "STAND".`

type Advisor struct {
	client *genai.Client
	model  string
}

// FromEnv builds an advisor from GOOGLE_API_KEY (or GEMINI_API_KEY).
// Returns nil when no key is configured or the client cannot be built;
// callers treat a nil advisor as "feature unavailable".
func FromEnv(ctx context.Context) *Advisor {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Warn().Err(err).Msg("gemini client init failed; advisor disabled")
		return nil
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Advisor{client: client, model: model}
}

// Recommend asks the model for a single-word move for the current hand.
// Anything that is not clearly HIT or STAND comes back as
// "No recommendation".
func (a *Advisor) Recommend(ctx context.Context, player, dealerVisible []game.Card) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, joinCards(player), joinCards(dealerVisible))
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := strings.ToUpper(strings.TrimSpace(resp.Text()))
	switch {
	case strings.Contains(text, "HIT"):
		return "HIT", nil
	case strings.Contains(text, "STAND"):
		return "STAND", nil
	default:
		return "No recommendation", nil
	}
}

func joinCards(cards []game.Card) string {
	if len(cards) == 0 {
		return "none"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
