package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/rs/zerolog"
)

const aiTimeout = 10 * time.Second

const systemPrompt = "You write short, playful party-game content. " +
	"Reply with JSON only, no prose, no markdown."

// Generator produces round scenarios and reveal commentary. It tries the
// configured AI provider first and falls back to the built-in template table
// on any failure, so game start never depends on the upstream service.
type Generator struct {
	provider ai.Provider
	model    string
	timeout  time.Duration
	log      zerolog.Logger
}

func New(provider ai.Provider, model string, log zerolog.Logger) *Generator {
	return &Generator{provider: provider, model: model, timeout: aiTimeout, log: log}
}

func (g *Generator) Scenarios(ctx context.Context, roleA, roleB, theme string, rounds int, intensity float64) []*game.Scenario {
	out := make([]*game.Scenario, 0, rounds)
	for round := 1; round <= rounds; round++ {
		out = append(out, g.Generate(ctx, roleA, roleB, theme, round, intensity))
	}
	return out
}

// Generate returns one scenario for the round. It never fails: AI errors of
// any kind (timeout, non-2xx, malformed or empty reply) degrade to the
// template table.
func (g *Generator) Generate(ctx context.Context, roleA, roleB, theme string, round int, intensity float64) *game.Scenario {
	if g.provider != nil {
		sc, err := g.fromAI(ctx, roleA, roleB, theme, round, intensity)
		if err == nil {
			return sc
		}
		g.log.Warn().Err(err).Int("round", round).Msg("scenario generation fell back to templates")
	}
	return g.fallback(roleA, roleB, theme, round, intensity)
}

// Roast produces the reveal commentary. Same deal as Generate: the template
// lines are the backstop.
func (g *Generator) Roast(ctx context.Context, roleA, roleB string, sc *game.Scenario, res *game.RoundResult) string {
	if g.provider != nil {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		prompt := fmt.Sprintf(
			"The party voted on: %q. %s got %d votes, %s got %d. Write one playful roast sentence about the outcome. Plain text, no quotes.",
			sc.Prompt, roleA, res.CountA, roleB, res.CountB,
		)
		text, err := g.provider.Complete(cctx, g.model, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			g.log.Warn().Err(err).Int("round", res.Round).Msg("roast fell back to templates")
		}
	}
	return fallbackRoast(roleA, roleB, res)
}

type aiScenario struct {
	Prompt    string  `json:"prompt"`
	OptionA   string  `json:"optionA"`
	OptionB   string  `json:"optionB"`
	Intensity float64 `json:"intensity"`
}

func (g *Generator) fromAI(ctx context.Context, roleA, roleB, theme string, round int, intensity float64) (*game.Scenario, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		`Invent a "who would rather" scenario for a party game between %s and %s. Theme: %s, round %d, spice level %.1f (0.1 tame to 1.0 spicy). Respond with JSON: {"prompt": "...", "optionA": "why %s fits", "optionB": "why %s fits", "intensity": 0.5}`,
		roleA, roleB, theme, round, clampIntensity(intensity), roleA, roleB,
	)
	text, err := g.provider.CompleteWithSystem(cctx, g.model, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	parsed, err := parseScenario(text)
	if err != nil {
		return nil, err
	}
	if parsed.Intensity == 0 {
		parsed.Intensity = intensity
	}
	return &game.Scenario{
		ID:        uuid.NewString(),
		Round:     round,
		Prompt:    parsed.Prompt,
		OptionA:   parsed.OptionA,
		OptionB:   parsed.OptionB,
		Intensity: clampIntensity(parsed.Intensity),
	}, nil
}

// parseScenario tolerates models that wrap their JSON in markdown code
// fences. Anything else malformed is an error and handled like a network
// failure upstream.
func parseScenario(text string) (*aiScenario, error) {
	var sc aiScenario
	if err := json.Unmarshal([]byte(stripFences(text)), &sc); err != nil {
		return nil, fmt.Errorf("bad scenario json: %w", err)
	}
	if sc.Prompt == "" || sc.OptionA == "" || sc.OptionB == "" {
		return nil, errors.New("scenario json missing fields")
	}
	return &sc, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (g *Generator) fallback(roleA, roleB, theme string, round int, intensity float64) *game.Scenario {
	tpl := templateFor(theme, round)
	return &game.Scenario{
		ID:        uuid.NewString(),
		Round:     round,
		Prompt:    fmt.Sprintf(tpl.Prompt, roleA, roleB),
		OptionA:   fmt.Sprintf(tpl.OptionA, roleA, roleB),
		OptionB:   fmt.Sprintf(tpl.OptionB, roleA, roleB),
		Intensity: pickIntensity(intensity, tpl.Intensity),
	}
}

func pickIntensity(requested, tplDefault float64) float64 {
	if requested > 0 {
		return clampIntensity(requested)
	}
	return clampIntensity(tplDefault)
}

func clampIntensity(v float64) float64 {
	switch {
	case v <= 0:
		return 0.5
	case v < 0.1:
		return 0.1
	case v > 1.0:
		return 1.0
	}
	return v
}
