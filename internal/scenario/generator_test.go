package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiliankoe/faceoff/internal/game"
)

type fakeProvider struct {
	reply string
	err   error
	block bool
}

func (f *fakeProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, model, "", prompt)
}

func (f *fakeProvider) CompleteWithSystem(ctx context.Context, model, system, prompt string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func requireValid(t *testing.T, sc *game.Scenario) {
	t.Helper()
	require.NotNil(t, sc)
	require.NotEmpty(t, sc.Prompt)
	require.NotEmpty(t, sc.OptionA)
	require.NotEmpty(t, sc.OptionB)
	require.GreaterOrEqual(t, sc.Intensity, 0.1)
	require.LessOrEqual(t, sc.Intensity, 1.0)
}

func TestGenerateParsesFencedJSON(t *testing.T) {
	p := &fakeProvider{reply: "```json\n{\"prompt\": \"Who burns the toast?\", \"optionA\": \"Sam, always\", \"optionB\": \"Lee, on purpose\", \"intensity\": 0.7}\n```"}
	g := New(p, "test-model", zerolog.Nop())

	sc := g.Generate(context.Background(), "Sam", "Lee", "classic", 1, 0.5)
	requireValid(t, sc)
	assert.Equal(t, "Who burns the toast?", sc.Prompt)
	assert.Equal(t, "Sam, always", sc.OptionA)
	assert.Equal(t, "Lee, on purpose", sc.OptionB)
	assert.Equal(t, 0.7, sc.Intensity)
	assert.Equal(t, 1, sc.Round)
}

func TestGenerateFallsBack(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("boom")}},
		{"non-json reply", &fakeProvider{reply: "sure! here's a fun scenario for you"}},
		{"empty reply", &fakeProvider{reply: ""}},
		{"json missing fields", &fakeProvider{reply: `{"prompt": "x"}`}},
		{"timeout", &fakeProvider{block: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(tc.provider, "test-model", zerolog.Nop())
			g.timeout = 20 * time.Millisecond

			sc := g.Generate(context.Background(), "Sam", "Lee", "classic", 2, 0.5)
			requireValid(t, sc)
			// fallback substitutes the role names
			assert.Contains(t, sc.OptionA, "Sam")
			assert.Contains(t, sc.OptionB, "Lee")
		})
	}
}

func TestGenerateNilProvider(t *testing.T) {
	g := New(nil, "", zerolog.Nop())
	sc := g.Generate(context.Background(), "Sam", "Lee", "classic", 1, 0)
	requireValid(t, sc)
}

func TestScenariosCoversAllRounds(t *testing.T) {
	g := New(nil, "", zerolog.Nop())
	scs := g.Scenarios(context.Background(), "Sam", "Lee", "nosuchtheme", game.MaxRounds, 0.8)
	require.Len(t, scs, game.MaxRounds)
	for i, sc := range scs {
		requireValid(t, sc)
		assert.Equal(t, i+1, sc.Round)
		assert.False(t, sc.IsActive)
		assert.Equal(t, 0.8, sc.Intensity)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"```json\n{\n\"a\": 1\n}\n```", "{\n\"a\": 1\n}"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripFences(tc.in), "input %q", tc.in)
	}
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 0.5, clampIntensity(0))
	assert.Equal(t, 0.5, clampIntensity(-3))
	assert.Equal(t, 0.1, clampIntensity(0.05))
	assert.Equal(t, 1.0, clampIntensity(7))
	assert.Equal(t, 0.4, clampIntensity(0.4))
}

func TestRoastFallback(t *testing.T) {
	g := New(&fakeProvider{err: errors.New("down")}, "test-model", zerolog.Nop())
	sc := &game.Scenario{Prompt: "Who burns the toast?"}

	res := &game.RoundResult{Round: 1, CountA: 3, CountB: 1, Winner: game.ChoiceA}
	roast := g.Roast(context.Background(), "Sam", "Lee", sc, res)
	require.NotEmpty(t, roast)
	assert.Contains(t, roast, "Sam") // A has more votes, roast names A's holder

	tie := &game.RoundResult{Round: 2, CountA: 2, CountB: 2, Winner: game.ChoiceA}
	roast = g.Roast(context.Background(), "Sam", "Lee", sc, tie)
	assert.Contains(t, roast, "Sam")
	assert.Contains(t, roast, "Lee")
}

func TestRoastFromAI(t *testing.T) {
	g := New(&fakeProvider{reply: "  The room has decided, and it wasn't close.  "}, "test-model", zerolog.Nop())
	sc := &game.Scenario{Prompt: "Who burns the toast?"}
	res := &game.RoundResult{Round: 1, CountA: 5, CountB: 0, Winner: game.ChoiceA}
	assert.Equal(t, "The room has decided, and it wasn't close.", g.Roast(context.Background(), "Sam", "Lee", sc, res))
}
