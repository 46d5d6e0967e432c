package game

import "context"

// Event is the envelope pushed over the realtime channel. Delivery is
// best-effort at-most-once; every payload is a full replacement of the
// client's view for that concern, never a delta.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventPlayerJoined = "player_joined"
	EventGameStarted  = "game_started"
	EventRoundNew     = "round_new"
	EventVoteUpdate   = "vote_update"
	EventRoundReveal  = "round_reveal"
	EventGameComplete = "game_complete"
)

// LobbyTopic carries pre-game events, GameTopic in-game ones. Clients
// subscribe per screen and must re-subscribe on reconnect.
func LobbyTopic(code string) string { return "lobby:" + code }
func GameTopic(code string) string  { return "game:" + code }

type Broadcaster interface {
	Publish(topic string, ev Event)
}

// Generator produces round content. Implementations must not fail: when the
// upstream text service is unavailable they fall back to built-in templates.
type Generator interface {
	Scenarios(ctx context.Context, roleA, roleB, theme string, rounds int, intensity float64) []*Scenario
	Roast(ctx context.Context, roleA, roleB string, sc *Scenario, res *RoundResult) string
}
