package game

import (
	"time"
)

type Status string

const (
	StatusSetup    Status = "setup"
	StatusVoting   Status = "voting"
	StatusRevealed Status = "revealed"
	StatusComplete Status = "complete"
)

type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

const (
	DefaultRounds = 5
	MaxRounds     = 10
	MaxNameLen    = 40

	CodeLen = 6
	PINLen  = 4
)

type Session struct {
	Code         string     `json:"code"`
	RoleAName    string     `json:"roleAName"`
	RoleBName    string     `json:"roleBName"`
	AdminPIN     string     `json:"-"`
	Theme        string     `json:"theme"`
	Status       Status     `json:"status"`
	CurrentRound int        `json:"currentRound"`
	TotalRounds  int        `json:"totalRounds"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Scenario struct {
	ID        string  `json:"id"`
	Round     int     `json:"round"`
	Prompt    string  `json:"prompt"`
	OptionA   string  `json:"optionA"`
	OptionB   string  `json:"optionB"`
	Intensity float64 `json:"intensity"`
	IsActive  bool    `json:"isActive"`
}

type Vote struct {
	ScenarioID string    `json:"-"`
	Voter      string    `json:"voter"`
	Choice     Choice    `json:"choice"`
	CastAt     time.Time `json:"castAt"`
}

// Tally is always recomputed from the vote ledger, never kept as a running
// counter. Percentages are derived on construction and not persisted.
type Tally struct {
	A        int `json:"a"`
	B        int `json:"b"`
	Total    int `json:"total"`
	PercentA int `json:"percentA"`
	PercentB int `json:"percentB"`
}

func NewTally(a, b int) Tally {
	t := Tally{A: a, B: b, Total: a + b}
	if t.Total > 0 {
		t.PercentA = int(float64(a)/float64(t.Total)*100 + 0.5)
		t.PercentB = 100 - t.PercentA
	}
	return t
}

// RoundResult is materialized once at reveal time and never mutated. Winner is
// "A" on ties; the raw counts are included so clients can render a tie as such.
type RoundResult struct {
	ScenarioID string    `json:"-"`
	Round      int       `json:"round"`
	CountA     int       `json:"countA"`
	CountB     int       `json:"countB"`
	Winner     Choice    `json:"winner"`
	Commentary string    `json:"commentary"`
	RevealedAt time.Time `json:"revealedAt"`
}

// FinalSummary is the game_complete payload: all round results plus the
// cross-round totals.
type FinalSummary struct {
	Rounds        []RoundResult `json:"rounds"`
	TotalA        int           `json:"totalA"`
	TotalB        int           `json:"totalB"`
	OverallWinner Choice        `json:"overallWinner"`
}

// Snapshot is the full poll view a client resynchronizes from when it missed
// push events.
type Snapshot struct {
	Session  *Session      `json:"session"`
	Players  []Participant `json:"players"`
	Scenario *Scenario     `json:"scenario,omitempty"`
	Tally    *Tally        `json:"tally,omitempty"`
	Results  []RoundResult `json:"results"`
}
