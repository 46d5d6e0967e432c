package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const createRetries = 5

// Controller coordinates session status transitions. Admin-gated actions
// (start, reveal, next round) verify the session PIN and reject rather than
// silently ignore invalid requests.
type Controller struct {
	store Store
	gen   Generator
	bus   Broadcaster
	log   zerolog.Logger
}

func NewController(store Store, gen Generator, bus Broadcaster, log zerolog.Logger) *Controller {
	return &Controller{store: store, gen: gen, bus: bus, log: log}
}

type JoinResult struct {
	Player  Participant   `json:"player"`
	Players []Participant `json:"players"`
	Session *Session      `json:"session"`
}

type StartResult struct {
	Session   *Session    `json:"session"`
	Scenarios []*Scenario `json:"scenarios"`
}

type AdvanceResult struct {
	Status   Status        `json:"status"`
	Round    int           `json:"round,omitempty"`
	Scenario *Scenario     `json:"scenario,omitempty"`
	Final    *FinalSummary `json:"final,omitempty"`
}

// Create inserts a fresh session in setup with round 0. Codes can collide
// with a live session, so generation retries a few times before giving up.
func (c *Controller) Create(ctx context.Context, roleA, roleB string, totalRounds int, theme string) (*Session, error) {
	roleA, err := cleanName(roleA)
	if err != nil {
		return nil, err
	}
	roleB, err = cleanName(roleB)
	if err != nil {
		return nil, err
	}
	if totalRounds == 0 {
		totalRounds = DefaultRounds
	}
	if totalRounds < 1 || totalRounds > MaxRounds {
		return nil, fmt.Errorf("%w: total rounds must be 1-%d", ErrValidation, MaxRounds)
	}
	if theme == "" {
		theme = "classic"
	}

	s := &Session{
		RoleAName:   roleA,
		RoleBName:   roleB,
		AdminPIN:    randomPIN(),
		Theme:       theme,
		Status:      StatusSetup,
		TotalRounds: totalRounds,
		CreatedAt:   time.Now().UTC(),
	}
	for i := 0; i < createRetries; i++ {
		s.Code = randomCode(CodeLen)
		err = c.store.CreateSession(ctx, s)
		if err == nil {
			c.log.Info().Str("code", s.Code).Int("rounds", totalRounds).Msg("session created")
			return s, nil
		}
		if err != ErrCodeConflict {
			return nil, err
		}
	}
	return nil, ErrCodeConflict
}

// Join adds a participant. The first participant ever written to a session is
// marked admin by the store, atomically, so two simultaneous joiners cannot
// both claim the flag.
func (c *Controller) Join(ctx context.Context, code, name string) (*JoinResult, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	s, err := c.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusSetup && s.Status != StatusVoting {
		return nil, fmt.Errorf("%w: cannot join a %s session", ErrInvalidState, s.Status)
	}

	p := &Participant{ID: uuid.NewString(), Name: name, JoinedAt: time.Now().UTC()}
	if err := c.store.AddParticipant(ctx, code, p); err != nil {
		return nil, err
	}
	players, err := c.store.Participants(ctx, code)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("code", code).Str("name", name).Bool("admin", p.IsAdmin).Msg("player joined")
	c.publish(LobbyTopic(code), Event{Type: EventPlayerJoined, Payload: map[string]any{
		"player":  p,
		"players": players,
	}})
	return &JoinResult{Player: *p, Players: players, Session: s}, nil
}

// Start generates every round's scenario up front so no AI latency lands
// mid-game, activates round 1 and moves the session to voting.
func (c *Controller) Start(ctx context.Context, code, pin string, totalRounds int, intensity float64) (*StartResult, error) {
	s, err := c.adminSession(ctx, code, pin)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusSetup {
		return nil, fmt.Errorf("%w: start requires setup, session is %s", ErrInvalidState, s.Status)
	}
	if totalRounds != 0 {
		if totalRounds < 1 || totalRounds > MaxRounds {
			return nil, fmt.Errorf("%w: total rounds must be 1-%d", ErrValidation, MaxRounds)
		}
		s.TotalRounds = totalRounds
	}
	if intensity == 0 {
		intensity = 0.5
	}

	scs := c.gen.Scenarios(ctx, s.RoleAName, s.RoleBName, s.Theme, s.TotalRounds, intensity)
	scs[0].IsActive = true
	if err := c.store.CreateScenarios(ctx, code, scs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.Status = StatusVoting
	s.CurrentRound = 1
	s.StartedAt = &now
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	c.log.Info().Str("code", code).Int("rounds", s.TotalRounds).Msg("game started")
	c.publish(LobbyTopic(code), Event{Type: EventGameStarted, Payload: map[string]any{
		"round":    1,
		"scenario": scs[0],
	}})
	c.publish(GameTopic(code), Event{Type: EventRoundNew, Payload: map[string]any{
		"round":    1,
		"scenario": scs[0],
	}})
	return &StartResult{Session: s, Scenarios: scs}, nil
}

// Vote upserts the guest's choice for the active round and broadcasts a tally
// recomputed from the ledger. A round number that doesn't match the session's
// current round means the caller's view is stale.
func (c *Controller) Vote(ctx context.Context, code, voter string, round int, choice Choice) (Tally, error) {
	voter, err := cleanName(voter)
	if err != nil {
		return Tally{}, err
	}
	if choice != ChoiceA && choice != ChoiceB {
		return Tally{}, fmt.Errorf("%w: choice must be A or B", ErrValidation)
	}
	s, err := c.store.GetSession(ctx, code)
	if err != nil {
		return Tally{}, err
	}
	if s.Status != StatusVoting {
		return Tally{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if round != s.CurrentRound {
		return Tally{}, fmt.Errorf("%w: voted round %d, current is %d", ErrRoundMismatch, round, s.CurrentRound)
	}
	sc, err := c.store.ScenarioForRound(ctx, code, round)
	if err != nil {
		return Tally{}, err
	}
	if !sc.IsActive {
		return Tally{}, ErrScenarioInactive
	}

	v := &Vote{ScenarioID: sc.ID, Voter: voter, Choice: choice, CastAt: time.Now().UTC()}
	if err := c.store.UpsertVote(ctx, v); err != nil {
		return Tally{}, err
	}
	tally, err := c.store.Tally(ctx, sc.ID)
	if err != nil {
		return Tally{}, err
	}
	c.publish(GameTopic(code), Event{Type: EventVoteUpdate, Payload: map[string]any{
		"round": round,
		"tally": tally,
	}})
	return tally, nil
}

// Reveal freezes voting for the current round, materializes the result from a
// ledger snapshot and broadcasts it. The scenario is deactivated before the
// tally is read, and the stores re-check activity inside the vote write, so a
// vote racing the reveal lands either fully in or fully out.
func (c *Controller) Reveal(ctx context.Context, code, pin string, round int) (*RoundResult, error) {
	s, err := c.adminSession(ctx, code, pin)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusVoting {
		return nil, fmt.Errorf("%w: reveal requires voting, session is %s", ErrInvalidState, s.Status)
	}
	if round != s.CurrentRound {
		return nil, fmt.Errorf("%w: reveal for round %d, current is %d", ErrRoundMismatch, round, s.CurrentRound)
	}
	sc, err := c.store.ScenarioForRound(ctx, code, round)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetScenarioActive(ctx, sc.ID, false); err != nil {
		return nil, err
	}
	tally, err := c.store.Tally(ctx, sc.ID)
	if err != nil {
		return nil, err
	}

	// A wins ties; clients can tell from the counts.
	winner := ChoiceA
	if tally.B > tally.A {
		winner = ChoiceB
	}
	res := &RoundResult{
		ScenarioID: sc.ID,
		Round:      round,
		CountA:     tally.A,
		CountB:     tally.B,
		Winner:     winner,
		RevealedAt: time.Now().UTC(),
	}
	res.Commentary = c.gen.Roast(ctx, s.RoleAName, s.RoleBName, sc, res)
	if err := c.store.SaveResult(ctx, res); err != nil {
		return nil, err
	}

	s.Status = StatusRevealed
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	c.log.Info().Str("code", code).Int("round", round).Str("winner", string(winner)).Msg("round revealed")
	c.publish(GameTopic(code), Event{Type: EventRoundReveal, Payload: map[string]any{
		"result": res,
	}})
	return res, nil
}

// NextRound activates the next pre-generated scenario, or completes the game
// after the final round.
func (c *Controller) NextRound(ctx context.Context, code, pin string) (*AdvanceResult, error) {
	s, err := c.adminSession(ctx, code, pin)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusRevealed {
		return nil, fmt.Errorf("%w: next round requires revealed, session is %s", ErrInvalidState, s.Status)
	}

	if s.CurrentRound < s.TotalRounds {
		s.CurrentRound++
		sc, err := c.store.ScenarioForRound(ctx, code, s.CurrentRound)
		if err != nil {
			return nil, err
		}
		if err := c.store.SetScenarioActive(ctx, sc.ID, true); err != nil {
			return nil, err
		}
		sc.IsActive = true
		s.Status = StatusVoting
		if err := c.store.UpdateSession(ctx, s); err != nil {
			return nil, err
		}
		c.log.Info().Str("code", code).Int("round", s.CurrentRound).Msg("round advanced")
		c.publish(GameTopic(code), Event{Type: EventRoundNew, Payload: map[string]any{
			"round":    s.CurrentRound,
			"scenario": sc,
		}})
		return &AdvanceResult{Status: StatusVoting, Round: s.CurrentRound, Scenario: sc}, nil
	}

	now := time.Now().UTC()
	s.Status = StatusComplete
	s.CompletedAt = &now
	if err := c.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	final, err := c.finalSummary(ctx, code)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("code", code).Msg("game complete")
	c.publish(GameTopic(code), Event{Type: EventGameComplete, Payload: map[string]any{
		"final": final,
	}})
	return &AdvanceResult{Status: StatusComplete, Final: final}, nil
}

// Snapshot returns everything a client needs to rebuild its view from
// scratch: session, players, active scenario with live tally, and all
// revealed results.
func (c *Controller) Snapshot(ctx context.Context, code string) (*Snapshot, error) {
	s, err := c.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	players, err := c.store.Participants(ctx, code)
	if err != nil {
		return nil, err
	}
	results, err := c.store.Results(ctx, code)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Session: s, Players: players, Results: results}
	if s.CurrentRound >= 1 {
		sc, err := c.store.ScenarioForRound(ctx, code, s.CurrentRound)
		if err != nil {
			return nil, err
		}
		tally, err := c.store.Tally(ctx, sc.ID)
		if err != nil {
			return nil, err
		}
		snap.Scenario = sc
		snap.Tally = &tally
	}
	return snap, nil
}

func (c *Controller) finalSummary(ctx context.Context, code string) (*FinalSummary, error) {
	results, err := c.store.Results(ctx, code)
	if err != nil {
		return nil, err
	}
	final := &FinalSummary{Rounds: results}
	for _, r := range results {
		final.TotalA += r.CountA
		final.TotalB += r.CountB
	}
	final.OverallWinner = ChoiceA
	if final.TotalB > final.TotalA {
		final.OverallWinner = ChoiceB
	}
	return final, nil
}

func (c *Controller) adminSession(ctx context.Context, code, pin string) (*Session, error) {
	s, err := c.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if pin != s.AdminPIN {
		return nil, ErrWrongPIN
	}
	return s, nil
}

func (c *Controller) publish(topic string, ev Event) {
	if c.bus != nil {
		c.bus.Publish(topic, ev)
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if len(name) > MaxNameLen {
		return "", fmt.Errorf("%w: name longer than %d chars", ErrValidation, MaxNameLen)
	}
	return name, nil
}
