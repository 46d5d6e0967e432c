package game

import "context"

// Store is the durable record of sessions, participants, scenarios, votes and
// results. Consistency under concurrent voters rests on the implementation's
// vote upsert key (scenario, voter); the controller takes no locks of its own.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, code string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error

	// AddParticipant inserts the participant and atomically marks it admin
	// when it is the first one in the session. Display names are unique per
	// session, compared case-insensitively.
	AddParticipant(ctx context.Context, code string, p *Participant) error
	Participants(ctx context.Context, code string) ([]Participant, error)

	CreateScenarios(ctx context.Context, code string, scs []*Scenario) error
	ScenarioForRound(ctx context.Context, code string, round int) (*Scenario, error)
	SetScenarioActive(ctx context.Context, scenarioID string, active bool) error

	// UpsertVote replaces any prior vote by the same voter on the same
	// scenario (last write wins).
	UpsertVote(ctx context.Context, v *Vote) error
	Tally(ctx context.Context, scenarioID string) (Tally, error)

	SaveResult(ctx context.Context, r *RoundResult) error
	Results(ctx context.Context, code string) ([]RoundResult, error)
}
