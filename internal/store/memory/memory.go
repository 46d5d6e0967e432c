// Package memory is the in-process Store used for local parties and tests.
// It mirrors the semantics the postgres store gets from its constraints: the
// vote map key is (scenario, voter) and participant names are unique per
// session ignoring case.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kiliankoe/faceoff/internal/game"
)

type Store struct {
	mu sync.RWMutex

	sessions     map[string]*game.Session
	participants map[string][]*game.Participant
	scenarios    map[string][]*game.Scenario
	scenarioCode map[string]string // scenario ID -> session code
	votes        map[string]map[string]*game.Vote
	results      map[string][]*game.RoundResult
}

func New() *Store {
	return &Store{
		sessions:     make(map[string]*game.Session),
		participants: make(map[string][]*game.Participant),
		scenarios:    make(map[string][]*game.Scenario),
		scenarioCode: make(map[string]string),
		votes:        make(map[string]map[string]*game.Vote),
		results:      make(map[string][]*game.RoundResult),
	}
}

func (st *Store) CreateSession(_ context.Context, s *game.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[s.Code]; exists {
		return game.ErrCodeConflict
	}
	cp := *s
	st.sessions[s.Code] = &cp
	return nil
}

func (st *Store) GetSession(_ context.Context, code string) (*game.Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[code]
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (st *Store) UpdateSession(_ context.Context, s *game.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[s.Code]; !ok {
		return game.ErrSessionNotFound
	}
	cp := *s
	st.sessions[s.Code] = &cp
	return nil
}

func (st *Store) AddParticipant(_ context.Context, code string, p *game.Participant) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[code]; !ok {
		return game.ErrSessionNotFound
	}
	for _, existing := range st.participants[code] {
		if strings.EqualFold(existing.Name, p.Name) {
			return game.ErrNameTaken
		}
	}
	p.IsAdmin = len(st.participants[code]) == 0
	cp := *p
	st.participants[code] = append(st.participants[code], &cp)
	return nil
}

func (st *Store) Participants(_ context.Context, code string) ([]game.Participant, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if _, ok := st.sessions[code]; !ok {
		return nil, game.ErrSessionNotFound
	}
	out := make([]game.Participant, 0, len(st.participants[code]))
	for _, p := range st.participants[code] {
		out = append(out, *p)
	}
	return out, nil
}

func (st *Store) CreateScenarios(_ context.Context, code string, scs []*game.Scenario) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[code]; !ok {
		return game.ErrSessionNotFound
	}
	for _, sc := range scs {
		cp := *sc
		st.scenarios[code] = append(st.scenarios[code], &cp)
		st.scenarioCode[sc.ID] = code
	}
	return nil
}

func (st *Store) ScenarioForRound(_ context.Context, code string, round int) (*game.Scenario, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, sc := range st.scenarios[code] {
		if sc.Round == round {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, game.ErrScenarioNotFound
}

func (st *Store) SetScenarioActive(_ context.Context, scenarioID string, active bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	code, ok := st.scenarioCode[scenarioID]
	if !ok {
		return game.ErrScenarioNotFound
	}
	for _, sc := range st.scenarios[code] {
		if sc.ID == scenarioID {
			sc.IsActive = active
			return nil
		}
	}
	return game.ErrScenarioNotFound
}

// UpsertVote replaces the voter's previous choice, keyed ignoring case. The
// activity check happens under the same lock as the write so a vote racing a
// reveal cannot land after the result snapshot.
func (st *Store) UpsertVote(_ context.Context, v *game.Vote) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	code, ok := st.scenarioCode[v.ScenarioID]
	if !ok {
		return game.ErrScenarioNotFound
	}
	for _, sc := range st.scenarios[code] {
		if sc.ID == v.ScenarioID && !sc.IsActive {
			return game.ErrScenarioInactive
		}
	}
	if st.votes[v.ScenarioID] == nil {
		st.votes[v.ScenarioID] = make(map[string]*game.Vote)
	}
	cp := *v
	st.votes[v.ScenarioID][strings.ToLower(v.Voter)] = &cp
	return nil
}

func (st *Store) Tally(_ context.Context, scenarioID string) (game.Tally, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if _, ok := st.scenarioCode[scenarioID]; !ok {
		return game.Tally{}, game.ErrScenarioNotFound
	}
	a, b := 0, 0
	for _, v := range st.votes[scenarioID] {
		switch v.Choice {
		case game.ChoiceA:
			a++
		case game.ChoiceB:
			b++
		}
	}
	return game.NewTally(a, b), nil
}

func (st *Store) SaveResult(_ context.Context, r *game.RoundResult) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	code, ok := st.scenarioCode[r.ScenarioID]
	if !ok {
		return game.ErrScenarioNotFound
	}
	cp := *r
	st.results[code] = append(st.results[code], &cp)
	return nil
}

func (st *Store) Results(_ context.Context, code string) ([]game.RoundResult, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if _, ok := st.sessions[code]; !ok {
		return nil, game.ErrSessionNotFound
	}
	out := make([]game.RoundResult, 0, len(st.results[code]))
	for _, r := range st.results[code] {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out, nil
}
