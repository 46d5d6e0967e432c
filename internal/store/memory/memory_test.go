package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiliankoe/faceoff/internal/game"
	"github.com/kiliankoe/faceoff/internal/store/memory"
	"github.com/kiliankoe/faceoff/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	t.Run("vote identity", func(t *testing.T) { storetest.VoteIdentity(t, memory.New()) })
	t.Run("inactive vote", func(t *testing.T) { storetest.InactiveVote(t, memory.New()) })
}

func seedSession(t *testing.T, st *memory.Store, code string) *game.Session {
	t.Helper()
	s := &game.Session{
		Code:        code,
		RoleAName:   "Sam",
		RoleBName:   "Lee",
		AdminPIN:    "1234",
		Theme:       "classic",
		Status:      game.StatusSetup,
		TotalRounds: 3,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.CreateSession(context.Background(), s))
	return s
}

func seedScenario(t *testing.T, st *memory.Store, code string, round int) *game.Scenario {
	t.Helper()
	sc := &game.Scenario{
		ID:        uuid.NewString(),
		Round:     round,
		Prompt:    "Who?",
		OptionA:   "Sam",
		OptionB:   "Lee",
		Intensity: 0.5,
		IsActive:  true,
	}
	require.NoError(t, st.CreateScenarios(context.Background(), code, []*game.Scenario{sc}))
	return sc
}

func TestSessionLifecycle(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	s := seedSession(t, st, "AAAAAA")

	assert.ErrorIs(t, st.CreateSession(ctx, s), game.ErrCodeConflict)

	got, err := st.GetSession(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.RoleAName)

	// returned session is a copy, mutating it must not leak into the store
	got.Status = game.StatusComplete
	again, err := st.GetSession(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, game.StatusSetup, again.Status)

	s.Status = game.StatusVoting
	require.NoError(t, st.UpdateSession(ctx, s))
	updated, err := st.GetSession(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, game.StatusVoting, updated.Status)

	_, err = st.GetSession(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
	assert.ErrorIs(t, st.UpdateSession(ctx, &game.Session{Code: "ZZZZZZ"}), game.ErrSessionNotFound)
}

func TestParticipants(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	seedSession(t, st, "AAAAAA")

	first := &game.Participant{ID: uuid.NewString(), Name: "Ann", JoinedAt: time.Now().UTC()}
	require.NoError(t, st.AddParticipant(ctx, "AAAAAA", first))
	assert.True(t, first.IsAdmin, "first participant becomes admin")

	second := &game.Participant{ID: uuid.NewString(), Name: "Ben", JoinedAt: time.Now().UTC()}
	require.NoError(t, st.AddParticipant(ctx, "AAAAAA", second))
	assert.False(t, second.IsAdmin)

	dup := &game.Participant{ID: uuid.NewString(), Name: "aNN", JoinedAt: time.Now().UTC()}
	assert.ErrorIs(t, st.AddParticipant(ctx, "AAAAAA", dup), game.ErrNameTaken)

	players, err := st.Participants(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Len(t, players, 2)

	assert.ErrorIs(t, st.AddParticipant(ctx, "ZZZZZZ", first), game.ErrSessionNotFound)
}

func TestVoteUpsertAndTally(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	seedSession(t, st, "AAAAAA")
	sc := seedScenario(t, st, "AAAAAA", 1)

	cast := func(voter string, choice game.Choice) {
		t.Helper()
		require.NoError(t, st.UpsertVote(ctx, &game.Vote{
			ScenarioID: sc.ID, Voter: voter, Choice: choice, CastAt: time.Now().UTC(),
		}))
	}

	cast("Ann", game.ChoiceA)
	cast("Ben", game.ChoiceB)
	cast("Cleo", game.ChoiceB)

	tally, err := st.Tally(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.A)
	assert.Equal(t, 2, tally.B)
	assert.Equal(t, 3, tally.Total)
	assert.Equal(t, 33, tally.PercentA)
	assert.Equal(t, 67, tally.PercentB)

	// replacement, including a differently cased voter name
	cast("ann", game.ChoiceB)
	tally, err = st.Tally(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.A)
	assert.Equal(t, 3, tally.B)

	err = st.UpsertVote(ctx, &game.Vote{ScenarioID: "nope", Voter: "Ann", Choice: game.ChoiceA})
	assert.ErrorIs(t, err, game.ErrScenarioNotFound)
}

func TestScenarioActivation(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	seedSession(t, st, "AAAAAA")
	sc := seedScenario(t, st, "AAAAAA", 1)

	require.NoError(t, st.SetScenarioActive(ctx, sc.ID, false))
	got, err := st.ScenarioForRound(ctx, "AAAAAA", 1)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// a frozen scenario rejects further votes
	err = st.UpsertVote(ctx, &game.Vote{ScenarioID: sc.ID, Voter: "Ann", Choice: game.ChoiceA})
	assert.ErrorIs(t, err, game.ErrScenarioInactive)

	require.NoError(t, st.SetScenarioActive(ctx, sc.ID, true))
	got, err = st.ScenarioForRound(ctx, "AAAAAA", 1)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = st.ScenarioForRound(ctx, "AAAAAA", 9)
	assert.ErrorIs(t, err, game.ErrScenarioNotFound)
	assert.ErrorIs(t, st.SetScenarioActive(ctx, "nope", true), game.ErrScenarioNotFound)
}

func TestResultsOrdered(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	seedSession(t, st, "AAAAAA")
	sc1 := seedScenario(t, st, "AAAAAA", 1)
	sc2 := seedScenario(t, st, "AAAAAA", 2)

	// saved out of order, read back by round
	require.NoError(t, st.SaveResult(ctx, &game.RoundResult{ScenarioID: sc2.ID, Round: 2, Winner: game.ChoiceB}))
	require.NoError(t, st.SaveResult(ctx, &game.RoundResult{ScenarioID: sc1.ID, Round: 1, Winner: game.ChoiceA}))

	results, err := st.Results(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Round)
	assert.Equal(t, 2, results[1].Round)
}
