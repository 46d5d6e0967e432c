// Package storetest holds behavior checks every Store backend must pass, so
// the memory and postgres implementations cannot drift apart on ledger
// semantics.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kiliankoe/faceoff/internal/game"
)

func seed(t *testing.T, st game.Store) *game.Scenario {
	t.Helper()
	ctx := context.Background()
	s := &game.Session{
		Code:         "T" + uuid.NewString()[:7],
		RoleAName:    "Sam",
		RoleBName:    "Lee",
		AdminPIN:     "1234",
		Theme:        "classic",
		Status:       game.StatusVoting,
		CurrentRound: 1,
		TotalRounds:  1,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateSession(ctx, s))
	sc := &game.Scenario{
		ID:        uuid.NewString(),
		Round:     1,
		Prompt:    "Who hides the good snacks?",
		OptionA:   "Sam",
		OptionB:   "Lee",
		Intensity: 0.5,
		IsActive:  true,
	}
	require.NoError(t, st.CreateScenarios(ctx, s.Code, []*game.Scenario{sc}))
	return sc
}

// VoteIdentity checks that the voter name identifies a vote ignoring case:
// re-voting under any casing replaces the earlier row, never adds one.
func VoteIdentity(t *testing.T, st game.Store) {
	ctx := context.Background()
	sc := seed(t, st)

	cast := func(voter string, choice game.Choice) {
		t.Helper()
		require.NoError(t, st.UpsertVote(ctx, &game.Vote{
			ScenarioID: sc.ID, Voter: voter, Choice: choice, CastAt: time.Now().UTC(),
		}))
	}
	cast("Ann", game.ChoiceA)
	cast("ann", game.ChoiceB)
	cast("ANN", game.ChoiceB)

	tally, err := st.Tally(ctx, sc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, tally.Total, "one guest, one counted vote")
	require.Equal(t, 0, tally.A)
	require.Equal(t, 1, tally.B)
}

// InactiveVote checks the store refuses writes to a deactivated scenario, so
// a vote racing a reveal cannot land after the result snapshot.
func InactiveVote(t *testing.T, st game.Store) {
	ctx := context.Background()
	sc := seed(t, st)
	require.NoError(t, st.SetScenarioActive(ctx, sc.ID, false))

	err := st.UpsertVote(ctx, &game.Vote{
		ScenarioID: sc.ID, Voter: "Ann", Choice: game.ChoiceA, CastAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, game.ErrScenarioInactive)

	tally, err := st.Tally(ctx, sc.ID)
	require.NoError(t, err)
	require.Equal(t, 0, tally.Total)
}
