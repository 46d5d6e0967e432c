package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kiliankoe/faceoff/internal/game"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type sessionDTO struct {
	Code         string     `db:"code"`
	RoleAName    string     `db:"role_a_name"`
	RoleBName    string     `db:"role_b_name"`
	AdminPIN     string     `db:"admin_pin"`
	Theme        string     `db:"theme"`
	Status       string     `db:"status"`
	CurrentRound int        `db:"current_round"`
	TotalRounds  int        `db:"total_rounds"`
	CreatedAt    time.Time  `db:"created_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}

func (d sessionDTO) model() *game.Session {
	return &game.Session{
		Code:         d.Code,
		RoleAName:    d.RoleAName,
		RoleBName:    d.RoleBName,
		AdminPIN:     d.AdminPIN,
		Theme:        d.Theme,
		Status:       game.Status(d.Status),
		CurrentRound: d.CurrentRound,
		TotalRounds:  d.TotalRounds,
		CreatedAt:    d.CreatedAt,
		StartedAt:    d.StartedAt,
		CompletedAt:  d.CompletedAt,
	}
}

func (st *Store) CreateSession(ctx context.Context, s *game.Session) error {
	query := `
		INSERT INTO sessions (code, role_a_name, role_b_name, admin_pin, theme, status, current_round, total_rounds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := st.db.ExecContext(ctx, query,
		s.Code, s.RoleAName, s.RoleBName, s.AdminPIN, s.Theme,
		string(s.Status), s.CurrentRound, s.TotalRounds, s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return game.ErrCodeConflict
	}
	return err
}

func (st *Store) GetSession(ctx context.Context, code string) (*game.Session, error) {
	var dto sessionDTO
	query := `SELECT * FROM sessions WHERE code = $1`
	if err := st.db.GetContext(ctx, &dto, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrSessionNotFound
		}
		return nil, err
	}
	return dto.model(), nil
}

func (st *Store) UpdateSession(ctx context.Context, s *game.Session) error {
	query := `
		UPDATE sessions
		SET status = $1, current_round = $2, total_rounds = $3, started_at = $4, completed_at = $5
		WHERE code = $6
	`
	res, err := st.db.ExecContext(ctx, query,
		string(s.Status), s.CurrentRound, s.TotalRounds, s.StartedAt, s.CompletedAt, s.Code,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}

// AddParticipant marks the first row for a session as admin inside the insert
// itself, so two simultaneous joiners cannot both win the flag.
func (st *Store) AddParticipant(ctx context.Context, code string, p *game.Participant) error {
	query := `
		INSERT INTO participants (id, session_code, name, is_admin, joined_at)
		VALUES ($1, $2, $3,
		        NOT EXISTS (SELECT 1 FROM participants WHERE session_code = $2),
		        $4)
		RETURNING is_admin
	`
	err := st.db.QueryRowContext(ctx, query, p.ID, code, p.Name, p.JoinedAt).Scan(&p.IsAdmin)
	if isUniqueViolation(err) {
		return game.ErrNameTaken
	}
	if isForeignKeyViolation(err) {
		return game.ErrSessionNotFound
	}
	return err
}

func (st *Store) Participants(ctx context.Context, code string) ([]game.Participant, error) {
	type dto struct {
		ID       string    `db:"id"`
		Name     string    `db:"name"`
		IsAdmin  bool      `db:"is_admin"`
		JoinedAt time.Time `db:"joined_at"`
	}
	var rows []dto
	query := `SELECT id, name, is_admin, joined_at FROM participants WHERE session_code = $1 ORDER BY joined_at`
	if err := st.db.SelectContext(ctx, &rows, query, code); err != nil {
		return nil, err
	}
	out := make([]game.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, game.Participant{ID: r.ID, Name: r.Name, IsAdmin: r.IsAdmin, JoinedAt: r.JoinedAt})
	}
	return out, nil
}

func (st *Store) CreateScenarios(ctx context.Context, code string, scs []*game.Scenario) error {
	tx, err := st.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO scenarios (id, session_code, round, prompt, option_a, option_b, intensity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, sc := range scs {
		if _, err := tx.ExecContext(ctx, query,
			sc.ID, code, sc.Round, sc.Prompt, sc.OptionA, sc.OptionB, sc.Intensity, sc.IsActive,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (st *Store) ScenarioForRound(ctx context.Context, code string, round int) (*game.Scenario, error) {
	type dto struct {
		ID        string  `db:"id"`
		Round     int     `db:"round"`
		Prompt    string  `db:"prompt"`
		OptionA   string  `db:"option_a"`
		OptionB   string  `db:"option_b"`
		Intensity float64 `db:"intensity"`
		IsActive  bool    `db:"is_active"`
	}
	var row dto
	query := `
		SELECT id, round, prompt, option_a, option_b, intensity, is_active
		FROM scenarios WHERE session_code = $1 AND round = $2
	`
	if err := st.db.GetContext(ctx, &row, query, code, round); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrScenarioNotFound
		}
		return nil, err
	}
	return &game.Scenario{
		ID: row.ID, Round: row.Round, Prompt: row.Prompt,
		OptionA: row.OptionA, OptionB: row.OptionB,
		Intensity: row.Intensity, IsActive: row.IsActive,
	}, nil
}

func (st *Store) SetScenarioActive(ctx context.Context, scenarioID string, active bool) error {
	res, err := st.db.ExecContext(ctx, `UPDATE scenarios SET is_active = $1 WHERE id = $2`, active, scenarioID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrScenarioNotFound
	}
	return nil
}

// UpsertVote writes the guest's current choice. Voter names are stored
// lowercased so the ledger key is case-insensitive like the participants
// index, and the insert re-checks is_active inside the statement so a vote
// racing a reveal cannot land after the result snapshot.
func (st *Store) UpsertVote(ctx context.Context, v *game.Vote) error {
	query := `
		INSERT INTO votes (scenario_id, voter_name, choice, cast_at)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM scenarios WHERE id = $1 AND is_active)
		ON CONFLICT (scenario_id, voter_name)
		DO UPDATE SET choice = EXCLUDED.choice, cast_at = EXCLUDED.cast_at
	`
	res, err := st.db.ExecContext(ctx, query, v.ScenarioID, strings.ToLower(v.Voter), string(v.Choice), v.CastAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return game.ErrScenarioNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var active bool
		err := st.db.GetContext(ctx, &active, `SELECT is_active FROM scenarios WHERE id = $1`, v.ScenarioID)
		if errors.Is(err, sql.ErrNoRows) {
			return game.ErrScenarioNotFound
		}
		if err != nil {
			return err
		}
		return game.ErrScenarioInactive
	}
	return nil
}

// Tally recounts the ledger rows every time; there is no counter to drift
// under concurrent writers.
func (st *Store) Tally(ctx context.Context, scenarioID string) (game.Tally, error) {
	type dto struct {
		Choice string `db:"choice"`
		Votes  int    `db:"votes"`
	}
	var rows []dto
	query := `SELECT choice, COUNT(*) AS votes FROM votes WHERE scenario_id = $1 GROUP BY choice`
	if err := st.db.SelectContext(ctx, &rows, query, scenarioID); err != nil {
		return game.Tally{}, err
	}
	a, b := 0, 0
	for _, r := range rows {
		switch game.Choice(r.Choice) {
		case game.ChoiceA:
			a = r.Votes
		case game.ChoiceB:
			b = r.Votes
		}
	}
	return game.NewTally(a, b), nil
}

func (st *Store) SaveResult(ctx context.Context, r *game.RoundResult) error {
	query := `
		INSERT INTO round_results (scenario_id, round, count_a, count_b, winner, commentary, revealed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := st.db.ExecContext(ctx, query,
		r.ScenarioID, r.Round, r.CountA, r.CountB, string(r.Winner), r.Commentary, r.RevealedAt,
	)
	if isForeignKeyViolation(err) {
		return game.ErrScenarioNotFound
	}
	return err
}

func (st *Store) Results(ctx context.Context, code string) ([]game.RoundResult, error) {
	type dto struct {
		ScenarioID string    `db:"scenario_id"`
		Round      int       `db:"round"`
		CountA     int       `db:"count_a"`
		CountB     int       `db:"count_b"`
		Winner     string    `db:"winner"`
		Commentary string    `db:"commentary"`
		RevealedAt time.Time `db:"revealed_at"`
	}
	var rows []dto
	query := `
		SELECT r.scenario_id, r.round, r.count_a, r.count_b, r.winner, r.commentary, r.revealed_at
		FROM round_results r
		JOIN scenarios s ON s.id = r.scenario_id
		WHERE s.session_code = $1
		ORDER BY r.round
	`
	if err := st.db.SelectContext(ctx, &rows, query, code); err != nil {
		return nil, err
	}
	out := make([]game.RoundResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, game.RoundResult{
			ScenarioID: r.ScenarioID, Round: r.Round,
			CountA: r.CountA, CountB: r.CountB,
			Winner: game.Choice(r.Winner), Commentary: r.Commentary, RevealedAt: r.RevealedAt,
		})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
