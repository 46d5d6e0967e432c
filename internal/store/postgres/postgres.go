// Package postgres is the durable Store. The vote ledger's correctness under
// concurrent guests rests on the (scenario_id, voter_name) primary key: a
// second vote by the same guest is an upsert, never a second row. Voter names
// go into the key lowercased, matching the case-insensitive participants
// index.
package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kiliankoe/faceoff/internal/config"
)

func Connect(cfg config.Postgres) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
	return sqlx.Connect("postgres", dsn)
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	code          text PRIMARY KEY,
	role_a_name   text NOT NULL,
	role_b_name   text NOT NULL,
	admin_pin     text NOT NULL,
	theme         text NOT NULL,
	status        text NOT NULL,
	current_round int  NOT NULL DEFAULT 0,
	total_rounds  int  NOT NULL,
	created_at    timestamptz NOT NULL,
	started_at    timestamptz,
	completed_at  timestamptz
);

CREATE TABLE IF NOT EXISTS participants (
	id           uuid PRIMARY KEY,
	session_code text NOT NULL REFERENCES sessions(code),
	name         text NOT NULL,
	is_admin     boolean NOT NULL DEFAULT false,
	joined_at    timestamptz NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS participants_session_name
	ON participants (session_code, lower(name));

CREATE TABLE IF NOT EXISTS scenarios (
	id           uuid PRIMARY KEY,
	session_code text NOT NULL REFERENCES sessions(code),
	round        int  NOT NULL,
	prompt       text NOT NULL,
	option_a     text NOT NULL,
	option_b     text NOT NULL,
	intensity    double precision NOT NULL,
	is_active    boolean NOT NULL DEFAULT false,
	UNIQUE (session_code, round)
);

CREATE TABLE IF NOT EXISTS votes (
	scenario_id uuid NOT NULL REFERENCES scenarios(id),
	voter_name  text NOT NULL,
	choice      text NOT NULL,
	cast_at     timestamptz NOT NULL,
	PRIMARY KEY (scenario_id, voter_name)
);

CREATE TABLE IF NOT EXISTS round_results (
	scenario_id uuid PRIMARY KEY REFERENCES scenarios(id),
	round       int  NOT NULL,
	count_a     int  NOT NULL,
	count_b     int  NOT NULL,
	winner      text NOT NULL,
	commentary  text NOT NULL,
	revealed_at timestamptz NOT NULL
);
`

// MigrateSchema creates the tables on first run. Party scale doesn't warrant
// a migration tool.
func MigrateSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
