package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresGraphStore keeps serialized graphs in a single keyed table.
type PostgresGraphStore struct {
	db *sql.DB
}

func NewPostgresGraphStore(dsn string) (*PostgresGraphStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &PostgresGraphStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresGraphStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS road_graphs (
        area_key   text PRIMARY KEY,
        payload    jsonb NOT NULL,
        updated_at timestamptz NOT NULL DEFAULT now()
    )`)
	return err
}

func (s *PostgresGraphStore) LoadGraph(ctx context.Context, areaKey string) (*RoadGraph, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM road_graphs WHERE area_key=$1`, areaKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGraphNotFound
	}
	if err != nil {
		return nil, err
	}
	var g RoadGraph
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, fmt.Errorf("decode graph %s: %w", areaKey, err)
	}
	return &g, nil
}

func (s *PostgresGraphStore) SaveGraph(ctx context.Context, areaKey string, g *RoadGraph) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO road_graphs (area_key, payload, updated_at) VALUES ($1,$2,now())
         ON CONFLICT (area_key) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()`,
		areaKey, payload)
	return err
}
