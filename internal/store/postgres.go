package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fullstackslife/guild-scout-reports/internal/db"
	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection: the
// hot path is one reconciliation insert plus one profile read and upsert per
// submission.
var preparedStatements = map[string]string{
	"insert_reconciliation": `INSERT INTO reconciliations (id, report_id, contributor_id, guild, result, match_percent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_reconciliation":    `SELECT id, report_id, contributor_id, guild, result, created_at FROM reconciliations WHERE id = $1`,
	"get_profile":           `SELECT id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at FROM credibility_profiles WHERE contributor_id = $1 AND guild = $2`,
	"upsert_profile":        `INSERT INTO credibility_profiles (id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (contributor_id, guild) DO UPDATE SET total_entries = EXCLUDED.total_entries, accurate_entries = EXCLUDED.accurate_entries, field_accuracy = EXCLUDED.field_accuracy, last_calculated_at = EXCLUDED.last_calculated_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reconciliations (
	id             TEXT PRIMARY KEY,
	report_id      TEXT NOT NULL,
	contributor_id TEXT NOT NULL,
	guild          TEXT NOT NULL DEFAULT '',
	result         JSONB NOT NULL,
	match_percent  DOUBLE PRECISION NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS credibility_profiles (
	id                 TEXT PRIMARY KEY,
	contributor_id     TEXT NOT NULL,
	guild              TEXT NOT NULL DEFAULT '',
	total_entries      INTEGER NOT NULL DEFAULT 0,
	accurate_entries   INTEGER NOT NULL DEFAULT 0,
	field_accuracy     JSONB,
	last_calculated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (contributor_id, guild)
);

CREATE INDEX IF NOT EXISTS idx_reconciliations_report ON reconciliations(report_id);
CREATE INDEX IF NOT EXISTS idx_reconciliations_contributor ON reconciliations(contributor_id);
CREATE INDEX IF NOT EXISTS idx_profiles_guild ON credibility_profiles(guild);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveReconciliation(ctx context.Context, rec *model.ReconciliationRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reconciliations (id, report_id, contributor_id, guild, result, match_percent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.ReportID, rec.ContributorID, rec.Guild,
		resultJSON, rec.Result.OverallMatchPercent, createdAt,
	)
	return eris.Wrapf(err, "postgres: insert reconciliation %s", rec.ID)
}

func (s *PostgresStore) GetReconciliation(ctx context.Context, id string) (*model.ReconciliationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, report_id, contributor_id, guild, result, created_at FROM reconciliations WHERE id = $1`,
		id,
	)

	var r model.ReconciliationRecord
	var resultJSON []byte
	err := row.Scan(&r.ID, &r.ReportID, &r.ContributorID, &r.Guild, &resultJSON, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: reconciliation not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get reconciliation")
	}

	r.Result = &model.ReconciliationResult{}
	if err := json.Unmarshal(resultJSON, r.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &r, nil
}

func (s *PostgresStore) ListReconciliations(ctx context.Context, filter ReconciliationFilter) ([]model.ReconciliationRecord, error) {
	query := `SELECT id, report_id, contributor_id, guild, result, created_at FROM reconciliations WHERE 1=1`
	var args []any

	if filter.ContributorID != "" {
		args = append(args, filter.ContributorID)
		query += ` AND contributor_id = $1`
	}
	if filter.ReportID != "" {
		args = append(args, filter.ReportID)
		query += placeholder(` AND report_id = `, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += placeholder(` LIMIT `, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += placeholder(` OFFSET `, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reconciliations")
	}
	defer rows.Close()

	var recs []model.ReconciliationRecord
	for rows.Next() {
		var r model.ReconciliationRecord
		var resultJSON []byte
		if err := rows.Scan(&r.ID, &r.ReportID, &r.ContributorID, &r.Guild, &resultJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reconciliation")
		}
		r.Result = &model.ReconciliationResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list reconciliations iterate")
}

func (s *PostgresStore) GetProfile(ctx context.Context, contributorID, guild string) (*model.CredibilityProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at
		 FROM credibility_profiles WHERE contributor_id = $1 AND guild = $2`,
		contributorID, guild,
	)

	var p model.CredibilityProfile
	var fieldJSON []byte
	err := row.Scan(&p.ID, &p.ContributorID, &p.Guild,
		&p.TotalEntries, &p.AccurateEntries, &fieldJSON, &p.LastCalculatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get profile")
	}

	if len(fieldJSON) > 0 {
		if err := json.Unmarshal(fieldJSON, &p.FieldAccuracy); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal field accuracy")
		}
	}
	p.Derive()
	return &p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, profile *model.CredibilityProfile) error {
	fieldJSON, err := json.Marshal(profile.FieldAccuracy)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal field accuracy")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO credibility_profiles
			(id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (contributor_id, guild) DO UPDATE SET
			total_entries      = EXCLUDED.total_entries,
			accurate_entries   = EXCLUDED.accurate_entries,
			field_accuracy     = EXCLUDED.field_accuracy,
			last_calculated_at = EXCLUDED.last_calculated_at`,
		profile.ID, profile.ContributorID, profile.Guild,
		profile.TotalEntries, profile.AccurateEntries,
		fieldJSON, profile.LastCalculatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert profile %s", profile.ContributorID)
}

func (s *PostgresStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CredibilityProfile, error) {
	query := `SELECT id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at
		 FROM credibility_profiles WHERE 1=1`
	var args []any

	if filter.Guild != "" {
		args = append(args, filter.Guild)
		query += ` AND guild = $1`
	}
	query += ` ORDER BY contributor_id, guild`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += placeholder(` LIMIT `, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += placeholder(` OFFSET `, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	var profiles []model.CredibilityProfile
	for rows.Next() {
		var p model.CredibilityProfile
		var fieldJSON []byte
		if err := rows.Scan(&p.ID, &p.ContributorID, &p.Guild,
			&p.TotalEntries, &p.AccurateEntries, &fieldJSON, &p.LastCalculatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		if len(fieldJSON) > 0 {
			if err := json.Unmarshal(fieldJSON, &p.FieldAccuracy); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal field accuracy")
			}
		}
		p.Derive()
		if filter.Tier != "" && p.Tier != filter.Tier {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: list profiles iterate")
}

// placeholder appends a numbered pgx placeholder to a query fragment.
func placeholder(prefix string, n int) string {
	return prefix + "$" + strconv.Itoa(n)
}
