package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reconciliations (
	id             TEXT PRIMARY KEY,
	report_id      TEXT NOT NULL,
	contributor_id TEXT NOT NULL,
	guild          TEXT NOT NULL DEFAULT '',
	result         TEXT NOT NULL,
	match_percent  REAL NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS credibility_profiles (
	id                 TEXT PRIMARY KEY,
	contributor_id     TEXT NOT NULL,
	guild              TEXT NOT NULL DEFAULT '',
	total_entries      INTEGER NOT NULL DEFAULT 0,
	accurate_entries   INTEGER NOT NULL DEFAULT 0,
	field_accuracy     TEXT,
	last_calculated_at DATETIME NOT NULL,
	UNIQUE(contributor_id, guild)
);

CREATE INDEX IF NOT EXISTS idx_reconciliations_report ON reconciliations(report_id);
CREATE INDEX IF NOT EXISTS idx_reconciliations_contributor ON reconciliations(contributor_id);
CREATE INDEX IF NOT EXISTS idx_profiles_guild ON credibility_profiles(guild);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReconciliation(ctx context.Context, rec *model.ReconciliationRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reconciliations (id, report_id, contributor_id, guild, result, match_percent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ReportID, rec.ContributorID, rec.Guild,
		string(resultJSON), rec.Result.OverallMatchPercent, createdAt,
	)
	return eris.Wrapf(err, "sqlite: insert reconciliation %s", rec.ID)
}

func (s *SQLiteStore) GetReconciliation(ctx context.Context, id string) (*model.ReconciliationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, report_id, contributor_id, guild, result, created_at
		 FROM reconciliations WHERE id = ?`,
		id,
	)
	return scanReconciliation(row)
}

func (s *SQLiteStore) ListReconciliations(ctx context.Context, filter ReconciliationFilter) ([]model.ReconciliationRecord, error) {
	query := `SELECT id, report_id, contributor_id, guild, result, created_at
		 FROM reconciliations WHERE 1=1`
	var args []any

	if filter.ContributorID != "" {
		query += ` AND contributor_id = ?`
		args = append(args, filter.ContributorID)
	}
	if filter.ReportID != "" {
		query += ` AND report_id = ?`
		args = append(args, filter.ReportID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reconciliations")
	}
	defer rows.Close()

	var recs []model.ReconciliationRecord
	for rows.Next() {
		r, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list reconciliations iterate")
}

func (s *SQLiteStore) GetProfile(ctx context.Context, contributorID, guild string) (*model.CredibilityProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at
		 FROM credibility_profiles WHERE contributor_id = ? AND guild = ?`,
		contributorID, guild,
	)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *model.CredibilityProfile) error {
	fieldJSON, err := json.Marshal(profile.FieldAccuracy)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal field accuracy")
	}

	// Atomic upsert on the (contributor_id, guild) key so concurrent writers
	// cannot interleave a read-then-insert.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credibility_profiles
			(id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(contributor_id, guild) DO UPDATE SET
			total_entries      = excluded.total_entries,
			accurate_entries   = excluded.accurate_entries,
			field_accuracy     = excluded.field_accuracy,
			last_calculated_at = excluded.last_calculated_at`,
		profile.ID, profile.ContributorID, profile.Guild,
		profile.TotalEntries, profile.AccurateEntries,
		string(fieldJSON), profile.LastCalculatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert profile %s", profile.ContributorID)
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CredibilityProfile, error) {
	query := `SELECT id, contributor_id, guild, total_entries, accurate_entries, field_accuracy, last_calculated_at
		 FROM credibility_profiles WHERE 1=1`
	var args []any

	if filter.Guild != "" {
		query += ` AND guild = ?`
		args = append(args, filter.Guild)
	}
	query += ` ORDER BY contributor_id, guild`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close()

	var profiles []model.CredibilityProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		// Tier filtering happens here because the tier is derived, never
		// stored.
		if filter.Tier != "" && p.Tier != filter.Tier {
			continue
		}
		profiles = append(profiles, *p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list profiles iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanReconciliation(row scannable) (*model.ReconciliationRecord, error) {
	var r model.ReconciliationRecord
	var resultJSON string

	err := row.Scan(&r.ID, &r.ReportID, &r.ContributorID, &r.Guild, &resultJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("reconciliation not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan reconciliation")
	}

	r.Result = &model.ReconciliationResult{}
	if err := json.Unmarshal([]byte(resultJSON), r.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &r, nil
}

func scanProfile(row scannable) (*model.CredibilityProfile, error) {
	var p model.CredibilityProfile
	var fieldJSON sql.NullString

	err := row.Scan(&p.ID, &p.ContributorID, &p.Guild,
		&p.TotalEntries, &p.AccurateEntries, &fieldJSON, &p.LastCalculatedAt)
	if err != nil {
		return nil, err
	}

	if fieldJSON.Valid && fieldJSON.String != "" && fieldJSON.String != "null" {
		if err := json.Unmarshal([]byte(fieldJSON.String), &p.FieldAccuracy); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal field accuracy")
		}
	}
	p.Derive()
	return &p, nil
}
