package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS countries (
	code         TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	translations TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS audiences (
	code         TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	translations TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS holidays (
	id           TEXT PRIMARY KEY,
	code         TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	country_code TEXT NOT NULL REFERENCES countries(code) ON DELETE CASCADE,
	date         TEXT NOT NULL,
	type         TEXT NOT NULL,
	fixed        INTEGER NOT NULL DEFAULT 0,
	global       INTEGER NOT NULL DEFAULT 1,
	counties     TEXT NOT NULL DEFAULT '',
	launch_year  INTEGER NOT NULL DEFAULT 0,
	UNIQUE (country_code, date, name)
);

CREATE INDEX IF NOT EXISTS idx_holidays_country_date ON holidays (country_code, date);

CREATE TABLE IF NOT EXISTS holiday_audiences (
	holiday_id    TEXT NOT NULL REFERENCES holidays(id) ON DELETE CASCADE,
	audience_code TEXT NOT NULL,
	PRIMARY KEY (holiday_id, audience_code)
);

CREATE TABLE IF NOT EXISTS holiday_translations (
	holiday_id TEXT NOT NULL REFERENCES holidays(id) ON DELETE CASCADE,
	language   TEXT NOT NULL,
	name       TEXT NOT NULL,
	PRIMARY KEY (holiday_id, language)
);
`

// OpenSQLite opens (or creates) a database file and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates the tables if they do not exist
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SQLiteSource reads and writes datasets in a SQLite database
type SQLiteSource struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteSource creates a new SQLiteSource
func NewSQLiteSource(db *sql.DB, logger *zap.Logger) *SQLiteSource {
	return &SQLiteSource{db: db, logger: logger}
}

// Name returns the source name
func (s *SQLiteSource) Name() string {
	return "sqlite"
}

// Load reads the whole dataset
func (s *SQLiteSource) Load(ctx context.Context) (*holiday.Dataset, error) {
	ds := &holiday.Dataset{}

	countries, err := s.loadReferences(ctx, "countries")
	if err != nil {
		return nil, err
	}
	for _, r := range countries {
		ds.Countries = append(ds.Countries, holiday.Country{Code: r.Code, Name: r.Name, Translations: r.Translations})
	}

	audiences, err := s.loadReferences(ctx, "audiences")
	if err != nil {
		return nil, err
	}
	for _, r := range audiences {
		ds.Audiences = append(ds.Audiences, holiday.Audience{Code: r.Code, Name: r.Name, Translations: r.Translations})
	}

	holidays, err := s.loadHolidays(ctx)
	if err != nil {
		return nil, err
	}
	ds.Holidays = holidays

	s.logger.Info("Dataset loaded from database",
		zap.Int("countries", len(ds.Countries)),
		zap.Int("audiences", len(ds.Audiences)),
		zap.Int("holidays", len(ds.Holidays)))

	return ds, nil
}

func (s *SQLiteSource) loadReferences(ctx context.Context, table string) ([]referenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, translations FROM `+table+` ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []referenceRecord
	for rows.Next() {
		var r referenceRecord
		var translations string
		if err := rows.Scan(&r.Code, &r.Name, &translations); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if err := json.Unmarshal([]byte(translations), &r.Translations); err != nil {
			return nil, fmt.Errorf("failed to decode %s translations for %s: %w", table, r.Code, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) loadHolidays(ctx context.Context) ([]holiday.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, country_code, date, type, fixed, global, counties, launch_year
		FROM holidays
		ORDER BY country_code, date, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var ids []string
	var holidays []holiday.Holiday
	for rows.Next() {
		var (
			id, code, name, country, date, typ, counties string
			fixed, global                                bool
			launchYear                                   int
		)
		if err := rows.Scan(&id, &code, &name, &country, &date, &typ, &fixed, &global, &counties, &launchYear); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}

		d, err := dateutil.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", id, err)
		}
		t, ok := holiday.ParseType(typ)
		if !ok {
			return nil, fmt.Errorf("holiday %s: unknown type %q", id, typ)
		}

		h := holiday.Holiday{
			Code:        code,
			Name:        name,
			Date:        d,
			CountryCode: country,
			Type:        t,
			Fixed:       fixed,
			Global:      global,
			LaunchYear:  launchYear,
		}
		if counties != "" {
			h.Counties = strings.Split(counties, ",")
		}

		ids = append(ids, id)
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	if err := s.attachAudiences(ctx, index, holidays); err != nil {
		return nil, err
	}
	if err := s.attachTranslations(ctx, index, holidays); err != nil {
		return nil, err
	}

	return holidays, nil
}

func (s *SQLiteSource) attachAudiences(ctx context.Context, index map[string]int, holidays []holiday.Holiday) error {
	rows, err := s.db.QueryContext(ctx, `SELECT holiday_id, audience_code FROM holiday_audiences ORDER BY holiday_id, audience_code`)
	if err != nil {
		return fmt.Errorf("failed to query holiday audiences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, code string
		if err := rows.Scan(&id, &code); err != nil {
			return fmt.Errorf("failed to scan holiday audience: %w", err)
		}
		if i, ok := index[id]; ok {
			holidays[i].Audiences = append(holidays[i].Audiences, code)
		}
	}
	return rows.Err()
}

func (s *SQLiteSource) attachTranslations(ctx context.Context, index map[string]int, holidays []holiday.Holiday) error {
	rows, err := s.db.QueryContext(ctx, `SELECT holiday_id, language, name FROM holiday_translations`)
	if err != nil {
		return fmt.Errorf("failed to query holiday translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, lang, name string
		if err := rows.Scan(&id, &lang, &name); err != nil {
			return fmt.Errorf("failed to scan holiday translation: %w", err)
		}
		if i, ok := index[id]; ok {
			if holidays[i].Translations == nil {
				holidays[i].Translations = make(map[string]string)
			}
			holidays[i].Translations[lang] = name
		}
	}
	return rows.Err()
}

// Save replaces the stored dataset in a single transaction. A dataset that
// fails snapshot validation is rejected before anything is written.
func (s *SQLiteSource) Save(ctx context.Context, ds *holiday.Dataset) error {
	start := time.Now()

	if _, err := holiday.NewSnapshot(ds, s.Name(), start); err != nil {
		return fmt.Errorf("refusing to save invalid dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"holiday_translations", "holiday_audiences", "holidays", "audiences", "countries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range ds.Countries {
		if err := upsertReference(ctx, tx, "countries", c.Code, c.Name, c.Translations); err != nil {
			return err
		}
	}
	for _, a := range ds.Audiences {
		if err := upsertReference(ctx, tx, "audiences", a.Code, a.Name, a.Translations); err != nil {
			return err
		}
	}

	for _, h := range ds.Holidays {
		if err := insertHoliday(ctx, tx, h); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	s.logger.Info("Dataset saved to database",
		zap.Int("countries", len(ds.Countries)),
		zap.Int("audiences", len(ds.Audiences)),
		zap.Int("holidays", len(ds.Holidays)),
		zap.Duration("took", time.Since(start)))

	return nil
}

func upsertReference(ctx context.Context, tx *sql.Tx, table, code, name string, translations map[string]string) error {
	if translations == nil {
		translations = map[string]string{}
	}
	data, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("failed to encode translations for %s: %w", code, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO `+table+` (code, name, translations) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, translations = excluded.translations`,
		code, name, string(data))
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", table, code, err)
	}
	return nil
}

func insertHoliday(ctx context.Context, tx *sql.Tx, h holiday.Holiday) error {
	id := uuid.NewString()

	// the RETURNING id is the existing row's id when the identity already exists
	err := tx.QueryRowContext(ctx, `
		INSERT INTO holidays (id, code, name, country_code, date, type, fixed, global, counties, launch_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(country_code, date, name) DO UPDATE SET
			code = excluded.code, type = excluded.type, fixed = excluded.fixed,
			global = excluded.global, counties = excluded.counties, launch_year = excluded.launch_year
		RETURNING id`,
		id, h.Code, h.Name, h.CountryCode, dateutil.FormatDate(h.Date), h.Type.String(),
		h.Fixed, h.Global, strings.Join(h.Counties, ","), h.LaunchYear,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save holiday %q on %s: %w", h.Name, dateutil.FormatDate(h.Date), err)
	}

	for _, code := range h.Audiences {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO holiday_audiences (holiday_id, audience_code) VALUES (?, ?)`,
			id, code); err != nil {
			return fmt.Errorf("failed to save audience %s for %q: %w", code, h.Name, err)
		}
	}

	for lang, name := range h.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO holiday_translations (holiday_id, language, name) VALUES (?, ?, ?)
			ON CONFLICT(holiday_id, language) DO UPDATE SET name = excluded.name`,
			id, lang, name); err != nil {
			return fmt.Errorf("failed to save %s translation for %q: %w", lang, h.Name, err)
		}
	}

	return nil
}
