package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/water-reminder-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies PRAGMAs, runs migrations and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// EnsureUser creates an inactive row without a frequency if the chat is new,
// and returns the stored user either way.
func (r *SQLiteRepo) EnsureUser(ctx context.Context, chatID int64) (*domain.User, error) {
	now := r.now().Unix()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, frequency_hours, active, created_at, updated_at)
		VALUES (?, NULL, 0, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING`,
		chatID, now, now,
	); err != nil {
		return nil, err
	}
	return r.GetUser(ctx, chatID)
}

// GetUser returns a user's preferences or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, frequency_hours, active, created_at, updated_at
		FROM users
		WHERE chat_id = ?`,
		chatID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetActive reports the active flag. Unknown chats are inactive.
func (r *SQLiteRepo) GetActive(ctx context.Context, chatID int64) (bool, error) {
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT active FROM users WHERE chat_id = ?`, chatID,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active != 0, nil
}

// GetFrequency returns the stored frequency; ok is false when none was chosen.
func (r *SQLiteRepo) GetFrequency(ctx context.Context, chatID int64) (int, bool, error) {
	var freq sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT frequency_hours FROM users WHERE chat_id = ?`, chatID,
	).Scan(&freq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !freq.Valid {
		return 0, false, nil
	}
	return int(freq.Int64), true, nil
}

// SetActive toggles the active flag, creating the row if needed.
func (r *SQLiteRepo) SetActive(ctx context.Context, chatID int64, active bool) error {
	now := r.now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, frequency_hours, active, created_at, updated_at)
		VALUES (?, NULL, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			active     = excluded.active,
			updated_at = excluded.updated_at`,
		chatID, boolToInt(active), now, now,
	)
	return err
}

// SetFrequency stores hours and activates the user in one statement.
func (r *SQLiteRepo) SetFrequency(ctx context.Context, chatID int64, hours int) error {
	if err := domain.ValidateFrequency(hours); err != nil {
		return err
	}
	now := r.now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, frequency_hours, active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			frequency_hours = excluded.frequency_hours,
			active          = 1,
			updated_at      = excluded.updated_at`,
		chatID, toNullInt64(hours, true), now, now,
	)
	return err
}

// ListActive returns every active user ordered by chat_id.
func (r *SQLiteRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, frequency_hours, active, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY chat_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		chatID    int64
		freq      sql.NullInt64
		activeInt int
		createdAt int64
		updatedAt int64
	)
	if err := s.Scan(&chatID, &freq, &activeInt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.User{
		ChatID:         chatID,
		Active:         activeInt != 0,
		FrequencyHours: int(freq.Int64),
		HasFrequency:   freq.Valid,
		CreatedAt:      fromUnix(createdAt),
		UpdatedAt:      fromUnix(updatedAt),
	}, nil
}
