package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/opengamedata/ogdviz/db"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/payload"
)

const (
	loadEntrySQL   = `SELECT payload, fetched_at FROM cache_entries WHERE cache_key = ?`
	saveEntrySQL   = `INSERT INTO cache_entries (cache_key, payload, fetched_at) VALUES (?, ?, ?) ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`
	clearSQL       = `DELETE FROM cache_entries`
	listEntriesSQL = `SELECT cache_key, length(payload), fetched_at FROM cache_entries ORDER BY cache_key`
)

// SQLStore keeps entries in the cache_entries table.
type SQLStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewSQLStore wraps an already migrated database. Close leaves the handle open.
func NewSQLStore(conn *sql.DB) *SQLStore {
	return &SQLStore{db: conn}
}

// OpenSQLStore opens and migrates the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	conn, err := db.OpenWithMigrations(path, nil)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: conn, ownsDB: true}, nil
}

func (s *SQLStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	var (
		text      string
		fetchedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, loadEntrySQL, key).Scan(&text, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, wrapDB(err, "load cache entry %q", key)
	}
	return Entry{Key: key, Payload: payload.Raw(text), FetchedAt: fetchedAt.UTC()}, true, nil
}

func (s *SQLStore) Save(ctx context.Context, e Entry) error {
	if _, err := s.db.ExecContext(ctx, saveEntrySQL, e.Key, string(e.Payload), e.FetchedAt.UTC()); err != nil {
		return wrapDB(err, "save cache entry %q", e.Key)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, clearSQL); err != nil {
		return wrapDB(err, "clear cache")
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]EntryInfo, error) {
	rows, err := s.db.QueryContext(ctx, listEntriesSQL)
	if err != nil {
		return nil, wrapDB(err, "list cache entries")
	}
	defer rows.Close()

	var infos []EntryInfo
	for rows.Next() {
		var info EntryInfo
		if err := rows.Scan(&info.Key, &info.Size, &info.FetchedAt); err != nil {
			return nil, errors.Wrap(err, "scan cache entry")
		}
		info.FetchedAt = info.FetchedAt.UTC()
		infos = append(infos, info)
	}
	return infos, errors.Wrap(rows.Err(), "iterate cache entries")
}

func (s *SQLStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func wrapDB(err error, format string, args ...interface{}) error {
	if db.IsDatabaseClosed(err) || errors.Is(err, sql.ErrConnDone) {
		err = errors.Mark(err, db.ErrDatabaseClosed)
	}
	return errors.Wrapf(err, format, args...)
}
