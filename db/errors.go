package db

import (
	"strings"

	"github.com/opengamedata/ogdviz/errors"
)

// ErrDatabaseClosed is returned when the cache database was closed during shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err comes from a closed database, either
// ErrDatabaseClosed or the raw driver message.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
