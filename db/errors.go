package db

import (
	"strings"

	"github.com/teranos/gallery/errors"
)

// ErrDatabaseClosed is returned when the database was closed during shutdown.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err comes from a closed database, either
// wrapped by this package or straight from the sql driver.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
