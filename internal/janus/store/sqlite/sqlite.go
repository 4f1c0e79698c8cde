// Package sqlite implements the janus stores over a single-connection
// SQLite database. All writes go through the db.Worker so they serialize
// into one transaction per unit of work.
package sqlite

import (
	"database/sql"
	"strings"
	"time"
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given table.column. modernc.org/sqlite surfaces constraint errors as
// plain messages, so matching the constraint name is the practical check.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timeToMs(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func nullMsToTime(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := msToTime(ms.Int64)
	return &t
}
