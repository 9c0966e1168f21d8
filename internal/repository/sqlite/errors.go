package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintCode returns the extended result code of a constraint failure,
// or 0 when err is not one.
func constraintCode(err error) int {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return 0
	}
	code := serr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	if code == sqlite3.SQLITE_CONSTRAINT {
		// Primary result code only; recover the kind from the message.
		msg := serr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return sqlite3.SQLITE_CONSTRAINT_UNIQUE
		case strings.Contains(msg, "FOREIGN KEY"):
			return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
		}
	}
	return code
}

// isUniqueViolation reports a duplicate id or license key.
func isUniqueViolation(err error) bool {
	switch constraintCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// isForeignKeyViolation reports a license pointing at a missing project.
func isForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
