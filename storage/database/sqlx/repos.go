// Package sqlxrepos implements the repository interfaces on top of
// PostgreSQL via jmoiron/sqlx.
package sqlxrepos

import "strconv"

// placeholder returns the psql positional placeholder for the nth argument.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
