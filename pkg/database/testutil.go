package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool returns a pgxmock pool that satisfies DBTX. Tests must call
// ExpectationsWereMet before returning.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
}
