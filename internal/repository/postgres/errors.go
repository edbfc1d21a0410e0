package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
