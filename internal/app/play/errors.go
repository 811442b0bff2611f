package play

import "errors"

var (
	ErrTableNotFound = errors.New("table_not_found")
)
