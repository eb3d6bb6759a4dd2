package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

var errInvalidLimit = fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
