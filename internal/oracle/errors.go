package oracle

import "errors"

// ErrUnavailable indicates no oracle backend is configured.
var ErrUnavailable = errors.New("oracle: client not configured")
