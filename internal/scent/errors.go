package scent

import "errors"

// ErrSourceUnavailable marks a failed observation fetch. The tracker
// recovers by serving its last-known-good aggregates with a stale flag.
var ErrSourceUnavailable = errors.New("scent: observation source unavailable")
