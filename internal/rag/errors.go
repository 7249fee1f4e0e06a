package rag

import "errors"

// ErrToolRoundsExceeded is returned alongside a best-effort answer when
// the provider keeps requesting tools past the configured round budget.
var ErrToolRoundsExceeded = errors.New("tool call round budget exceeded")
