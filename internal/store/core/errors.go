package core

import "errors"

// ErrNotFound marks an absent record. Distinct from any transport failure:
// callers must never confuse "no such user" with "store unreachable".
var ErrNotFound = errors.New("not found")
