package counter

import "errors"

// ErrStoreUnavailable wraps connection failures and timeouts from a backing store.
var ErrStoreUnavailable = errors.New("counter store unavailable")
