package feed

import "errors"

// ErrBind is returned when the listening socket cannot be bound, typically
// because the port is already in use.
var ErrBind = errors.New("feed: bind failed")
