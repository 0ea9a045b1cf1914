package network

import "errors"

// ErrInvalidArgument is returned for unknown way ids, out of range indices,
// malformed inputs and actions that are not currently available.
var ErrInvalidArgument = errors.New("invalid argument")
