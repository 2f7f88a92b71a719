package worker

import "errors"

// ErrUnknownKind is returned for a mutation no store write matches.
var ErrUnknownKind = errors.New("unknown mutation kind")
