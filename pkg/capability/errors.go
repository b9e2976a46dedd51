package capability

import "errors"

// ErrMalformed is returned by FromBytes when the input is not a valid
// capability TLV buffer. Callers treat it as "no usable remote capability".
var ErrMalformed = errors.New("capability: malformed capability buffer")
