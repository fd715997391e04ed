package vocab

import "github.com/teranos/taxon/errors"

// Load-time failures. Query-time absence is never an error: lookups return
// (nil, false) or an empty collection instead.
var (
	// ErrNotFound means the source document does not exist
	ErrNotFound = errors.New("vocabulary source not found")
	// ErrMalformed means the source is not well-formed XML, or its broader
	// relations form a cycle
	ErrMalformed = errors.New("malformed vocabulary document")
	// ErrNotRecognized means the root element is neither ControlledList nor ItemMapping
	ErrNotRecognized = errors.New("unrecognized vocabulary document")
	// ErrIncompatibleVersion means the document Version violates the configured constraint
	ErrIncompatibleVersion = errors.New("incompatible vocabulary version")
)
