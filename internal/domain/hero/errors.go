package hero

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrCatalogLoad means the roster source was unreadable, unparsable or empty.
	ErrCatalogLoad = errors.New("catalog load failed")
	// ErrInvalidRecord marks a single malformed roster record.
	ErrInvalidRecord = errors.New("invalid hero record")
)
