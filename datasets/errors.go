package datasets

import "errors"

var (
	// ErrMissingArtifact reports a file or record absent at its expected path.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrMalformedRecord reports an artifact whose content does not have the
	// expected fields, shape or value range.
	ErrMalformedRecord = errors.New("malformed record")
)
