package s3presign

import "errors"

var (
	// ErrConfiguration is returned when required local configuration is
	// absent or incomplete: no s3_source table, no entry for the requested
	// host, or an explicit-credential entry missing its id or secret.
	ErrConfiguration = errors.New("configuration error")
	// ErrInstanceProfile is returned when the instance metadata service
	// answers with a non-200 status.
	ErrInstanceProfile = errors.New("instance profile error")
)
