package models

// ErrInvalidArgument is returned when a caller-supplied argument is missing
// or outside the accepted set.
type ErrInvalidArgument struct {
	Field  string
	Reason string
}

func (e *ErrInvalidArgument) Error() string {
	return "invalid argument " + e.Field + ": " + e.Reason
}

// ErrMalformedVersion is returned for version strings that are not major.minor.patch.
type ErrMalformedVersion struct {
	Version string
}

func (e *ErrMalformedVersion) Error() string {
	return "malformed version: " + e.Version
}
