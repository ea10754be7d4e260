// Package errors defines the sentinel error values returned by the
// graphflow token codec. Encode-path errors mean the caller supplied an
// entity that must not be published; decode-path errors mean an observed
// token must be discarded. All of them are matched with errors.Is.
package errors

import sterrors "errors"

// Encode-path precondition violations.
var (
	ErrInvalidKind      = sterrors.New("graphflow: invalid entity kind")
	ErrInvalidNodeInfo  = sterrors.New("graphflow: invalid node info for entity")
	ErrInvalidTopicInfo = sterrors.New("graphflow: invalid topic info for entity")
)

// Decode-path validation failures.
var (
	ErrMalformedToken    = sterrors.New("graphflow: malformed liveliness token")
	ErrInvalidAdminSpace = sterrors.New("graphflow: liveliness token has invalid admin space")
	ErrUnknownEntityKind = sterrors.New("graphflow: liveliness token has unknown entity kind")
	ErrInvalidDomainID   = sterrors.New("graphflow: liveliness token has invalid domain id")
	ErrMissingTopicInfo  = sterrors.New("graphflow: liveliness token is missing topic info")
	ErrInvalidQoS        = sterrors.New("graphflow: liveliness token has invalid qos")
)

// Attachment metadata failures.
var (
	ErrMissingAttachment = sterrors.New("graphflow: message attachment field is missing")
	ErrInvalidAttachment = sterrors.New("graphflow: message attachment field is invalid")
)

// ConfigValidationError wraps the errors found while validating a
// Config so callers can tell configuration mistakes apart from runtime
// failures.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "graphflow: invalid config: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, or returns nil if err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
