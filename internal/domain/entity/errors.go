package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEndpointAvailable is matched by NoEndpointAvailableError.
	ErrNoEndpointAvailable = errors.New("no endpoint available")

	// ErrUnsupportedParameterShape is matched by UnsupportedParameterShapeError.
	ErrUnsupportedParameterShape = errors.New("unsupported parameter shape")

	ErrNotAContract         = errors.New("address is not a contract")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidCallArguments = errors.New("invalid call arguments")
)

// EndpointFailure is the reason one candidate endpoint was rejected.
type EndpointFailure struct {
	Endpoint string
	Err      error
}

// NoEndpointAvailableError reports that every candidate endpoint failed its
// liveness check. The per-endpoint causes stay inspectable via errors.As.
type NoEndpointAvailableError struct {
	Failures []EndpointFailure
}

func (e *NoEndpointAvailableError) Error() string {
	if len(e.Failures) == 0 {
		return ErrNoEndpointAvailable.Error() + ": no candidates configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Endpoint, f.Err))
	}
	return ErrNoEndpointAvailable.Error() + ": " + strings.Join(parts, "; ")
}

func (e *NoEndpointAvailableError) Is(target error) bool {
	return target == ErrNoEndpointAvailable
}

func (e *NoEndpointAvailableError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// UnsupportedParameterShapeError reports a dynamic call whose parameter list
// cannot be encoded. Only a single address or a single unsigned integer is
// supported.
type UnsupportedParameterShapeError struct {
	Signature string
	Types     []string
}

func (e *UnsupportedParameterShapeError) Error() string {
	return fmt.Sprintf("%s: %s takes (%s); only a single address or a single uint parameter can be encoded",
		ErrUnsupportedParameterShape, e.Signature, strings.Join(e.Types, ","))
}

func (e *UnsupportedParameterShapeError) Is(target error) bool {
	return target == ErrUnsupportedParameterShape
}
