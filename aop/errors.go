package aop

import (
	"fmt"
)

// AopConfigError reports a proxy that cannot be built: the handler bean is missing or is not
// an InvocationHandler, or no usable decorator exists for the target type.
type AopConfigError struct {
	Marker  string
	Handler string
	Reason  string
	Err     error
}

func (e *AopConfigError) Error() string {
	msg := "aop config error"
	if e.Marker != "" {
		msg += fmt.Sprintf(" for @%s", e.Marker)
	}
	if e.Handler != "" {
		msg += fmt.Sprintf(" proxy handler '%s'", e.Handler)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AopConfigError) Unwrap() error {
	return e.Err
}
