package iocctx

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrClassNameIsEmpty = errors.New("class name is empty")
	ErrClassIsNil       = errors.New("class parameter is nil")
	ErrDuplicateClass   = errors.New("class already registered")
	ErrContextClosed    = errors.New("context already closed")
)

// BeanDefinitionError reports a structural problem found while building bean definitions:
// duplicate names, invalid modifiers, wrong constructor cardinality or invalid injectable members.
type BeanDefinitionError struct {
	Bean   string
	Class  string
	Reason string
	Err    error
}

func (e *BeanDefinitionError) Error() string {
	msg := "bean definition error"
	if e.Bean != emptyString {
		msg += fmt.Sprintf(" for bean '%s'", e.Bean)
	}
	if e.Class != emptyString {
		msg += fmt.Sprintf(" (%s)", e.Class)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BeanDefinitionError) Unwrap() error {
	return e.Err
}

// BeanCreationError reports a failure while instantiating, injecting or initializing a bean.
type BeanCreationError struct {
	Bean   string
	Class  string
	Reason string
	Err    error
}

func (e *BeanCreationError) Error() string {
	msg := fmt.Sprintf("bean creation error for bean '%s'", e.Bean)
	if e.Class != emptyString {
		msg += fmt.Sprintf(" (%s)", e.Class)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BeanCreationError) Unwrap() error {
	return e.Err
}

// CircularDependencyError is returned when a bean is requested while it is still being created.
type CircularDependencyError struct {
	Bean string
	Path string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected when creating bean '%s': %s", e.Bean, e.Path)
}

// NoUniqueBeanDefinitionError is returned when a type lookup matches several beans and
// there is not exactly one primary among them.
type NoUniqueBeanDefinitionError struct {
	Type       reflect.Type
	Candidates []string
	Primaries  int
}

func (e *NoUniqueBeanDefinitionError) Error() string {
	if e.Primaries == 0 {
		return fmt.Sprintf("multiple beans of type %v found %v, but no primary bean", e.Type, e.Candidates)
	}
	return fmt.Sprintf("multiple beans of type %v found %v, but %d primary beans", e.Type, e.Candidates, e.Primaries)
}

// NoSuchBeanDefinitionError is returned by lookups that find nothing.
type NoSuchBeanDefinitionError struct {
	Name string
	Type reflect.Type
}

func (e *NoSuchBeanDefinitionError) Error() string {
	switch {
	case e.Name != emptyString && e.Type != nil:
		return fmt.Sprintf("no bean defined with name '%s' and type %v", e.Name, e.Type)
	case e.Name != emptyString:
		return fmt.Sprintf("no bean defined with name '%s'", e.Name)
	default:
		return fmt.Sprintf("no bean defined with type %v", e.Type)
	}
}

// BeanNotOfRequiredTypeError is returned when a bean exists under a name but its declared
// type is not assignable to the requested one.
type BeanNotOfRequiredTypeError struct {
	Name     string
	Required reflect.Type
	Actual   reflect.Type
}

func (e *BeanNotOfRequiredTypeError) Error() string {
	return fmt.Sprintf("bean '%s' is of type %v, not assignable to %v", e.Name, e.Actual, e.Required)
}

// UnsatisfiedDependencyError is returned when a required dependency cannot be found.
type UnsatisfiedDependencyError struct {
	Bean   string
	Member string
	Type   reflect.Type
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("dependency of type %v not found when injecting %s for bean '%s'", e.Type, e.Member, e.Bean)
}

func defError(def *BeanDefinition, format string, args ...any) error {
	return &BeanDefinitionError{Bean: def.name, Class: def.className(), Reason: fmt.Sprintf(format, args...)}
}

func classError(cls *Class, format string, args ...any) error {
	return &BeanDefinitionError{Class: cls.Name, Reason: fmt.Sprintf(format, args...)}
}

func createError(def *BeanDefinition, err error, format string, args ...any) error {
	return &BeanCreationError{Bean: def.name, Class: def.className(), Reason: fmt.Sprintf(format, args...), Err: err}
}
