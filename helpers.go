package iocctx

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func createInstance(beanType reflect.Type) (any, error) {
	if beanType.Kind() == reflect.Ptr && beanType.Elem().Kind() == reflect.Struct {
		return reflect.New(beanType.Elem()).Interface(), nil
	}
	// Support direct struct kinds by creating a pointer to it,
	// so all created instances are pointers for consistency.
	if beanType.Kind() == reflect.Struct {
		return reflect.New(beanType).Interface(), nil
	}
	return nil, fmt.Errorf("beanType is not supported: %v", beanType.Kind())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// lowerCamel turns "UserService" into "userService".
func lowerCamel(name string) string {
	if name == emptyString {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// isPrimitive reports kinds that cannot be a bean type.
func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer:
		return true
	}
	return false
}

// checkResults validates the result shape of a creation function: T or (T, error).
func checkResults(fn reflect.Type) error {
	switch fn.NumOut() {
	case 0:
		return fmt.Errorf("must not return void")
	case 1:
	case 2:
		if fn.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %v", fn.Out(1))
		}
	default:
		return fmt.Errorf("must return T or (T, error), got %d results", fn.NumOut())
	}
	if isPrimitive(fn.Out(0)) {
		return fmt.Errorf("must not return primitive type %v", fn.Out(0))
	}
	return nil
}

// callResult unpacks the results of a call checked by checkResults.
func callResult(out []reflect.Value) (any, error) {
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if len(out) == 0 || !out[0].IsValid() {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// callMethod invokes m with args and returns its trailing error result, if any.
// For a method expression the receiver is the first argument. A panic in m is
// returned as an error.
func callMethod(m reflect.Value, args ...reflect.Value) error {
	return protect(func() error {
		out := m.Call(args)
		if len(out) > 0 && out[len(out)-1].Type() == errorType && !out[len(out)-1].IsNil() {
			return out[len(out)-1].Interface().(error)
		}
		return nil
	})
}

// protect runs fn and returns a panic raised by it as an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// assignValue converts v so it can be stored into a location of type t.
// A nil v yields the zero value.
func assignValue(v any, t reflect.Type) (reflect.Value, error) {
	if isNil(v) {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) && t.Kind() != reflect.Interface {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("value of type %v is not assignable to %v", rv.Type(), t)
}
