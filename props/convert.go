package props

import (
	"reflect"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Converter parses a property value into a typed value.
type Converter func(value string) (any, error)

// RegisterConverter sets the converter used for t, replacing any built-in one.
func (r *Resolver) RegisterConverter(t reflect.Type, fn Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[t] = fn
}

func defaultConverters() map[reflect.Type]Converter {
	return map[reflect.Type]Converter{
		reflect.TypeFor[string]():         func(s string) (any, error) { return s, nil },
		reflect.TypeFor[bool]():           func(s string) (any, error) { return strconv.ParseBool(s) },
		reflect.TypeFor[int]():            intConverter[int](strconv.IntSize),
		reflect.TypeFor[int8]():           intConverter[int8](8),
		reflect.TypeFor[int16]():          intConverter[int16](16),
		reflect.TypeFor[int32]():          intConverter[int32](32),
		reflect.TypeFor[int64]():          intConverter[int64](64),
		reflect.TypeFor[uint]():           uintConverter[uint](strconv.IntSize),
		reflect.TypeFor[uint8]():          uintConverter[uint8](8),
		reflect.TypeFor[uint16]():         uintConverter[uint16](16),
		reflect.TypeFor[uint32]():         uintConverter[uint32](32),
		reflect.TypeFor[uint64]():         uintConverter[uint64](64),
		reflect.TypeFor[float32]():        floatConverter[float32](32),
		reflect.TypeFor[float64]():        floatConverter[float64](64),
		reflect.TypeFor[time.Duration]():  func(s string) (any, error) { return time.ParseDuration(s) },
		reflect.TypeFor[time.Time]():      func(s string) (any, error) { return time.Parse(time.RFC3339, s) },
		reflect.TypeFor[*time.Location](): func(s string) (any, error) { return time.LoadLocation(s) },
	}
}

func intConverter[T ~int | ~int8 | ~int16 | ~int32 | ~int64](bits int) Converter {
	return func(s string) (any, error) {
		n, err := strconv.ParseInt(s, 10, bits)
		return T(n), err
	}
}

func uintConverter[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) Converter {
	return func(s string) (any, error) {
		n, err := strconv.ParseUint(s, 10, bits)
		return T(n), err
	}
}

func floatConverter[T ~float32 | ~float64](bits int) Converter {
	return func(s string) (any, error) {
		f, err := strconv.ParseFloat(s, bits)
		return T(f), err
	}
}

var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeFor[string](),
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// convert must be called without mu held.
func (r *Resolver) convert(t reflect.Type, value string) (any, error) {
	r.mu.RLock()
	fn, ok := r.converters[t]
	if !ok {
		// Named types such as "type Port int" use the converter of their kind.
		if base, found := kindTypes[t.Kind()]; found {
			fn, ok = r.converters[base]
		}
	}
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unsupported value type %v", t)
	}

	v, err := fn(value)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert '%s' to %v", value, t)
	}
	if v == nil {
		return nil, errors.Errorf("converter for %v returned nil", t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != t {
		if !rv.Type().ConvertibleTo(t) {
			return nil, errors.Errorf("converter for %v returned %v", t, rv.Type())
		}
		v = rv.Convert(t).Interface()
	}
	return v, nil
}
