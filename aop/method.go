package aop

import (
	"fmt"
	"reflect"
	"slices"
)

// Method describes the intercepted method of a proxy call.
type Method struct {
	Name    string
	markers []string
}

// HasMarker reports whether the method carries the named method-level marker.
func (m Method) HasMarker(marker string) bool {
	return slices.Contains(m.markers, marker)
}

// Markers returns a copy of the method-level markers.
func (m Method) Markers() []string {
	return slices.Clone(m.markers)
}

// Invoke calls the method on target and returns its results.
// A nil argument is passed as the zero value of the parameter type.
func (m Method) Invoke(target any, args []any) []any {
	fn := reflect.ValueOf(target).MethodByName(m.Name)
	if !fn.IsValid() {
		panic(fmt.Sprintf("aop: method %s not found on %T", m.Name, target))
	}
	ft := fn.Type()

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := paramType(ft, i)
		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(pt) && av.Type().ConvertibleTo(pt) {
			av = av.Convert(pt)
		}
		in[i] = av
	}

	out := fn.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}
