package aop

// InvocationHandler receives every call made on a proxy. It decides whether and how the
// call reaches target, and returns the results the proxy method hands back to its caller.
type InvocationHandler interface {
	Invoke(target any, method Method, args []any) []any
}

// HandlerFunc adapts a function to an InvocationHandler.
type HandlerFunc func(target any, method Method, args []any) []any

func (f HandlerFunc) Invoke(target any, method Method, args []any) []any {
	return f(target, method, args)
}

// Before returns a handler that runs fn and then forwards the call unchanged.
func Before(fn func(target any, method Method, args []any)) InvocationHandler {
	return HandlerFunc(func(target any, method Method, args []any) []any {
		fn(target, method, args)
		return method.Invoke(target, args)
	})
}

// AfterReturning returns a handler that forwards the call and lets fn replace the results.
func AfterReturning(fn func(target any, method Method, results []any) []any) InvocationHandler {
	return HandlerFunc(func(target any, method Method, args []any) []any {
		return fn(target, method, method.Invoke(target, args))
	})
}

// Result returns results[i] as a T, or the zero T when the value is nil.
// It panics when the value has another type, as a direct call would fail to compile.
func Result[T any](results []any, i int) T {
	var zero T
	if i >= len(results) || results[i] == nil {
		return zero
	}
	return results[i].(T)
}
