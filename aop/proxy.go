package aop

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Decorator describes the hand-written wrapper type used to proxy instances of Target.
//
// New must return a freshly allocated wrapper whose methods forward to the Dispatcher, e.g.
//
//	func (p *greeterProxy) Hello() string {
//		return aop.Result[string](p.d.Call("Hello"), 0)
//	}
//
// Markers maps method names to their method-level markers.
type Decorator struct {
	Target  reflect.Type
	Markers map[string][]string
	New     func(d *Dispatcher) any
}

// Dispatcher routes the calls of one proxy instance to its handler.
type Dispatcher struct {
	target  any
	handler InvocationHandler
	markers map[string][]string
}

// Call passes a proxy method call to the handler, together with the original target.
func (d *Dispatcher) Call(name string, args ...any) []any {
	return d.handler.Invoke(d.target, Method{Name: name, markers: d.markers[name]}, args)
}

// Target returns the original instance behind the proxy.
func (d *Dispatcher) Target() any {
	return d.target
}

// Option configures a ProxyResolver.
type Option func(*ProxyResolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *ProxyResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// ProxyResolver creates proxies from registered decorators. It is safe for concurrent use.
type ProxyResolver struct {
	mu         sync.RWMutex
	decorators map[reflect.Type]Decorator
	logger     *zap.Logger
}

func NewProxyResolver(opts ...Option) *ProxyResolver {
	r := &ProxyResolver{
		decorators: make(map[reflect.Type]Decorator),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a decorator. There can be only one decorator per target type.
func (r *ProxyResolver) Register(d Decorator) error {
	if d.Target == nil {
		return fmt.Errorf("decorator target type is nil")
	}
	if d.New == nil {
		return fmt.Errorf("decorator for %v has no constructor", d.Target)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decorators[d.Target]; exists {
		return fmt.Errorf("decorator for %v already registered", d.Target)
	}
	r.decorators[d.Target] = d
	return nil
}

// CreateProxy wraps target behind handler. The proxy is a new value of the decorator type:
// it shares no state with target, only the public methods forward.
func (r *ProxyResolver) CreateProxy(target any, handler InvocationHandler) (any, error) {
	if target == nil {
		return nil, &AopConfigError{Reason: "proxy target is nil"}
	}
	if handler == nil {
		return nil, &AopConfigError{Reason: "invocation handler is nil"}
	}
	targetType := reflect.TypeOf(target)

	r.mu.RLock()
	d, ok := r.decorators[targetType]
	r.mu.RUnlock()
	if !ok {
		return nil, &AopConfigError{Reason: fmt.Sprintf("no decorator registered for %v", targetType)}
	}

	proxy := d.New(&Dispatcher{target: target, handler: handler, markers: d.Markers})
	if proxy == nil {
		return nil, &AopConfigError{Reason: fmt.Sprintf("decorator for %v returned nil", targetType)}
	}
	if reflect.TypeOf(proxy) == targetType {
		return nil, &AopConfigError{Reason: fmt.Sprintf("decorator for %v must return a distinct type", targetType)}
	}

	r.logger.Debug("create proxy",
		zap.Stringer("target", targetType),
		zap.Stringer("proxy", reflect.TypeOf(proxy)),
		zap.String("addr", fmt.Sprintf("%p", target)))
	return proxy, nil
}
