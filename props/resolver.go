// Package props resolves configuration values for a container: environment variables,
// maps, YAML documents and .env files, queried by key or by ${key:default} expression.
package props

import (
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrPropertyNotFound is returned, wrapped, when a required key has no value.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrCircularReference is returned, wrapped, when a value refers back to its own key.
	ErrCircularReference = errors.New("circular property reference")
)

const (
	exprPrefix = "${"
	exprSuffix = "}"
	defaultSep = ":"
)

// Resolver holds a flat key/value view of all property sources. Later sources override
// earlier ones. It is safe for concurrent use.
type Resolver struct {
	mu         sync.RWMutex
	properties map[string]string
	converters map[reflect.Type]Converter
	logger     *zap.Logger
}

// Option adds a property source or configures the resolver.
type Option func(*Resolver) error

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// WithMap adds literal properties.
func WithMap(m map[string]string) Option {
	return func(r *Resolver) error {
		r.merge("map", m)
		return nil
	}
}

// New creates a resolver seeded with the process environment, then applies opts in order.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		properties: make(map[string]string),
		converters: defaultConverters(),
		logger:     zap.NewNop(),
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			r.properties[k] = v
		}
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if ce := r.logger.Check(zap.DebugLevel, "properties loaded"); ce != nil {
		keys := make([]string, 0, len(r.properties))
		for k := range r.properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ce.Write(zap.Int("count", len(keys)), zap.Strings("keys", keys))
	}
	return r, nil
}

func (r *Resolver) merge(source string, m map[string]string) {
	for k, v := range m {
		r.properties[k] = v
	}
	r.logger.Debug("property source added", zap.String("source", source), zap.Int("count", len(m)))
}

// Set stores a single property.
func (r *Resolver) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[key] = value
}

// GetProperty returns the value of a key or an expression. Stored values are themselves
// expanded, so "app.name=${APP_NAME:demo}" resolves through the environment.
// A missing key yields an error wrapping ErrPropertyNotFound.
func (r *Resolver) GetProperty(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(key, nil)
}

// GetPropertyOr is GetProperty with a fallback for a missing key. The fallback may itself
// be an expression.
func (r *Resolver) GetPropertyOr(key, fallback string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, err := r.resolve(key, nil)
	if errors.Is(err, ErrPropertyNotFound) {
		return r.expand(fallback, nil)
	}
	return v, err
}

// GetRequiredProperty resolves key and converts the value to targetType.
func (r *Resolver) GetRequiredProperty(key string, targetType reflect.Type) (any, error) {
	v, err := r.GetProperty(key)
	if err != nil {
		return nil, err
	}
	out, err := r.convert(targetType, v)
	if err != nil {
		return nil, errors.Wrapf(err, "property '%s'", key)
	}
	return out, nil
}

// Property resolves key as a T.
func Property[T any](r *Resolver, key string) (T, error) {
	var zero T
	v, err := r.GetRequiredProperty(key, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// resolve must be called with mu held. seen holds the keys whose values are being
// expanded on the current path.
func (r *Resolver) resolve(key string, seen []string) (string, error) {
	if k, def, hasDefault, ok := parseExpr(key); ok {
		if !hasDefault {
			return r.resolve(k, seen)
		}
		v, err := r.resolve(k, seen)
		if errors.Is(err, ErrPropertyNotFound) {
			return r.expand(def, seen)
		}
		return v, err
	}
	v, ok := r.properties[key]
	if !ok {
		return "", errors.Wrapf(ErrPropertyNotFound, "property '%s'", key)
	}
	if slices.Contains(seen, key) {
		return "", errors.Wrapf(ErrCircularReference, "%s -> %s", strings.Join(seen, " -> "), key)
	}
	return r.expand(v, append(seen, key))
}

// expand resolves value when it is an expression and returns it unchanged otherwise.
func (r *Resolver) expand(value string, seen []string) (string, error) {
	if _, _, _, ok := parseExpr(value); !ok {
		return value, nil
	}
	return r.resolve(value, seen)
}

// parseExpr splits "${key}" and "${key:default}". The default runs to the final brace,
// so "${a:${b:c}}" yields key "a" and default "${b:c}".
func parseExpr(s string) (key, def string, hasDefault, ok bool) {
	if !strings.HasPrefix(s, exprPrefix) || !strings.HasSuffix(s, exprSuffix) {
		return "", "", false, false
	}
	body := s[len(exprPrefix) : len(s)-len(exprSuffix)]
	key, def, hasDefault = strings.Cut(body, defaultSep)
	return key, def, hasDefault, true
}
