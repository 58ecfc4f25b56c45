package iocctx

import (
	"fmt"
	"reflect"
)

// FindBeanDefinition returns the definition registered under name, or nil.
func (c *Context) FindBeanDefinition(name string) *BeanDefinition {
	return c.beans[name]
}

// FindBeanDefinitions returns every definition whose declared type is assignable to t,
// sorted by (order, name).
func (c *Context) FindBeanDefinitions(t reflect.Type) []*BeanDefinition {
	return c.sortedDefinitions(func(d *BeanDefinition) bool {
		return d.declaredType.AssignableTo(t)
	})
}

// FindBeanDefinitionByType returns the unique definition assignable to t. With several
// candidates exactly one must be primary. It returns (nil, nil) when nothing matches.
func (c *Context) FindBeanDefinitionByType(t reflect.Type) (*BeanDefinition, error) {
	defs := c.FindBeanDefinitions(t)
	switch len(defs) {
	case 0:
		return nil, nil
	case 1:
		return defs[0], nil
	}

	names := make([]string, 0, len(defs))
	var primaries []*BeanDefinition
	for _, def := range defs {
		names = append(names, def.name)
		if def.primary {
			primaries = append(primaries, def)
		}
	}
	if len(primaries) == 1 {
		return primaries[0], nil
	}
	return nil, &NoUniqueBeanDefinitionError{Type: t, Candidates: names, Primaries: len(primaries)}
}

// FindTypedBeanDefinition returns the definition named name, checking that its declared
// type is assignable to t. It returns (nil, nil) when no bean has that name.
func (c *Context) FindTypedBeanDefinition(name string, t reflect.Type) (*BeanDefinition, error) {
	def := c.beans[name]
	if def == nil {
		return nil, nil
	}
	if !def.declaredType.AssignableTo(t) {
		return nil, &BeanNotOfRequiredTypeError{Name: name, Required: t, Actual: def.declaredType}
	}
	return def, nil
}

// ContainsBean reports whether a bean is registered under name.
func (c *Context) ContainsBean(name string) bool {
	_, ok := c.beans[name]
	return ok
}

// BeanNames returns all bean names in creation order.
func (c *Context) BeanNames() []string {
	defs := c.sortedDefinitions(nil)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.name)
	}
	return names
}

// GetBean returns the externally visible instance (the proxy, if any) named name.
func (c *Context) GetBean(name string) (any, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	def := c.beans[name]
	if def == nil {
		return nil, &NoSuchBeanDefinitionError{Name: name}
	}
	return def.requiredInstance()
}

// MustGetBean is GetBean for wiring code that cannot continue without the bean.
func (c *Context) MustGetBean(name string) any {
	bean, err := c.GetBean(name)
	if err != nil {
		panic(fmt.Sprintf("iocctx: %v", err))
	}
	return bean
}

// Bean returns the bean named name as a T.
func Bean[T any](c *Context, name string) (T, error) {
	var zero T
	if c.closed.Load() {
		return zero, ErrContextClosed
	}
	def, err := c.FindTypedBeanDefinition(name, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if def == nil {
		return zero, &NoSuchBeanDefinitionError{Name: name, Type: reflect.TypeFor[T]()}
	}
	return instanceAs[T](def)
}

// BeanOf returns the unique bean assignable to T, preferring the primary one.
func BeanOf[T any](c *Context) (T, error) {
	var zero T
	if c.closed.Load() {
		return zero, ErrContextClosed
	}
	t := reflect.TypeFor[T]()
	def, err := c.FindBeanDefinitionByType(t)
	if err != nil {
		return zero, err
	}
	if def == nil {
		return zero, &NoSuchBeanDefinitionError{Type: t}
	}
	return instanceAs[T](def)
}

// BeansOf returns every bean assignable to T, sorted by (order, name).
func BeansOf[T any](c *Context) ([]T, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	defs := c.FindBeanDefinitions(reflect.TypeFor[T]())
	beans := make([]T, 0, len(defs))
	for _, def := range defs {
		bean, err := instanceAs[T](def)
		if err != nil {
			return nil, err
		}
		beans = append(beans, bean)
	}
	return beans, nil
}

func instanceAs[T any](def *BeanDefinition) (T, error) {
	var zero T
	instance, err := def.requiredInstance()
	if err != nil {
		return zero, err
	}
	bean, ok := instance.(T)
	if !ok {
		return zero, &BeanNotOfRequiredTypeError{Name: def.name, Required: reflect.TypeFor[T](), Actual: reflect.TypeOf(instance)}
	}
	return bean, nil
}
