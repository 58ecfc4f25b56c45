package iocctx

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

// BeanDefinition describes how and when one named singleton bean is created.
// Only the container writes to it.
type BeanDefinition struct {
	name         string
	declaredType reflect.Type
	class        *Class

	// constructor creation; nil ctorFunc allocates a zero value of class.Type
	ctorFunc   reflect.Value
	ctorParams []Param

	// factory creation
	factoryName   string
	factory       *FactoryMethod
	factoryMethod reflect.Method

	order   int
	primary bool

	initMethod        *reflect.Method
	destroyMethod     *reflect.Method
	initMethodName    string
	destroyMethodName string

	injectType reflect.Type
	injections []injectionPoint

	instance any
	init     bool
}

func (d *BeanDefinition) Name() string {
	return d.name
}

// Type is the declared type callers use to look the bean up.
func (d *BeanDefinition) Type() reflect.Type {
	return d.declaredType
}

// Class is the scanned class that declared the bean: the component itself or,
// for factory beans, the configuration class owning the factory method.
func (d *BeanDefinition) Class() *Class {
	return d.class
}

func (d *BeanDefinition) Order() int {
	return d.order
}

func (d *BeanDefinition) Primary() bool {
	return d.primary
}

// FactoryName is the name of the configuration bean owning the factory method,
// or "" for constructor-created beans.
func (d *BeanDefinition) FactoryName() string {
	return d.factoryName
}

// Instance is the externally visible instance (the proxy, if any), nil before creation.
func (d *BeanDefinition) Instance() any {
	return d.instance
}

func (d *BeanDefinition) requiredInstance() (any, error) {
	if d.instance == nil {
		return nil, createError(d, nil, "instance is not instantiated during current stage")
	}
	return d.instance, nil
}

func (d *BeanDefinition) setInstance(instance any) error {
	if isNil(instance) {
		return createError(d, nil, "bean instance is nil")
	}
	if t := reflect.TypeOf(instance); !t.AssignableTo(d.declaredType) {
		return createError(d, nil, "instance of type %v is not assignable to declared type %v", t, d.declaredType)
	}
	d.instance = instance
	return nil
}

func (d *BeanDefinition) isConfiguration() bool {
	return d.factory == nil && d.class != nil && d.class.Configuration
}

func (d *BeanDefinition) isPostProcessor() bool {
	return d.declaredType.Implements(postProcessorType)
}

func (d *BeanDefinition) className() string {
	if d.class == nil {
		return emptyString
	}
	return d.class.Name
}

// createDetail names the creation means, used in log and error messages.
func (d *BeanDefinition) createDetail() string {
	if d.factory == nil {
		return d.className()
	}
	params := make([]string, 0, d.factoryMethod.Type.NumIn())
	for i := 1; i < d.factoryMethod.Type.NumIn(); i++ {
		params = append(params, d.factoryMethod.Type.In(i).String())
	}
	return fmt.Sprintf("%s.%s(%s)", d.class.simpleName(), d.factoryMethod.Name, strings.Join(params, ", "))
}

func (d *BeanDefinition) String() string {
	return fmt.Sprintf("BeanDefinition{name=%s, type=%v, create=%s, order=%d, primary=%t}",
		d.name, d.declaredType, d.createDetail(), d.order, d.primary)
}

// compareDefinitions totally orders definitions by (order, name).
func compareDefinitions(a, b *BeanDefinition) int {
	if c := cmp.Compare(a.order, b.order); c != 0 {
		return c
	}
	return strings.Compare(a.name, b.name)
}
