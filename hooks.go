package iocctx

import (
	"reflect"
)

// PropertyResolver is the configuration collaborator consumed by the container.
// key may be a plain key or an expression such as "${a:${b:literal}}"; resolving
// expressions is the resolver's job. The returned value must be convertible to targetType.
type PropertyResolver interface {
	GetRequiredProperty(key string, targetType reflect.Type) (any, error)
}

// ResourceResolver enumerates resource identifiers below a package root,
// e.g. "app/service/UserService.class".
type ResourceResolver interface {
	Scan(root string) ([]string, error)
}

// ClassPath is the scanner and class loader consumed by the container. Catalog implements it.
type ClassPath interface {
	ResourceResolver
	Lookup(name string) (*Class, bool)
	ClassOf(t reflect.Type) (*Class, bool)
}

// BeanPostProcessor hooks into bean creation. It is the mechanism used to substitute proxies.
type BeanPostProcessor interface {
	// PostProcessBeforeInitialization is called once per bean right after construction
	// and may return a different (proxy) instance.
	PostProcessBeforeInitialization(bean any, name string) (any, error)
	// PostProcessAfterInitialization is called once per bean after its init callbacks.
	PostProcessAfterInitialization(bean any, name string) (any, error)
	// PostProcessOnSetProperty returns the instance that property injection and init
	// callbacks must operate on, i.e. the original behind a proxy.
	PostProcessOnSetProperty(bean any, name string) any
}

var postProcessorType = reflect.TypeOf((*BeanPostProcessor)(nil)).Elem()

// BasePostProcessor provides identity hooks. Embed it and override what is needed.
type BasePostProcessor struct{}

func (BasePostProcessor) PostProcessBeforeInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (BasePostProcessor) PostProcessAfterInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (BasePostProcessor) PostProcessOnSetProperty(bean any, _ string) any {
	return bean
}

// ConfigurableContext is the container handle given to collaborators that need to look up
// or eagerly create beans while the container is still being built.
type ConfigurableContext interface {
	FindBeanDefinition(name string) *BeanDefinition
	CreateEarlySingleton(def *BeanDefinition) (any, error)
	ClassOf(t reflect.Type) (*Class, bool)
}

// ContextAware beans receive the container handle right after construction,
// before any post-processor sees them.
type ContextAware interface {
	SetContext(ctx ConfigurableContext)
}
