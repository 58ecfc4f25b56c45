package aop

import (
	"fmt"
	"reflect"

	"github.com/Station-Manager/iocctx"
)

// Around is the class-level marker naming the interception handler bean of a class.
const Around = "around"

// AnnotationProxyPostProcessor replaces every bean whose class carries its marker with a proxy
// that routes calls through the handler bean named by the marker value. The originals are kept
// so injection and init callbacks operate on real state.
type AnnotationProxyPostProcessor struct {
	iocctx.BasePostProcessor

	marker   string
	resolver *ProxyResolver
	ctx      iocctx.ConfigurableContext
	origins  map[string]any
}

// NewAnnotationProxyPostProcessor creates a post-processor for marker that builds proxies with
// resolver. Without a resolver every marked bean fails with an AopConfigError.
func NewAnnotationProxyPostProcessor(marker string, resolver *ProxyResolver) *AnnotationProxyPostProcessor {
	return &AnnotationProxyPostProcessor{
		marker:   marker,
		resolver: resolver,
		origins:  make(map[string]any),
	}
}

// NewAroundPostProcessor creates the post-processor for the Around marker.
func NewAroundPostProcessor(resolver *ProxyResolver) *AnnotationProxyPostProcessor {
	return NewAnnotationProxyPostProcessor(Around, resolver)
}

func (p *AnnotationProxyPostProcessor) SetContext(ctx iocctx.ConfigurableContext) {
	p.ctx = ctx
}

func (p *AnnotationProxyPostProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	if p.ctx == nil {
		return nil, &AopConfigError{Marker: p.marker, Reason: "post-processor has no container context"}
	}
	cls, ok := p.ctx.ClassOf(reflect.TypeOf(bean))
	if !ok {
		return bean, nil
	}
	handlerName, ok := cls.Marker(p.marker)
	if !ok {
		return bean, nil
	}

	proxy, err := p.createProxy(bean, handlerName)
	if err != nil {
		return nil, err
	}
	p.origins[name] = bean
	return proxy, nil
}

func (p *AnnotationProxyPostProcessor) createProxy(bean any, handlerName string) (any, error) {
	if p.resolver == nil {
		return nil, &AopConfigError{Marker: p.marker, Handler: handlerName, Reason: "post-processor has no proxy resolver"}
	}
	def := p.ctx.FindBeanDefinition(handlerName)
	if def == nil {
		return nil, &AopConfigError{Marker: p.marker, Handler: handlerName, Reason: "not found"}
	}
	handlerBean := def.Instance()
	if handlerBean == nil {
		var err error
		if handlerBean, err = p.ctx.CreateEarlySingleton(def); err != nil {
			return nil, err
		}
	}
	handler, ok := handlerBean.(InvocationHandler)
	if !ok {
		return nil, &AopConfigError{
			Marker:  p.marker,
			Handler: handlerName,
			Reason:  fmt.Sprintf("is not an InvocationHandler, got %T", handlerBean),
		}
	}
	return p.resolver.CreateProxy(bean, handler)
}

func (p *AnnotationProxyPostProcessor) PostProcessOnSetProperty(bean any, name string) any {
	if origin, ok := p.origins[name]; ok {
		return origin
	}
	return bean
}
