package aop

import (
	"reflect"
	"testing"

	"github.com/Station-Manager/iocctx"
	"github.com/Station-Manager/iocctx/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type AroundApplication struct{}

type greeterClient struct {
	Greeter Greeter `di.inject:",required"`
}

// aroundCatalog registers an application whose OriginBean is proxied by the around
// post-processor. handler names the handler bean of OriginBean.
func aroundCatalog(t *testing.T, resolver *ProxyResolver, handler string, extra ...*iocctx.Class) *iocctx.Catalog {
	t.Helper()
	cat := iocctx.NewCatalog()
	require.NoError(t, cat.Register(
		&iocctx.Class{
			Name:          "test.around.AroundApplication",
			Type:          reflect.TypeFor[AroundApplication](),
			Configuration: true,
		},
		&iocctx.Class{
			Name:      "test.around.AroundPostProcessor",
			Type:      reflect.TypeFor[*AnnotationProxyPostProcessor](),
			Component: &iocctx.Component{Name: "aroundPostProcessor"},
			Constructors: []iocctx.Constructor{{
				Func: func() *AnnotationProxyPostProcessor { return NewAroundPostProcessor(resolver) },
			}},
		},
		&iocctx.Class{
			Name:      "test.around.OriginBean",
			Type:      reflect.TypeFor[OriginBean](),
			Component: &iocctx.Component{},
			Markers:   map[string]string{Around: handler},
			// Declared through the interface so the proxy can stand in for it.
			Constructors: []iocctx.Constructor{{
				Func: func() Greeter { return &OriginBean{} },
			}},
		},
		&iocctx.Class{
			Name:      "test.around.PoliteInvocationHandler",
			Type:      reflect.TypeFor[PoliteInvocationHandler](),
			Component: &iocctx.Component{},
		},
		&iocctx.Class{
			Name:      "test.around.GreeterClient",
			Type:      reflect.TypeFor[greeterClient](),
			Component: &iocctx.Component{},
		},
	))
	require.NoError(t, cat.Register(extra...))
	return cat
}

func newAroundContext(t *testing.T, cat *iocctx.Catalog) (*iocctx.Context, error) {
	t.Helper()
	pr, err := props.New(props.WithMap(map[string]string{"customer.name": "Minao"}))
	require.NoError(t, err)
	return iocctx.New("test.around.AroundApplication", cat, pr, iocctx.WithLogger(zaptest.NewLogger(t)))
}

func TestAroundPostProcessor_ProxiesMarkedBean(t *testing.T) {
	resolver := NewProxyResolver(WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, resolver.Register(originBeanDecorator))

	ctx, err := newAroundContext(t, aroundCatalog(t, resolver, "politeInvocationHandler"))
	require.NoError(t, err)
	defer ctx.Close()

	g, err := iocctx.Bean[Greeter](ctx, "originBean")
	require.NoError(t, err)
	proxy, ok := g.(*originBeanProxy)
	require.True(t, ok, "bean must be the proxy, got %T", g)

	assert.Equal(t, "Hello, Minao!", proxy.Hello())
	assert.Equal(t, "Morning, Minao.", proxy.Morning())
	assert.Equal(t, "", proxy.Name)

	// The value went into the original behind the proxy.
	origin, ok := proxy.d.Target().(*OriginBean)
	require.True(t, ok)
	assert.Equal(t, "Minao", origin.Name)

	// Dependents receive the proxy.
	client, err := iocctx.BeanOf[*greeterClient](ctx)
	require.NoError(t, err)
	assert.Same(t, proxy, client.Greeter)
}

func TestAroundPostProcessor_HandlerNotFound(t *testing.T) {
	resolver := NewProxyResolver()
	require.NoError(t, resolver.Register(originBeanDecorator))

	_, err := newAroundContext(t, aroundCatalog(t, resolver, "missingHandler"))
	var cfgErr *AopConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "missingHandler", cfgErr.Handler)
	assert.Equal(t, Around, cfgErr.Marker)
}

type notAHandler struct{}

func TestAroundPostProcessor_HandlerOfWrongType(t *testing.T) {
	resolver := NewProxyResolver()
	require.NoError(t, resolver.Register(originBeanDecorator))

	cat := aroundCatalog(t, resolver, "notAHandler", &iocctx.Class{
		Name:      "test.around.NotAHandler",
		Type:      reflect.TypeFor[notAHandler](),
		Component: &iocctx.Component{},
	})
	_, err := newAroundContext(t, cat)
	var cfgErr *AopConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "not an InvocationHandler")
}

func TestAnnotationProxyPostProcessor_OnSetProperty(t *testing.T) {
	p := NewAroundPostProcessor(NewProxyResolver())
	origin := &OriginBean{}
	p.origins["originBean"] = origin

	assert.Same(t, origin, p.PostProcessOnSetProperty(&originBeanProxy{}, "originBean"))
	other := &OriginBean{}
	assert.Same(t, other, p.PostProcessOnSetProperty(other, "other"))
}

func TestAroundPostProcessor_WithoutResolver(t *testing.T) {
	_, err := newAroundContext(t, aroundCatalog(t, nil, "politeInvocationHandler"))
	var cfgErr *AopConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "politeInvocationHandler", cfgErr.Handler)
	assert.Contains(t, cfgErr.Reason, "no proxy resolver")
}
