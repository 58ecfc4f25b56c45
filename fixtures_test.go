package iocctx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// journal records lifecycle callbacks in the order they run. Tests using it must not run in parallel.
var journal []string

func record(event string) {
	journal = append(journal, event)
}

// mapResolver serves typed values for "${key}" expressions.
type mapResolver map[string]any

func (m mapResolver) GetRequiredProperty(key string, _ reflect.Type) (any, error) {
	k := strings.TrimSuffix(strings.TrimPrefix(key, "${"), "}")
	v, ok := m[k]
	if !ok {
		return nil, fmt.Errorf("property '%s' not found", k)
	}
	return v, nil
}

func newTestContext(t *testing.T, props PropertyResolver, classes ...*Class) (*Context, error) {
	t.Helper()
	cat := NewCatalog()
	require.NoError(t, cat.Register(classes...))
	return New(classes[0].Name, cat, props, WithLogger(zaptest.NewLogger(t)))
}

type AppConfig struct{ _ byte }

func (*AppConfig) DataSource(url string) (*DataSource, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	return &DataSource{URL: url}, nil
}

type DataSource struct {
	URL  string
	open bool
}

func (d *DataSource) Open() {
	d.open = true
	record("dataSource.open")
}

func (d *DataSource) Close() error {
	d.open = false
	record("dataSource.close")
	return nil
}

type UserRepository struct {
	DS *DataSource `di.inject:",required"`
}

type UserService struct {
	repo  *UserRepository
	Title string `di.value:"${app.title}"`
	inits int
}

func NewUserService(repo *UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) PostConstruct() {
	s.inits++
	record("userService.init")
}

func (s *UserService) PreDestroy() {
	record("userService.destroy")
}

func basicProps() mapResolver {
	return mapResolver{"jdbc.url": "jdbc:mem:test", "app.title": "Springlet"}
}

// basicClasses returns a fresh application: a configuration with a data source factory,
// a repository with a field dependency and a service with a constructor dependency.
func basicClasses() []*Class {
	return []*Class{
		{
			Name:          "app.AppConfig",
			Type:          reflect.TypeFor[AppConfig](),
			Configuration: true,
			Factories: []FactoryMethod{{
				Method:        "DataSource",
				Params:        []Param{Value("${jdbc.url}")},
				InitMethod:    "Open",
				DestroyMethod: "Close",
			}},
		},
		{
			Name:      "app.repo.UserRepository",
			Type:      reflect.TypeFor[UserRepository](),
			Component: &Component{},
		},
		{
			Name:      "app.service.UserService",
			Type:      reflect.TypeFor[UserService](),
			Component: &Component{},
			Constructors: []Constructor{{
				Func:   NewUserService,
				Params: []Param{Autowire()},
			}},
			PostConstruct: "PostConstruct",
			PreDestroy:    "PreDestroy",
		},
	}
}

type Clock struct{ _ byte }

func clockClass() *Class {
	return &Class{Name: "app.Clock", Type: reflect.TypeFor[Clock](), Component: &Component{}}
}

func configClass() *Class {
	return &Class{Name: "app.AppConfig", Type: reflect.TypeFor[AppConfig](), Configuration: true}
}

type CycleA struct{ b *CycleB }
type CycleB struct{ a *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{b: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{a: a} }

type FieldCycleA struct {
	B *FieldCycleB `di.inject:",required"`
}

type FieldCycleB struct {
	A *FieldCycleA `di.inject:",required"`
}

type Store interface{ Kind() string }

type MemStore struct{ _ byte }

func (*MemStore) Kind() string { return "mem" }

type DiskStore struct{ _ byte }

func (*DiskStore) Kind() string { return "disk" }

func storeClasses(memPrimary, diskPrimary bool) []*Class {
	return []*Class{
		configClass(),
		{Name: "app.DiskStore", Type: reflect.TypeFor[DiskStore](), Component: &Component{}, Primary: diskPrimary},
		{Name: "app.MemStore", Type: reflect.TypeFor[MemStore](), Component: &Component{}, Primary: memPrimary},
	}
}

type StoreClient struct {
	Store Store `di.inject:",required"`
}

type OptionalStoreClient struct {
	Store Store `di.inject:""`
}

type NamedStoreClient struct {
	Store Store `di.inject:"diskStore"`
}

// Auditable is embedded to check that injection walks embedded structs.
type Auditable struct {
	Clock *Clock `di.inject:",required"`
}

type OrderService struct {
	Auditable
	Repo *UserRepository `di.inject:"userRepository,required"`
	Port int             `di.value:"${server.port}"`
}

type SetterBean struct {
	clock *Clock
	sets  int
}

func (s *SetterBean) SetClock(c *Clock) {
	s.clock = c
	s.sets++
}

func (s *SetterBean) Configure(a, b *Clock) {}

type HiddenField struct {
	clock *Clock `di.inject:""`
}

type BothTags struct {
	Clock *Clock `di.inject:"" di.value:"${clock}"`
}

// constructed counts constructor calls of CountedBean.
var constructed int

type CountedBean struct {
	Clock *Clock
}

func NewCountedBean() *CountedBean {
	constructed++
	return &CountedBean{}
}

type recordingProcessor struct {
	BasePostProcessor
	before []string
	after  []string
}

func (p *recordingProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	p.before = append(p.before, name)
	return bean, nil
}

func (p *recordingProcessor) PostProcessAfterInitialization(bean any, name string) (any, error) {
	p.after = append(p.after, name)
	return bean, nil
}

type Named interface{ BeanName() string }

type Plain struct {
	Clock *Clock `di.inject:",required"`
	inits int
}

func (p *Plain) BeanName() string { return "plain" }

func (p *Plain) Init() { p.inits++ }

type wrapped struct{ origin *Plain }

func (w *wrapped) BeanName() string { return "wrapped:" + w.origin.BeanName() }

// wrappingProcessor substitutes every *Plain with a wrapper and hands the original back for injection.
type wrappingProcessor struct {
	BasePostProcessor
	origins map[string]any
}

func newWrappingProcessor() *wrappingProcessor {
	return &wrappingProcessor{origins: make(map[string]any)}
}

func (p *wrappingProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	if plain, ok := bean.(*Plain); ok {
		p.origins[name] = plain
		return &wrapped{origin: plain}, nil
	}
	return bean, nil
}

func (p *wrappingProcessor) PostProcessOnSetProperty(bean any, name string) any {
	if origin, ok := p.origins[name]; ok {
		return origin
	}
	return bean
}

type awareBean struct {
	ctx ConfigurableContext
}

func (a *awareBean) SetContext(ctx ConfigurableContext) {
	a.ctx = ctx
}

type initializerBean struct {
	err         error
	initialized bool
}

func (b *initializerBean) Initialize() error {
	b.initialized = true
	return b.err
}

type failingCloser struct{ _ byte }

func (*failingCloser) Close() error {
	return errors.New("close failed")
}

type TagConfig struct{ _ byte }

func (*TagConfig) Tags() []string { return []string{"go", "di"} }

func (*TagConfig) Routes() map[string]string { return map[string]string{"/": "index"} }

// panicky panics from whichever callback a test wires to it.
type panicky struct{ _ byte }

func (*panicky) Init() { panic("boom") }

func (*panicky) SetClock(*Clock) { panic(errors.New("setter boom")) }

func (*panicky) Shutdown() { panic("shutdown boom") }
