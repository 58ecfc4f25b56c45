package iocctx

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Context is an annotation-style IoC container. New builds the whole singleton graph
// eagerly; afterwards the registry is read-only and safe for concurrent lookups.
type Context struct {
	classPath ClassPath
	props     PropertyResolver
	logger    *zap.Logger

	// beans is the source of truth for all bean definitions, keyed by unique bean name.
	beans map[string]*BeanDefinition

	// creating holds the beans under construction; creatingPath keeps their order
	// for error messages. Both are empty once New returns.
	creating     map[string]struct{}
	creatingPath []string

	postProcessors []BeanPostProcessor
	initialized    []*BeanDefinition

	closed atomic.Bool
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New scans from the configuration class named entry, builds all bean definitions and
// creates, injects and initializes every bean. Any error aborts construction.
func New(entry string, classPath ClassPath, props PropertyResolver, opts ...Option) (*Context, error) {
	if classPath == nil {
		return nil, errors.New("classPath parameter is nil")
	}
	c := &Context{
		classPath: classPath,
		props:     props,
		logger:    zap.NewNop(),
		creating:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.props == nil {
		c.props = noProperties{}
	}

	entryClass, ok := classPath.Lookup(entry)
	if !ok {
		return nil, &BeanDefinitionError{Class: entry, Reason: "entry configuration class not found"}
	}
	classNames, err := c.scanForClassNames(entryClass)
	if err != nil {
		return nil, err
	}
	if c.beans, err = c.createBeanDefinitions(classNames); err != nil {
		return nil, err
	}

	// Configuration beans first: they are factories and can only take values.
	for _, def := range c.sortedDefinitions(func(d *BeanDefinition) bool { return d.isConfiguration() }) {
		if _, err := c.CreateEarlySingleton(def); err != nil {
			return nil, err
		}
	}

	// Post-processors next, so every later bean passes through the whole hook chain.
	processors := make([]BeanPostProcessor, 0)
	for _, def := range c.sortedDefinitions(func(d *BeanDefinition) bool { return d.isPostProcessor() }) {
		instance, err := c.CreateEarlySingleton(def)
		if err != nil {
			return nil, err
		}
		processors = append(processors, instance.(BeanPostProcessor))
	}
	c.postProcessors = processors

	// Remaining beans; constructor injection may already have created some of them.
	for _, def := range c.sortedDefinitions(func(d *BeanDefinition) bool { return d.instance == nil }) {
		if def.instance != nil {
			continue
		}
		if _, err := c.CreateEarlySingleton(def); err != nil {
			return nil, err
		}
	}

	all := c.sortedDefinitions(nil)
	c.logger.Debug("beans created", zap.Strings("names", c.BeanNames()))
	for _, def := range all {
		if err := c.injectBean(def); err != nil {
			return nil, err
		}
	}
	for _, def := range all {
		if err := c.initBean(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CreateEarlySingleton creates a bean without property injection. Constructor and factory
// arguments are resolved here, creating dependencies recursively. It returns the existing
// instance when the bean was already created, and a CircularDependencyError when the bean
// is requested again while it is still being created.
func (c *Context) CreateEarlySingleton(def *BeanDefinition) (any, error) {
	if def.instance != nil {
		return def.instance, nil
	}
	if _, inFlight := c.creating[def.name]; inFlight {
		return nil, &CircularDependencyError{
			Bean: def.name,
			Path: strings.Join(append(slices.Clone(c.creatingPath), def.name), pathSep),
		}
	}
	c.creating[def.name] = struct{}{}
	c.creatingPath = append(c.creatingPath, def.name)
	defer func() {
		delete(c.creating, def.name)
		c.creatingPath = c.creatingPath[:len(c.creatingPath)-1]
	}()

	instance, err := c.instantiate(def)
	if err != nil {
		return nil, err
	}
	if err := def.setInstance(instance); err != nil {
		return nil, err
	}
	if aware, ok := instance.(ContextAware); ok {
		aware.SetContext(c)
	}

	for _, pp := range c.postProcessors {
		var processed any
		err := protect(func() (err error) {
			processed, err = pp.PostProcessBeforeInitialization(def.instance, def.name)
			return err
		})
		if err != nil {
			return nil, createError(def, err, "post-processor before initialization failed")
		}
		// A post-processor may replace the raw bean, e.g. with a proxy. Instances are
		// not compared: slice, map and func beans are not comparable.
		if err := def.setInstance(processed); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("create bean instance", zap.String("name", def.name), zap.String("create", def.createDetail()))
	return def.instance, nil
}

func (c *Context) instantiate(def *BeanDefinition) (any, error) {
	if def.factory == nil && !def.ctorFunc.IsValid() {
		instance, err := createInstance(def.class.Type)
		if err != nil {
			return nil, createError(def, err, "cannot instantiate")
		}
		return instance, nil
	}

	var fnType reflect.Type
	var params []Param
	offset := 0
	if def.factory == nil {
		fnType, params = def.ctorFunc.Type(), def.ctorParams
	} else {
		fnType, params, offset = def.factoryMethod.Type, def.factory.Params, 1
	}

	args := make([]reflect.Value, 0, fnType.NumIn())
	if def.factory != nil {
		ownerDef, ok := c.beans[def.factoryName]
		if !ok {
			return nil, createError(def, nil, "factory bean '%s' not found", def.factoryName)
		}
		ownerInstance, err := c.CreateEarlySingleton(ownerDef)
		if err != nil {
			return nil, err
		}
		args = append(args, reflect.ValueOf(ownerInstance))
	}

	for i := offset; i < fnType.NumIn(); i++ {
		var p Param
		if i-offset < len(params) {
			p = params[i-offset]
		}
		arg, err := c.resolveParam(def, p, fnType.In(i))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	fn := def.ctorFunc
	if def.factory != nil {
		fn = def.factoryMethod.Func
	}
	return c.invoke(def, fn, args)
}

// invoke calls a creation function, turning panics and error results into creation errors.
func (c *Context) invoke(def *BeanDefinition, fn reflect.Value, args []reflect.Value) (any, error) {
	var instance any
	err := protect(func() (err error) {
		instance, err = callResult(fn.Call(args))
		return err
	})
	if err != nil {
		return nil, createError(def, err, "exception when creating bean via %s", def.createDetail())
	}
	return instance, nil
}

// resolveParam resolves one constructor or factory argument: a configuration value or a dependency.
func (c *Context) resolveParam(def *BeanDefinition, p Param, t reflect.Type) (reflect.Value, error) {
	isConfiguration := def.isConfiguration()
	if p.Autowired != nil && isConfiguration {
		return reflect.Value{}, createError(def, nil, "cannot autowire when creating configuration bean")
	}
	if p.Autowired != nil && def.isPostProcessor() {
		return reflect.Value{}, createError(def, nil, "cannot autowire when creating post-processor bean")
	}
	if p.Value != emptyString && p.Autowired != nil {
		return reflect.Value{}, createError(def, nil, "cannot specify both autowired and value")
	}
	if p.Value == emptyString && p.Autowired == nil {
		return reflect.Value{}, createError(def, nil, "must specify autowired or value for argument of type %v", t)
	}

	if p.Value != emptyString {
		v, err := c.props.GetRequiredProperty(p.Value, t)
		if err != nil {
			return reflect.Value{}, createError(def, err, "cannot resolve property %s", p.Value)
		}
		rv, err := assignValue(v, t)
		if err != nil {
			return reflect.Value{}, createError(def, err, "cannot use property %s", p.Value)
		}
		return rv, nil
	}

	var dep *BeanDefinition
	var err error
	if p.Autowired.Name == emptyString {
		dep, err = c.FindBeanDefinitionByType(t)
	} else {
		dep, err = c.FindTypedBeanDefinition(p.Autowired.Name, t)
	}
	if err != nil {
		return reflect.Value{}, createError(def, err, "cannot resolve autowired argument of type %v", t)
	}
	if dep == nil {
		if p.Autowired.Required {
			return reflect.Value{}, createError(def, nil, "missing autowired bean with type %v", t)
		}
		return reflect.Zero(t), nil
	}

	instance := dep.instance
	if instance == nil && !isConfiguration {
		if instance, err = c.CreateEarlySingleton(dep); err != nil {
			return reflect.Value{}, err
		}
	}
	rv, err := assignValue(instance, t)
	if err != nil {
		return reflect.Value{}, createError(def, err, "cannot use bean '%s'", dep.name)
	}
	return rv, nil
}

// Close invokes destroy callbacks in reverse initialization order. It is idempotent.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	for _, def := range slices.Backward(c.initialized) {
		if err := c.destroyBean(def); err != nil {
			errs = append(errs, err)
		}
	}
	c.logger.Debug("context closed")
	return errors.Join(errs...)
}

// ClassOf returns the descriptor registered for a runtime type.
func (c *Context) ClassOf(t reflect.Type) (*Class, bool) {
	return c.classPath.ClassOf(t)
}

func (c *Context) sortedDefinitions(filter func(*BeanDefinition) bool) []*BeanDefinition {
	defs := make([]*BeanDefinition, 0, len(c.beans))
	for _, def := range c.beans {
		if filter == nil || filter(def) {
			defs = append(defs, def)
		}
	}
	slices.SortFunc(defs, compareDefinitions)
	return defs
}

type noProperties struct{}

func (noProperties) GetRequiredProperty(key string, _ reflect.Type) (any, error) {
	return nil, fmt.Errorf("property '%s' not found: no property resolver configured", key)
}
