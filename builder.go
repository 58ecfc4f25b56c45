package iocctx

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// scanForClassNames collects the names of all classes under the entry class's scan roots
// (its own package by default) plus its imports. The result is sorted.
func (c *Context) scanForClassNames(entry *Class) ([]string, error) {
	roots := entry.ComponentScan
	if len(roots) == 0 {
		roots = []string{entry.packageName()}
	}

	seen := make(map[string]struct{})
	for _, root := range roots {
		resources, err := c.classPath.Scan(root)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", root, err)
		}
		for _, res := range resources {
			if name := classNameOf(res); name != emptyString {
				seen[name] = struct{}{}
			}
		}
	}
	for _, name := range entry.Import {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// createBeanDefinitions builds the registry from class names. Any violation is returned immediately.
func (c *Context) createBeanDefinitions(classNames []string) (map[string]*BeanDefinition, error) {
	defs := make(map[string]*BeanDefinition)
	for _, className := range classNames {
		cls, ok := c.classPath.Lookup(className)
		if !ok {
			return nil, &BeanDefinitionError{Class: className, Reason: "class not found"}
		}
		if !cls.Kind.instantiable() || !cls.isComponent() {
			continue
		}
		c.logger.Debug("found component", zap.String("class", cls.Name))

		def, err := c.componentDefinition(cls)
		if err != nil {
			return nil, err
		}
		if err := addBeanDefinition(defs, def); err != nil {
			return nil, err
		}
		c.logger.Debug("define bean", zap.Stringer("definition", def))

		if cls.Configuration {
			if err := c.scanFactoryMethods(def.name, cls, defs); err != nil {
				return nil, err
			}
		}
	}
	return defs, nil
}

func addBeanDefinition(defs map[string]*BeanDefinition, def *BeanDefinition) error {
	if _, exists := defs[def.name]; exists {
		return defError(def, "duplicate bean name: %s", def.name)
	}
	defs[def.name] = def
	return nil
}

func (c *Context) componentDefinition(cls *Class) (*BeanDefinition, error) {
	if cls.Modifiers.Has(ModAbstract) {
		return nil, classError(cls, "component class must not be abstract")
	}
	if cls.Modifiers.Has(ModPrivate) {
		return nil, classError(cls, "component class must not be private")
	}
	if cls.Type == nil || cls.Type.Kind() != reflect.Ptr || cls.Type.Elem().Kind() != reflect.Struct {
		return nil, classError(cls, "component class type must be a struct or pointer to struct, got %v", cls.Type)
	}

	name := emptyString
	if cls.Component != nil {
		name = cls.Component.Name
	}
	if name == emptyString {
		name = lowerCamel(cls.simpleName())
	}

	def := &BeanDefinition{
		name:         name,
		class:        cls,
		declaredType: cls.Type,
		order:        orderOf(cls.Order),
		primary:      cls.Primary,
	}

	ctor, err := suitableConstructor(cls)
	if err != nil {
		return nil, err
	}
	if ctor != nil {
		fn := reflect.ValueOf(ctor.Func)
		if fn.Kind() != reflect.Func {
			return nil, classError(cls, "constructor must be a function, got %T", ctor.Func)
		}
		if err := checkResults(fn.Type()); err != nil {
			return nil, classError(cls, "constructor %v %v", fn.Type(), err)
		}
		out := fn.Type().Out(0)
		if !cls.Type.AssignableTo(out) {
			return nil, classError(cls, "constructor returns %v which %v is not assignable to", out, cls.Type)
		}
		if len(ctor.Params) > fn.Type().NumIn() {
			return nil, classError(cls, "constructor declares %d params but takes %d arguments", len(ctor.Params), fn.Type().NumIn())
		}
		def.ctorFunc = fn
		def.ctorParams = ctor.Params
		def.declaredType = out
	}

	if def.initMethod, err = lifecycleMethod(cls, cls.PostConstruct); err != nil {
		return nil, err
	}
	if def.destroyMethod, err = lifecycleMethod(cls, cls.PreDestroy); err != nil {
		return nil, err
	}

	if err := c.collectInjections(def, cls.Type, cls.Members); err != nil {
		return nil, err
	}
	return def, nil
}

// suitableConstructor selects the single public constructor, or the only constructor
// when none is public. A nil result means the zero value is allocated.
func suitableConstructor(cls *Class) (*Constructor, error) {
	if len(cls.Constructors) == 0 {
		return nil, nil
	}
	public := make([]*Constructor, 0, len(cls.Constructors))
	for i := range cls.Constructors {
		if !cls.Constructors[i].Private {
			public = append(public, &cls.Constructors[i])
		}
	}
	if len(public) == 0 {
		if len(cls.Constructors) != 1 {
			return nil, classError(cls, "more than one constructor found")
		}
		return &cls.Constructors[0], nil
	}
	if len(public) != 1 {
		return nil, classError(cls, "more than one public constructor found")
	}
	return public[0], nil
}

// lifecycleMethod resolves a direct init/destroy reference on the class type.
func lifecycleMethod(cls *Class, name string) (*reflect.Method, error) {
	if name == emptyString {
		return nil, nil
	}
	m, ok := cls.Type.MethodByName(name)
	if !ok {
		return nil, classError(cls, "lifecycle method '%s' not found in %v", name, cls.Type)
	}
	if m.Type.NumIn() != 1 {
		return nil, classError(cls, "lifecycle method '%s' must not have arguments", name)
	}
	return &m, nil
}

// scanFactoryMethods adds a definition for every factory method of a configuration class.
func (c *Context) scanFactoryMethods(factoryName string, cls *Class, defs map[string]*BeanDefinition) error {
	for i := range cls.Factories {
		f := &cls.Factories[i]
		where := cls.Name + nsSep + f.Method
		switch {
		case f.Modifiers.Has(ModAbstract):
			return classError(cls, "factory method %s must not be abstract", where)
		case f.Modifiers.Has(ModFinal):
			return classError(cls, "factory method %s must not be final", where)
		case f.Modifiers.Has(ModPrivate) || !isExportedName(f.Method):
			return classError(cls, "factory method %s must not be private", where)
		}
		m, ok := cls.Type.MethodByName(f.Method)
		if !ok {
			return classError(cls, "factory method %s not found", where)
		}
		if err := checkResults(m.Type); err != nil {
			return classError(cls, "factory method %s %v", where, err)
		}
		if len(f.Params) > m.Type.NumIn()-1 {
			return classError(cls, "factory method %s declares %d params but takes %d arguments", where, len(f.Params), m.Type.NumIn()-1)
		}

		name := f.Name
		if name == emptyString {
			name = lowerCamel(f.Method)
		}
		def := &BeanDefinition{
			name:              name,
			class:             cls,
			declaredType:      m.Type.Out(0),
			factoryName:       factoryName,
			factory:           f,
			factoryMethod:     m,
			order:             orderOf(f.Order),
			primary:           f.Primary,
			initMethodName:    f.InitMethod,
			destroyMethodName: f.DestroyMethod,
		}
		if err := c.collectInjections(def, def.declaredType, nil); err != nil {
			return err
		}
		if err := addBeanDefinition(defs, def); err != nil {
			return err
		}
		c.logger.Debug("define bean", zap.Stringer("definition", def))
	}
	return nil
}

func orderOf(order *int) int {
	if order == nil {
		return DefaultOrder
	}
	return *order
}
