package iocctx

import (
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// injectionPoint is a field or setter resolved when the definition is built.
type injectionPoint struct {
	name      string
	field     []int // index path through embedded structs; nil for setters
	method    string
	typ       reflect.Type
	value     string
	autowired *Autowired
}

func (p injectionPoint) isField() bool {
	return p.field != nil
}

// collectInjections finds the injection points of t: tagged fields of the struct and of
// every embedded struct, followed by explicitly declared members.
// Invalid members are definition errors, reported here rather than during injection.
func (c *Context) collectInjections(def *BeanDefinition, t reflect.Type, members []Member) error {
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		if len(members) > 0 {
			return defError(def, "members declared on non-struct type %v", t)
		}
		return nil
	}
	def.injectType = t

	if err := c.collectTaggedFields(def, t.Elem(), nil); err != nil {
		return err
	}
	for _, m := range members {
		p, ok, err := c.memberInjection(def, t, m)
		if err != nil {
			return err
		}
		if ok {
			def.injections = append(def.injections, p)
		}
	}
	return nil
}

func (c *Context) collectTaggedFields(def *BeanDefinition, st reflect.Type, prefix []int) error {
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		path := append(append([]int{}, prefix...), i)

		injTag, hasInject := sf.Tag.Lookup(string(inject))
		valTag, hasValue := sf.Tag.Lookup(string(value))

		if !hasInject && !hasValue {
			// Embedded structs play the role of superclasses.
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				if err := c.collectTaggedFields(def, sf.Type, path); err != nil {
					return err
				}
			}
			continue
		}
		if hasInject && hasValue {
			return defError(def, "cannot specify both %s and %s on field %s.%s", inject, value, st.Name(), sf.Name)
		}
		// Unexported fields cannot be assigned; they are rejected like final fields.
		if !sf.IsExported() {
			return defError(def, "cannot inject unexported field %s.%s", st.Name(), sf.Name)
		}

		p := injectionPoint{name: sf.Name, field: path, typ: sf.Type}
		if hasValue {
			if valTag == emptyString {
				return defError(def, "empty %s tag on field %s.%s", value, st.Name(), sf.Name)
			}
			p.value = valTag
		} else {
			p.autowired = parseInjectTag(injTag)
		}
		def.injections = append(def.injections, p)
	}
	return nil
}

// parseInjectTag parses `di.inject:"[name][,required]"`. Field injection is optional by default.
func parseInjectTag(tagVal string) *Autowired {
	parts := strings.Split(tagVal, ",")
	aw := &Autowired{Name: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == optRequired {
			aw.Required = true
		}
	}
	return aw
}

func (c *Context) memberInjection(def *BeanDefinition, t reflect.Type, m Member) (injectionPoint, bool, error) {
	var p injectionPoint
	if (m.Field == emptyString) == (m.Method == emptyString) {
		return p, false, defError(def, "member must name exactly one of field or method")
	}
	if m.Modifiers.Has(ModStatic) {
		return p, false, defError(def, "cannot inject static member %s%s", m.Field, m.Method)
	}
	if m.Value == emptyString && m.Autowired == nil {
		return p, false, nil
	}
	if m.Value != emptyString && m.Autowired != nil {
		return p, false, defError(def, "cannot specify both value and autowired on member %s%s", m.Field, m.Method)
	}
	p.value = m.Value
	p.autowired = m.Autowired

	if m.Field != emptyString {
		if m.Modifiers.Has(ModFinal) {
			return p, false, defError(def, "cannot inject final field %s", m.Field)
		}
		sf, ok := t.Elem().FieldByName(m.Field)
		if !ok {
			return p, false, defError(def, "field %s not found in %v", m.Field, t)
		}
		if !sf.IsExported() {
			return p, false, defError(def, "cannot inject unexported field %s", m.Field)
		}
		p.name, p.field, p.typ = sf.Name, sf.Index, sf.Type
		return p, true, nil
	}

	if m.Modifiers.Has(ModFinal) {
		c.logger.Warn("injecting a final method should be careful: it is not called on the target bean when the bean is proxied",
			zap.String("bean", def.name), zap.String("method", m.Method))
	}
	method, ok := t.MethodByName(m.Method)
	if !ok {
		return p, false, defError(def, "setter method %s not found in %v", m.Method, t)
	}
	if method.Type.NumIn() != 2 {
		return p, false, defError(def, "cannot inject a non-setter method %s", m.Method)
	}
	p.name, p.method, p.typ = method.Name, method.Name, method.Type.In(1)
	return p, true, nil
}

// injectBean runs property injection on the original instance behind any proxy.
func (c *Context) injectBean(def *BeanDefinition) error {
	if len(def.injections) == 0 {
		return nil
	}
	instance, err := c.restoredInstance(def)
	if err != nil {
		return err
	}
	if t := reflect.TypeOf(instance); t != def.injectType {
		return createError(def, nil, "cannot inject into instance of type %v, expected %v", t, def.injectType)
	}

	rv := reflect.ValueOf(instance)
	for _, p := range def.injections {
		v, found, err := c.resolveInjection(def, p)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := c.assignInjection(def, rv, p, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) resolveInjection(def *BeanDefinition, p injectionPoint) (any, bool, error) {
	if p.value != emptyString {
		v, err := c.props.GetRequiredProperty(p.value, p.typ)
		if err != nil {
			return nil, false, createError(def, err, "cannot resolve property %s for %s", p.value, p.name)
		}
		return v, true, nil
	}

	var dep *BeanDefinition
	var err error
	if p.autowired.Name == emptyString {
		dep, err = c.FindBeanDefinitionByType(p.typ)
	} else {
		dep, err = c.FindTypedBeanDefinition(p.autowired.Name, p.typ)
	}
	if err != nil {
		return nil, false, createError(def, err, "cannot resolve dependency for %s", p.name)
	}
	if dep == nil {
		if p.autowired.Required {
			return nil, false, &UnsatisfiedDependencyError{Bean: def.name, Member: p.name, Type: p.typ}
		}
		return nil, false, nil
	}
	inst, err := dep.requiredInstance()
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

func (c *Context) assignInjection(def *BeanDefinition, rv reflect.Value, p injectionPoint, v any) error {
	av, err := assignValue(v, p.typ)
	if err != nil {
		return createError(def, err, "cannot inject %s", p.name)
	}
	if p.isField() {
		c.logger.Debug("field injection", zap.String("bean", def.name), zap.String("field", p.name))
		fv := rv.Elem().FieldByIndex(p.field)
		if !fv.CanSet() {
			return createError(def, nil, "field %s is not settable", p.name)
		}
		fv.Set(av)
		return nil
	}
	c.logger.Debug("method injection", zap.String("bean", def.name), zap.String("method", p.name))
	if err := callMethod(rv.MethodByName(p.method), av); err != nil {
		return createError(def, err, "setter %s failed", p.name)
	}
	return nil
}
