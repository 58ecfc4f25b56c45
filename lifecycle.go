package iocctx

import (
	"errors"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// restoredInstance asks the post-processors, in reverse registration order, for the
// instance that injection and lifecycle callbacks must operate on.
func (c *Context) restoredInstance(def *BeanDefinition) (any, error) {
	instance, err := def.requiredInstance()
	if err != nil {
		return nil, err
	}
	for _, pp := range slices.Backward(c.postProcessors) {
		instance = pp.PostProcessOnSetProperty(instance, def.name)
	}
	return instance, nil
}

// initBean invokes the init callbacks of a bean, then the after-init hooks.
func (c *Context) initBean(def *BeanDefinition) error {
	instance, err := c.restoredInstance(def)
	if err != nil {
		return err
	}

	if err := callLifecycle(instance, def.initMethod, def.initMethodName); err != nil {
		return createError(def, err, "init method failed")
	}
	if initr, ok := instance.(Initializer); ok {
		if err := protect(initr.Initialize); err != nil {
			return createError(def, err, "initializer failed")
		}
	}
	def.init = true
	c.initialized = append(c.initialized, def)

	for _, pp := range c.postProcessors {
		var processed any
		err := protect(func() (err error) {
			processed, err = pp.PostProcessAfterInitialization(def.instance, def.name)
			return err
		})
		if err != nil {
			return createError(def, err, "post-processor after initialization failed")
		}
		if err := def.setInstance(processed); err != nil {
			return err
		}
	}
	return nil
}

// destroyBean invokes the destroy callback of an initialized bean.
func (c *Context) destroyBean(def *BeanDefinition) error {
	if def.destroyMethod == nil && def.destroyMethodName == emptyString {
		return nil
	}
	instance, err := c.restoredInstance(def)
	if err != nil {
		return err
	}
	c.logger.Debug("destroy bean", zap.String("name", def.name))
	if err := callLifecycle(instance, def.destroyMethod, def.destroyMethodName); err != nil {
		return createError(def, err, "destroy method failed")
	}
	return nil
}

// callLifecycle calls a direct method reference, or else resolves name against
// the runtime type of instance.
func callLifecycle(instance any, method *reflect.Method, name string) error {
	rv := reflect.ValueOf(instance)
	if method != nil {
		if rv.Type() != method.Type.In(0) {
			return errors.New("instance type " + rv.Type().String() + " does not declare method " + method.Name)
		}
		return callMethod(method.Func, rv)
	}
	if name == emptyString {
		return nil
	}
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return &BeanDefinitionError{Class: rv.Type().String(), Reason: "method '" + name + "' not found"}
	}
	if m.Type().NumIn() != 0 {
		return &BeanDefinitionError{Class: rv.Type().String(), Reason: "method '" + name + "' must not have arguments"}
	}
	return callMethod(m)
}
