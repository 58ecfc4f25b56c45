package iocctx

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Catalog registers class descriptors by fully-qualified name. It acts as both the
// package scanner and the class loader of a container.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]*Class
	byType  map[reflect.Type]*Class
}

func NewCatalog() *Catalog {
	return &Catalog{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
	}
}

// Register adds classes to the catalog. The batch is validated as a whole: on error nothing
// is registered. The catalog stores a copy of each class with struct types normalized to
// pointer-to-struct, so all instances are pointers, matching how beans are created.
func (c *Catalog) Register(classes ...*Class) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := make(map[string]struct{}, len(classes))
	for _, cls := range classes {
		if cls == nil {
			return ErrClassIsNil
		}
		if cls.Name == emptyString {
			return ErrClassNameIsEmpty
		}
		_, exists := c.classes[cls.Name]
		if _, dup := batch[cls.Name]; exists || dup {
			return fmt.Errorf("%w: %s", ErrDuplicateClass, cls.Name)
		}
		batch[cls.Name] = struct{}{}
	}

	for _, cls := range classes {
		stored := *cls
		if stored.Type != nil && stored.Type.Kind() == reflect.Struct {
			stored.Type = reflect.PointerTo(stored.Type)
		}
		c.classes[stored.Name] = &stored
		if stored.Type != nil {
			if _, exists := c.byType[stored.Type]; !exists {
				c.byType[stored.Type] = &stored
			}
		}
	}
	return nil
}

// MustRegister is Register for init functions.
func (c *Catalog) MustRegister(classes ...*Class) {
	if err := c.Register(classes...); err != nil {
		panic(err)
	}
}

func (c *Catalog) Lookup(name string) (*Class, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cls, ok := c.classes[name]
	return cls, ok
}

func (c *Catalog) ClassOf(t reflect.Type) (*Class, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cls, ok := c.byType[t]
	return cls, ok
}

// Scan lists the resources of every class registered under root (the root package itself
// and its sub-packages), sorted. Class "app.service.UserService" is exposed as
// "app/service/UserService.class".
func (c *Catalog) Scan(root string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefix := root + nsSep
	resources := make([]string, 0)
	for name := range c.classes {
		if root != emptyString && !strings.HasPrefix(name, prefix) {
			continue
		}
		resources = append(resources, strings.ReplaceAll(name, nsSep, "/")+classSuffix)
	}
	slices.Sort(resources)
	return resources, nil
}

// classNameOf maps a resource identifier to a class name, or "" for non-class resources.
func classNameOf(resource string) string {
	if !strings.HasSuffix(resource, classSuffix) {
		return emptyString
	}
	name := strings.TrimSuffix(resource, classSuffix)
	name = strings.ReplaceAll(name, "/", nsSep)
	return strings.ReplaceAll(name, "\\", nsSep)
}
