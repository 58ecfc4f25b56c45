package iocctx

import (
	"reflect"
)

// Kind classifies a registered class. Only KindStruct classes can become beans;
// the other kinds are skipped by the definition builder.
type Kind int

const (
	KindStruct Kind = iota
	KindInterface
	KindEnum
	KindMarker
	KindRecord
)

func (k Kind) instantiable() bool {
	return k == KindStruct
}

// Modifier is a bit set of declaration modifiers carried by a descriptor.
type Modifier uint8

const (
	ModAbstract Modifier = 1 << iota
	ModPrivate
	ModFinal
	ModStatic
)

func (m Modifier) Has(flag Modifier) bool {
	return m&flag != 0
}

// Component marks a class as managed. Name overrides the default bean name,
// which is the lower-camel-cased simple class name.
type Component struct {
	Name string
}

// Class is the init-time descriptor of a managed type. It is registered once in a Catalog,
// usually from an init function next to the type it describes.
type Class struct {
	// Name is the fully-qualified, dot separated class name, e.g. "app.service.UserService".
	Name string
	Kind Kind
	// Type is the runtime type of instances. A struct type is normalized to a pointer-to-struct.
	Type      reflect.Type
	Modifiers Modifier

	Component     *Component
	Configuration bool
	Order         *int
	Primary       bool

	Constructors []Constructor

	// PostConstruct and PreDestroy name methods of Type taking no arguments.
	// They are resolved when the definition is built.
	PostConstruct string
	PreDestroy    string

	Factories []FactoryMethod

	ComponentScan []string
	Import        []string

	// Markers holds class-level markers, e.g. "around" -> name of the interception handler bean.
	Markers map[string]string

	// Members declares injection points that cannot be expressed with struct tags (setters)
	// or that need explicit modifiers.
	Members []Member
}

// Marker returns the value of a class-level marker.
func (c *Class) Marker(name string) (string, bool) {
	if c == nil || c.Markers == nil {
		return emptyString, false
	}
	v, ok := c.Markers[name]
	return v, ok
}

func (c *Class) isComponent() bool {
	return c.Component != nil || c.Configuration
}

func (c *Class) simpleName() string {
	name := c.Name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

func (c *Class) packageName() string {
	name := c.Name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return emptyString
}

// Constructor is one way to build an instance of a class.
// Func is a function returning T or (T, error); T becomes the declared bean type.
type Constructor struct {
	Func    any
	Params  []Param
	Private bool
}

// FactoryMethod marks an exported method of a configuration class that produces a bean.
// The method's first result is the declared bean type; an optional second result must be error.
type FactoryMethod struct {
	Method    string
	Name      string
	Params    []Param
	Order     *int
	Primary   bool
	Modifiers Modifier

	// InitMethod and DestroyMethod are resolved against the runtime type of the produced instance.
	InitMethod    string
	DestroyMethod string
}

// Param describes how a constructor or factory argument is resolved.
// Exactly one of Value and Autowired must be set.
type Param struct {
	Value     string
	Autowired *Autowired
}

// Autowired requests a dependency bean by type, optionally narrowed by Name.
// A missing dependency that is not Required resolves to the zero value.
type Autowired struct {
	Name     string
	Required bool
}

func Value(expr string) Param {
	return Param{Value: expr}
}

// Autowire requests a required dependency by parameter type.
func Autowire() Param {
	return Param{Autowired: &Autowired{Required: true}}
}

// AutowireName requests a required dependency by name and parameter type.
func AutowireName(name string) Param {
	return Param{Autowired: &Autowired{Name: name, Required: true}}
}

func AutowireOptional() Param {
	return Param{Autowired: &Autowired{}}
}

// Member is an explicit injection point: a struct field (Field) or a setter method (Method).
type Member struct {
	Field     string
	Method    string
	Value     string
	Autowired *Autowired
	Modifiers Modifier
}

// OrderOf is a helper for the Order fields.
func OrderOf(n int) *int {
	return &n
}
