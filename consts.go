package iocctx

import "math"

const (
	emptyString = ""
	pathSep     = " -> "
	nsSep       = "."
	classSuffix = ".class"

	// DefaultOrder is the order of beans without an explicit one; they sort last.
	DefaultOrder = math.MaxInt
)

type tag string

const (
	inject tag = "di.inject" // di.inject marks a field for dependency injection: `di.inject:"[name][,required]"`. The field MUST be exported.
	value  tag = "di.value"  // di.value marks a field for property injection: `di.value:"${key:default}"`.
)

const optRequired = "required"
