package iocctx

// Initializer is an optional interface that a bean may implement to finish its setup
// once its properties have been injected.
//
// Initialize is called on the original instance (never on a proxy), right after the
// bean's PostConstruct or InitMethod callback. If it returns an error, New fails with
// a BeanCreationError wrapping it.
type Initializer interface {
	Initialize() error
}
