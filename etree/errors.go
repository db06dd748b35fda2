package etree

import "errors"

// Sentinel errors for tree mutations.
var (
	// ErrForeignNode is the panic value used when a node owned by one tree is
	// linked into another without Tree.Import.
	ErrForeignNode = errors.New("node belongs to a different tree")

	// ErrCycle is the panic value used when a node is linked below itself.
	ErrCycle = errors.New("node cannot become its own descendant")

	// ErrNotChild is returned when a reference node is not a child of the receiver.
	ErrNotChild = errors.New("reference node is not a child")

	// ErrNullNode is the panic value used when a null handle is dereferenced.
	ErrNullNode = errors.New("null node")
)
