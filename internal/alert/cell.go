package alert

// CellState tracks whether a lazily fetched value has been loaded.
type CellState uint8

const (
	// Unfetched means no value is known and a fetch has not succeeded yet.
	Unfetched CellState = iota
	// FetchedEmpty means a fetch succeeded and returned nothing.
	FetchedEmpty
	// FetchedPresent means a value is held.
	FetchedPresent
)

// String returns the string representation of CellState.
func (s CellState) String() string {
	switch s {
	case FetchedEmpty:
		return "fetched-empty"
	case FetchedPresent:
		return "fetched-present"
	}
	return "unfetched"
}

// Cell is a lazily filled value. The zero Cell is Unfetched.
// Cells are not synchronized.
type Cell[T any] struct {
	state CellState
	value T
}

// Filled returns a Cell holding v.
func Filled[T any](v T) Cell[T] {
	return Cell[T]{state: FetchedPresent, value: v}
}

// State returns the fetch state.
func (c *Cell[T]) State() CellState {
	return c.state
}

// Fetched reports whether a fetch has completed, with or without a value.
func (c *Cell[T]) Fetched() bool {
	return c.state != Unfetched
}

// Value returns the held value. ok is false unless the state is FetchedPresent.
func (c *Cell[T]) Value() (v T, ok bool) {
	if c.state != FetchedPresent {
		return v, false
	}
	return c.value, true
}

// Set stores v as present.
func (c *Cell[T]) Set(v T) {
	c.state = FetchedPresent
	c.value = v
}

// SetEmpty records a fetch that returned nothing.
func (c *Cell[T]) SetEmpty() {
	var zero T
	c.state = FetchedEmpty
	c.value = zero
}
