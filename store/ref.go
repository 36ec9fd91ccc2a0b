package store

import "context"

// Event names a kind of change notification. Only EventValue is supported.
type Event string

const EventValue Event = "value"

// ListenerID identifies a registration made with Ref.On.
type ListenerID uint64

// Ref addresses a location in a hierarchical, observable tree.
type Ref interface {
	// Key returns the last path segment ("" for the root).
	Key() string
	// Path returns the slash-separated path from the root ("" for the root).
	Path() string
	// Parent returns the location one level up, or nil for the root.
	Parent() Ref
	// Child returns a location below this one; path may contain several segments.
	Child(path string) Ref

	// On registers a live listener. onChange fires with the current value
	// shortly after registration and then after every change at or below
	// this location. onError reports failures to read or deliver a value.
	On(event Event, onChange func(Snapshot), onError func(error)) ListenerID
	// Off removes a listener registered with On. Unknown ids are ignored.
	Off(event Event, id ListenerID)
	// Once reads the current value a single time.
	Once(ctx context.Context, event Event) (Snapshot, error)

	// Update merges the given children into this location without touching
	// siblings that are absent from partial. Nil values delete children, and
	// keys may be multi-segment paths.
	Update(ctx context.Context, partial map[string]any) error
	// Set replaces the value at this location.
	Set(ctx context.Context, value any) error
	// Remove deletes this location and everything beneath it.
	Remove(ctx context.Context) error
}

// Snapshot is an immutable view of a location's value at some point in time.
type Snapshot interface {
	// Val returns the value, or nil if the location holds nothing.
	Val() any
	// Exists reports whether Val is non-nil.
	Exists() bool
	// Ref returns the location the snapshot was taken from.
	Ref() Ref
}

type snapshot struct {
	ref Ref
	val any
}

func (s *snapshot) Val() any     { return s.val }
func (s *snapshot) Exists() bool { return s.val != nil }
func (s *snapshot) Ref() Ref     { return s.ref }

// NewSnapshot builds a Snapshot of a value at a location. It is mostly
// useful to implementations of Ref that wrap another one.
func NewSnapshot(ref Ref, val any) Snapshot {
	return &snapshot{ref, val}
}
