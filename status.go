package mirror

import "fmt"

// PartitionStatus tracks what the store has reported about one partition.
type PartitionStatus int

const (
	StatusUnset PartitionStatus = iota
	StatusLoaded
	StatusNotFound
)

func (s PartitionStatus) String() string {
	switch s {
	case StatusUnset:
		return "unset"
	case StatusLoaded:
		return "loaded"
	case StatusNotFound:
		return "notFound"
	default:
		return fmt.Sprintf("invalid status %d", int(s))
	}
}

type partition int

const (
	partPublic partition = iota
	partPrivate
)

func (p partition) String() string {
	if p == partPrivate {
		return "private"
	}
	return "public"
}

// Status is the per-partition load state of a model.
type Status struct {
	Public  PartitionStatus
	Private PartitionStatus
}

func (s *Status) set(p partition, v PartitionStatus) {
	if p == partPrivate {
		s.Private = v
	} else {
		s.Public = v
	}
}

// Loaded reports whether one partition is loaded and the other is resolved
// either way.
func (s Status) Loaded() bool {
	return (s.Public == StatusLoaded && s.Private == StatusLoaded) ||
		(s.Public == StatusLoaded && s.Private == StatusNotFound) ||
		(s.Public == StatusNotFound && s.Private == StatusLoaded)
}

// NotFound reports whether both partitions are confirmed absent.
func (s Status) NotFound() bool {
	return s.Public == StatusNotFound && s.Private == StatusNotFound
}

// Pending reports whether either partition has not reported yet.
func (s Status) Pending() bool {
	return s.Public == StatusUnset || s.Private == StatusUnset
}

func (s Status) String() string {
	return fmt.Sprintf("public=%v private=%v", s.Public, s.Private)
}
