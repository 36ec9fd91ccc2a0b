package mirror

import (
	"maps"
	"slices"
)

// accumulator is the target of snapshot processing: either a live model's
// state or a fresh baseline.
type accumulator struct {
	data   map[string]any
	status Status
}

func newAccumulator() *accumulator {
	return &accumulator{data: make(map[string]any)}
}

// processSnapshot merges payload into acc and records the partition's status.
// Maps merge key by key; everything else, slices included, overwrites.
// A non-map payload marks the partition loaded without touching data.
func processSnapshot(acc *accumulator, part partition, payload any) {
	if isAbsent(payload) {
		acc.status.set(part, StatusNotFound)
		return
	}
	if m, ok := payload.(map[string]any); ok {
		if acc.data == nil {
			acc.data = make(map[string]any, len(m))
		}
		deepMerge(acc.data, m)
	}
	acc.status.set(part, StatusLoaded)
}

func isAbsent(payload any) bool {
	switch v := payload.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				deepMerge(dm, sm)
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := slices.Clone(v)
		for i, e := range out {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}
