package store

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const pathSep = "/"

// cleanPath drops empty segments, so "a//b/" and "/a/b" both become "a/b".
func cleanPath(p string) string {
	if !strings.Contains(p, pathSep) {
		return p
	}
	segs := strings.Split(p, pathSep)
	out := segs[:0]
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, pathSep)
}

func joinPath(base, rel string) string {
	rel = cleanPath(rel)
	switch {
	case base == "":
		return rel
	case rel == "":
		return base
	default:
		return base + pathSep + rel
	}
}

func parentPath(p string) string {
	i := strings.LastIndex(p, pathSep)
	if i < 0 {
		return ""
	}
	return p[:i]
}

func lastSegment(p string) string {
	return p[strings.LastIndex(p, pathSep)+1:]
}

// ancestorPaths returns the proper ancestors of p, nearest to the root first,
// excluding the root itself.
func ancestorPaths(p string) []string {
	var result []string
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			result = append(result, p[:i])
		}
	}
	return result
}

// isWithin reports whether p equals base or lies below it.
func isWithin(p, base string) bool {
	if base == "" || p == base {
		return true
	}
	return strings.HasPrefix(p, base) && len(p) > len(base) && p[len(base)] == '/'
}

// overlaps reports whether a write at one path can change the value seen at the other.
func overlaps(a, b string) bool {
	return isWithin(a, b) || isWithin(b, a)
}

// ValidateKey checks that k can be used as a single path segment.
func ValidateKey(k string) error {
	if k == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	if strings.Contains(k, pathSep) {
		return fmt.Errorf("%w: key %q contains %q", ErrInvalidPath, k, pathSep)
	}
	if !utf8.ValidString(k) || strings.ContainsRune(k, 0) {
		return fmt.Errorf("%w: key %q is not valid UTF-8 text", ErrInvalidPath, k)
	}
	return nil
}

func validatePath(p string) error {
	if p == "" {
		return nil
	}
	for _, seg := range strings.Split(p, pathSep) {
		if err := ValidateKey(seg); err != nil {
			return err
		}
	}
	return nil
}
