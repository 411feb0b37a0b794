package names

import (
	"strconv"
	"strings"
)

// Canonicalize turns a raw bone/material name into an engine-safe identifier:
// backslashes become slashes first (path-ish names), then anything outside
// [A-Za-z0-9_.] maps to '_'. Empty input yields "unnamed".
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if raw == "" {
		return "unnamed"
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '_' || r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// FileStem canonicalizes and lowercases a name for use as an output file
// stem. The path component goes first, since Canonicalize flattens
// separators into underscores.
func FileStem(raw string) string {
	raw = strings.ReplaceAll(raw, "\\", "/")
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	s := strings.ToLower(Canonicalize(raw))
	return strings.TrimSuffix(s, ".mdl")
}

// Dedup hands out unique names, suffixing a counter on collision.
type Dedup struct {
	seen map[string]int
}

// NewDedup returns an empty deduplicator.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]int)}
}

// Take returns name unchanged the first time, and name_N afterwards.
func (d *Dedup) Take(name string) string {
	n, ok := d.seen[name]
	if !ok {
		d.seen[name] = 1
		return name
	}
	for {
		n++
		candidate := name + "_" + strconv.Itoa(n)
		if _, clash := d.seen[candidate]; !clash {
			d.seen[name] = n
			d.seen[candidate] = 1
			return candidate
		}
	}
}

// Has reports whether a name was already handed out.
func (d *Dedup) Has(name string) bool {
	_, ok := d.seen[name]
	return ok
}
