package phy

import (
	"strconv"
	"strings"

	"mdl-decompiler/internal/logx"
)

// parseText scans the ASCII tail of the container: brace-delimited blocks of
// quoted or bare key/value pairs. Known blocks populate solid properties and
// ragdoll constraints; anything else is skipped by brace-depth counting.
func parseText(f *File, text []byte, log logx.Sink) {
	tok := &tokenizer{src: string(text)}
	for {
		word, ok := tok.next()
		if !ok {
			return
		}
		open, ok := tok.next()
		if !ok {
			return
		}
		if open != "{" {
			// stray token; resynchronize on the next block
			tok.pushBack(open)
			continue
		}
		switch strings.ToLower(word) {
		case "solid":
			parseSolidBlock(f, tok, log)
		case "ragdollconstraint":
			parseConstraintBlock(f, tok)
		default:
			tok.skipBlock()
		}
	}
}

func parseSolidBlock(f *File, tok *tokenizer, log logx.Sink) {
	pairs := tok.readPairs()
	idx := -1
	if v, ok := pairs["index"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			idx = n
		}
	}
	if idx < 0 || idx >= len(f.Solids) {
		log.Warnf("phy: solid text block with index %d ignored", idx)
		return
	}
	s := &f.Solids[idx]
	if v, ok := pairs["name"]; ok {
		s.Name = v
	}
	if v, ok := pairs["parent"]; ok {
		s.Parent = v
	}
	if v, ok := pairs["surfaceprop"]; ok {
		s.SurfaceProp = v
	}
	s.Mass = floatOr(pairs, "mass", s.Mass)
	s.Damping = floatOr(pairs, "damping", s.Damping)
	s.RotDamping = floatOr(pairs, "rotdamping", s.RotDamping)
	s.Inertia = floatOr(pairs, "inertia", s.Inertia)
	s.Volume = floatOr(pairs, "volume", s.Volume)
}

func parseConstraintBlock(f *File, tok *tokenizer) {
	pairs := tok.readPairs()
	c := RagdollConstraint{Parent: -1, Child: -1}
	if v, ok := pairs["parent"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Parent = int32(n)
		}
	}
	if v, ok := pairs["child"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Child = int32(n)
		}
	}
	for i, axis := range []string{"x", "y", "z"} {
		c.Axes[i].Min = floatOr(pairs, axis+"min", 0)
		c.Axes[i].Max = floatOr(pairs, axis+"max", 0)
		c.Axes[i].Friction = floatOr(pairs, axis+"friction", 0)
	}
	f.Constraints = append(f.Constraints, c)
}

func floatOr(pairs map[string]string, key string, def float32) float32 {
	v, ok := pairs[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(n)
}

// tokenizer hand-splits the text into quoted strings, bare words and braces.
type tokenizer struct {
	src    string
	pos    int
	pushed []string
}

func (t *tokenizer) pushBack(tok string) {
	t.pushed = append(t.pushed, tok)
}

func (t *tokenizer) next() (string, bool) {
	if n := len(t.pushed); n > 0 {
		tok := t.pushed[n-1]
		t.pushed = t.pushed[:n-1]
		return tok, true
	}
	for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.src) {
		return "", false
	}
	c := t.src[t.pos]
	switch {
	case c == '{' || c == '}':
		t.pos++
		return string(c), true
	case c == '"':
		t.pos++
		start := t.pos
		for t.pos < len(t.src) && t.src[t.pos] != '"' {
			t.pos++
		}
		tok := t.src[start:t.pos]
		if t.pos < len(t.src) {
			t.pos++ // closing quote
		}
		return tok, true
	default:
		start := t.pos
		for t.pos < len(t.src) && !isSpace(t.src[t.pos]) &&
			t.src[t.pos] != '{' && t.src[t.pos] != '}' && t.src[t.pos] != '"' {
			t.pos++
		}
		return t.src[start:t.pos], true
	}
}

// readPairs consumes key/value pairs until the block closes. A nested block
// in value position is skipped whole.
func (t *tokenizer) readPairs() map[string]string {
	pairs := make(map[string]string)
	for {
		key, ok := t.next()
		if !ok || key == "}" {
			return pairs
		}
		val, ok := t.next()
		if !ok {
			return pairs
		}
		if val == "{" {
			t.skipBlock()
			continue
		}
		if val == "}" {
			pairs[strings.ToLower(key)] = ""
			return pairs
		}
		pairs[strings.ToLower(key)] = val
	}
}

// skipBlock consumes tokens until the current block's closing brace,
// counting nested braces.
func (t *tokenizer) skipBlock() {
	depth := 1
	for depth > 0 {
		tok, ok := t.next()
		if !ok {
			return
		}
		switch tok {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ','
}
