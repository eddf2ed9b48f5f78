// Package routepath compiles bracket-syntax file paths into router-native
// route patterns.
//
// Pattern syntax is ":name" for a named segment and "*name" for a rest
// capture, matching the host router interface.
package routepath

import (
	"path"
	"strings"
)

// Route is one compiled route pattern.
type Route struct {
	// Pattern is the router-native path template.
	Pattern string

	// ArrayParams names the parameters whose values are ordered sequences
	// rather than scalars: every rest capture, plus the trailing parameter
	// widened by the augmentation rule.
	ArrayParams []string

	// Depth is the number of path segments in the pattern. Shallow
	// middleware registers before deep middleware.
	Depth int
}

// Compiled is the result of compiling one file path.
type Compiled struct {
	// Routes is the deduplicated pattern set. Never empty: the root file
	// path resolves to the single wildcard-root pattern.
	Routes []Route

	// IsMiddleware reports whether the file scopes a subtree (a final
	// "_middleware" segment).
	IsMiddleware bool
}

// WildcardRoot is the pattern a path with no remaining segments resolves to.
const WildcardRoot = "/*"

const (
	segLiteral = iota
	segParam
	segRest
	segOmitted
)

// choice is one expansion alternative for a path segment.
type choice struct {
	kind int
	name string // param or rest name; literal text for segLiteral
}

// Compile turns a file path into its route pattern set. It is pure, total
// and deterministic: every input produces at least one pattern, and
// unrecognized bracket forms pass through as literal text.
//
// After stripping the base prefix and the file extension, a final "index"
// segment folds into the parent and a final "_middleware" segment marks
// the file as subtree middleware. Each remaining segment contributes a
// choice set per the bracket grammar ("[name]", "[...name]", "[[name]]",
// "[[...name]]"); the pattern set is the deduplicated Cartesian product of
// those choices.
//
// Every pattern ending in a plain named parameter additionally yields an
// augmented member with that parameter widened to a rest capture, so a
// route declared with a single trailing dynamic or optional segment also
// matches deeper sub-paths. Whether that widening is intended API surface
// or a side effect of the optional-segment handling is an open question in
// the original convention; it is reproduced here as observed.
func Compile(filePath, baseDir string) Compiled {
	segments, isMiddleware := splitSegments(filePath, baseDir)

	choices := make([][]choice, len(segments))
	for i, seg := range segments {
		choices[i] = segmentChoices(seg)
	}

	type member struct {
		segs   []string
		arrays []string
	}
	members := []member{{}}
	for _, set := range choices {
		var expanded []member
		for _, m := range members {
			for _, c := range set {
				next := member{
					segs:   append([]string(nil), m.segs...),
					arrays: append([]string(nil), m.arrays...),
				}
				switch c.kind {
				case segOmitted:
					// Segment dropped in this variant.
				case segLiteral:
					next.segs = append(next.segs, c.name)
				case segParam:
					next.segs = append(next.segs, ":"+c.name)
				case segRest:
					next.segs = append(next.segs, "*"+c.name)
					next.arrays = appendName(next.arrays, c.name)
				}
				expanded = append(expanded, next)
			}
		}
		members = expanded
	}

	var routes []Route
	seen := make(map[string]bool)
	add := func(segs, arrays []string) {
		pattern := WildcardRoot
		depth := 0
		if len(segs) > 0 {
			pattern = "/" + strings.Join(segs, "/")
			depth = len(segs)
		}
		if seen[pattern] {
			return
		}
		seen[pattern] = true
		routes = append(routes, Route{Pattern: pattern, ArrayParams: arrays, Depth: depth})
	}

	for _, m := range members {
		add(m.segs, m.arrays)
	}

	// Dynamic-tail widening: a pattern ending in a plain named parameter
	// also registers with that parameter as a rest capture.
	for _, m := range members {
		if len(m.segs) == 0 {
			continue
		}
		last := m.segs[len(m.segs)-1]
		if !strings.HasPrefix(last, ":") {
			continue
		}
		name := last[1:]
		segs := append(append([]string(nil), m.segs[:len(m.segs)-1]...), "*"+name)
		add(segs, appendName(append([]string(nil), m.arrays...), name))
	}

	return Compiled{Routes: routes, IsMiddleware: isMiddleware}
}

// splitSegments strips the base prefix and file extension and applies the
// final-segment rules for "index" and "_middleware".
func splitSegments(filePath, baseDir string) (segments []string, isMiddleware bool) {
	p := strings.ReplaceAll(filePath, "\\", "/")
	base := strings.Trim(strings.ReplaceAll(baseDir, "\\", "/"), "/")
	p = strings.Trim(p, "/")
	if base != "" {
		if p == base {
			p = ""
		} else if strings.HasPrefix(p, base+"/") {
			p = p[len(base)+1:]
		}
	}
	if ext := path.Ext(p); ext != "" && !strings.Contains(ext, "]") {
		p = strings.TrimSuffix(p, ext)
	}

	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	if n := len(segments); n > 0 {
		switch segments[n-1] {
		case "index":
			segments = segments[:n-1]
		case "_middleware":
			segments = segments[:n-1]
			isMiddleware = true
		}
	}
	return segments, isMiddleware
}

// segmentChoices returns the expansion alternatives for one segment.
// Only whole-segment bracket forms are dynamic; anything else, including
// malformed brackets, is literal text.
func segmentChoices(seg string) []choice {
	if name, ok := bracketName(seg, "[[...", "]]"); ok {
		return []choice{{kind: segOmitted}, {kind: segRest, name: name}}
	}
	if name, ok := bracketName(seg, "[[", "]]"); ok {
		return []choice{{kind: segOmitted}, {kind: segParam, name: name}}
	}
	if name, ok := bracketName(seg, "[...", "]"); ok {
		return []choice{{kind: segRest, name: name}}
	}
	if name, ok := bracketName(seg, "[", "]"); ok {
		return []choice{{kind: segParam, name: name}}
	}
	return []choice{{kind: segLiteral, name: seg}}
}

// bracketName extracts the parameter name between prefix and suffix.
// The name must be non-empty and free of brackets and dots for the form
// to be recognized.
func bracketName(seg, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(seg, prefix) || !strings.HasSuffix(seg, suffix) {
		return "", false
	}
	name := seg[len(prefix) : len(seg)-len(suffix)]
	if name == "" || strings.ContainsAny(name, "[]./") {
		return "", false
	}
	return name, true
}

func appendName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
