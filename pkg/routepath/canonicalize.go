package routepath

import (
	"errors"
	"strings"
)

// Canonicalization errors. All of them reject the request before any
// pattern is consulted.
var (
	ErrBackslashInPath = errors.New("path contains backslash")
	ErrNullByteInPath  = errors.New("path contains null byte")
	ErrPathEscapesRoot = errors.New("path escapes root via ..")
)

// CanonicalizeResult is the outcome of path canonicalization.
type CanonicalizeResult struct {
	// Path is the canonical path.
	Path string

	// Changed reports whether the input was modified.
	Changed bool
}

// Canonicalize normalizes a decoded request path before matching:
//
//   - the trailing slash is removed (except for root "/")
//   - repeated slashes collapse ("/blog//post" becomes "/blog/post")
//   - "." segments are removed
//   - ".." segments resolve against their parent
//
// Paths carrying a backslash or a NUL byte are rejected, as is any ".."
// that would climb above root.
func Canonicalize(input string) (CanonicalizeResult, error) {
	if input == "" {
		return CanonicalizeResult{Path: "/", Changed: true}, nil
	}

	if strings.ContainsRune(input, '\\') {
		return CanonicalizeResult{}, ErrBackslashInPath
	}
	if strings.ContainsRune(input, '\x00') {
		return CanonicalizeResult{}, ErrNullByteInPath
	}

	path := input
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var kept []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(kept) == 0 {
				return CanonicalizeResult{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}

	path = "/" + strings.Join(kept, "/")
	return CanonicalizeResult{Path: path, Changed: path != input}, nil
}
