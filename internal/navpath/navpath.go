package navpath

import (
	"net/url"
	"strings"
)

// LocationPrefix marks a location token (URL fragment) as path-like.
const LocationPrefix = "#/"

// Path addresses a node in the remote tree. The empty path is the root.
type Path []string

// Root returns the empty path.
func Root() Path {
	return Path{}
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports whether both paths hold the same segments in the same order.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Child returns a new path with name appended. p is never mutated.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// Parent returns the enclosing path; the root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root()
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String is the serialized form, see Encode.
func (p Path) String() string {
	return Encode(p)
}

// Location is the addressable-location token for p, e.g. "#/a/b".
func (p Path) Location() string {
	return "#" + Encode(p)
}

// Encode joins percent-encoded segments with "/", prefixed by "/".
// The root encodes to "/".
func Encode(p Path) string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = EscapeComponent(seg)
	}
	return "/" + strings.Join(parts, "/")
}

// Decode turns a path-like token back into segments. Both "/a/b" and the
// location form "#/a/b" are accepted. Anything else, including malformed
// percent escapes, decodes to the root.
func Decode(token string) Path {
	token = strings.TrimPrefix(token, "#")
	if !strings.HasPrefix(token, "/") {
		return Root()
	}
	rest := token[1:]
	if rest == "" {
		return Root()
	}
	out := Path{}
	for _, raw := range strings.Split(rest, "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return Root()
		}
		out = append(out, seg)
	}
	return out
}

// ParseLocation decodes a location token. Tokens without the "#/" marker
// decode to the root.
func ParseLocation(token string) Path {
	if !strings.HasPrefix(token, LocationPrefix) {
		return Root()
	}
	return Decode(token)
}

// EscapeComponent percent-encodes s for use as a single path segment or
// query value. Spaces become %20, never "+".
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
