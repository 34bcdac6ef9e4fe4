package deploy

import (
	"fmt"
	"regexp"
	"strings"
)

var modulePathPattern = regexp.MustCompile(`^([^/]+)(/(.*))?$`)

// Identity names a module: the serving function and the destination path
// the module is mounted at. Destination is empty for the root module and
// otherwise ends with a slash.
type Identity struct {
	Function    string
	Destination string
}

// ParseModulePath parses "function-name" or "function-name/path/to/module".
func ParseModulePath(value string) (Identity, error) {
	match := modulePathPattern.FindStringSubmatch(value)
	if match == nil {
		return Identity{}, fmt.Errorf(
			"incorrect module path '%s', expected format function-name/path or function-name", value,
		)
	}
	return Identity{Function: match[1], Destination: NormalizeDestination(match[3])}, nil
}

// NormalizeDestination appends the trailing separator to a non-empty path.
func NormalizeDestination(destination string) string {
	if destination != "" && !strings.HasSuffix(destination, "/") {
		destination += "/"
	}
	return destination
}

func (i Identity) String() string {
	return i.Function + "/" + i.Destination
}
