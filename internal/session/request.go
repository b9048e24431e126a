package session

import (
	"fmt"
	"maps"
	"strings"

	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
)

// Request carries per-request locators (locator name -> field -> value).
// They are merged last into the state namespace and are read-only.
type Request map[string]map[string]string

// Set adds one field and returns the request for chaining.
func (r Request) Set(locator, field, value string) Request {
	if r[locator] == nil {
		r[locator] = map[string]string{}
	}
	r[locator][field] = value
	return r
}

// ParseRequest parses "locator.field=value" or "locator::field=value"
// arguments into a Request.
func ParseRequest(args []string) (Request, error) {
	req := Request{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid request %q: expected locator.field=value", arg)
		}
		locator, field, ok := strings.Cut(key, ir.Separator)
		if !ok {
			locator, field, ok = strings.Cut(key, ".")
		}
		if !ok || locator == "" || field == "" {
			return nil, fmt.Errorf("invalid request %q: expected locator.field=value", arg)
		}
		req.Set(locator, field, value)
	}
	return req, nil
}

// locators wraps every request locator as a read-only locator.
func (r Request) locators() *engine.Locators {
	l := engine.NewLocators()
	for _, name := range ir.SortedKeys(r) {
		l.Register(name, engine.NewRequestLocator(name, r[name]))
	}
	return l
}

// clone returns a deep copy, nil for an empty request.
func (r Request) clone() map[string]map[string]string {
	if len(r) == 0 {
		return nil
	}
	out := make(map[string]map[string]string, len(r))
	for name, fields := range r {
		out[name] = maps.Clone(fields)
	}
	return out
}
