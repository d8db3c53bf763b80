package env

import (
	"os"
	"runtime"
	"strings"
)

// Var is one KEY=value addition supplied by the operator. Additions are
// ordered; a later addition for the same key overrides an earlier one.
type Var struct {
	Key   string
	Value string
}

// Env composes the environment for the wrapped command from the inherited
// process environment plus configured additions.
type Env struct {
	base []string // cached OS environment, original order preserved
}

func New() *Env { return &Env{} }

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	e.base = os.Environ()
}

// SetBase replaces the inherited environment; used by tests.
func (e *Env) SetBase(base []string) {
	e.base = append([]string(nil), base...)
}

// Merge returns the environment in "KEY=value" form: the inherited
// environment, then the configured additions applied in order, then extra
// search-path entries prepended to the platform path variable.
func (e *Env) Merge(additions []Var, extraPaths []string) []string {
	if e.base == nil {
		e.FromOS()
	}
	values := make(map[string]string)
	var order []string
	add := func(k, v string) {
		if k == "" {
			return
		}
		ck := canonicalKey(k)
		if _, ok := values[ck]; !ok {
			order = append(order, k)
		}
		values[ck] = v
	}
	for _, kv := range e.base {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			add(kv[:i], kv[i+1:])
		}
	}
	for _, a := range additions {
		add(a.Key, a.Value)
	}
	if len(extraPaths) > 0 {
		key := pathKey(order)
		joined := strings.Join(extraPaths, string(os.PathListSeparator))
		if cur := values[canonicalKey(key)]; cur != "" {
			joined += string(os.PathListSeparator) + cur
		}
		add(key, joined)
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+values[canonicalKey(k)])
	}
	return out
}

// canonicalKey folds case on Windows, where environment keys are
// case-insensitive ("Path" and "PATH" name the same variable).
func canonicalKey(k string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(k)
	}
	return k
}

// pathKey returns the existing spelling of the path variable if present,
// falling back to the platform default.
func pathKey(order []string) string {
	for _, k := range order {
		if canonicalKey(k) == canonicalKey("PATH") {
			return k
		}
	}
	if runtime.GOOS == "windows" {
		return "Path"
	}
	return "PATH"
}
