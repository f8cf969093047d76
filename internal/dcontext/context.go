// Package dcontext provides context helpers used throughout rededup,
// chiefly a context-carried leveled logger. It mirrors the package of
// the same name in the distribution/distribution registry, trimmed to
// the pieces a command-line tool needs (no request tracing, no HTTP
// host binding).
package dcontext

import "context"

// Background returns a non-nil, empty context. It is the root of the
// context tree for every rededup command invocation.
func Background() context.Context {
	return context.Background()
}

type valueKey string

// WithValue returns a copy of parent with key bound to val. Used for
// request-scoped data such as the repository path or the current
// command name, not for optional function parameters.
func WithValue(parent context.Context, key string, val any) context.Context {
	return context.WithValue(parent, valueKey(key), val)
}

// stringMapContext proxies Value lookups through a map before falling
// back to its parent context.
type stringMapContext struct {
	context.Context
	m map[string]any
}

// WithValues returns a context that proxies lookups through m, used to
// bind a batch of static fields (such as configured log fields) in one
// call rather than chaining WithValue.
func WithValues(ctx context.Context, m map[string]any) context.Context {
	mo := make(map[string]any, len(m))
	for k, v := range m {
		mo[k] = v
	}
	return stringMapContext{Context: ctx, m: mo}
}

func (smc stringMapContext) Value(key any) any {
	if s, ok := key.(string); ok {
		if v, ok := smc.m[s]; ok {
			return v
		}
	}
	return smc.Context.Value(key)
}
