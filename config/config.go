// Package config implements the hierarchical, lazily-evaluated configuration
// store: a tree of uppercase keys to values, with recursive {KEY}/{GROUP.KEY}
// string substitution routed through the root so cross-group references
// resolve regardless of which group asked.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// tokenPattern matches a {KEY} or {GROUP.KEY} substitution token.
var tokenPattern = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// MissingConfigurationError is raised when a format template references a
// key that cannot be resolved anywhere in the config tree.
type MissingConfigurationError struct {
	Parent string
	Key    string
}

func (e *MissingConfigurationError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("missing config while rendering %q: %s", e.Parent, e.Key)
	}
	return fmt.Sprintf("missing config: %s", e.Key)
}

// DynamicFunc computes a config value lazily on access. Root is the config's
// root, so a dynamic property can reference sibling groups.
type DynamicFunc func(root *Config) (any, error)

// DynamicFallback resolves a dotted path that wasn't found among a group's
// plain values — used for namespaces like TASKS.<name>.STATE whose members
// aren't known until a task registry exists.
type DynamicFallback func(root *Config, path []string) (any, error)

// Group is a named namespace of keys to values. A value may be a plain
// string/number/slice/map, a nested *Group, or a DynamicFunc evaluated on
// each access.
type Group struct {
	name     string
	mu       sync.RWMutex
	values   map[string]any
	reserved map[string]bool
	fallback DynamicFallback
}

// NewGroup returns an empty group named name (used as the path segment
// under which it is installed).
func NewGroup(name string) *Group {
	return &Group{name: name, values: make(map[string]any)}
}

// Set installs key=value in the group and returns g for chaining.
func (g *Group) Set(key string, value any) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = value
	return g
}

// ReservedKeys marks keys as reserved: Config.Get/Format returns them
// verbatim, never attempting substitution even if their value is a string.
func (g *Group) ReservedKeys(keys ...string) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reserved == nil {
		g.reserved = make(map[string]bool, len(keys))
	}
	for _, k := range keys {
		g.reserved[k] = true
	}
	return g
}

// WithFallback installs a DynamicFallback invoked when a dotted path isn't
// found among the group's plain values.
func (g *Group) WithFallback(fb DynamicFallback) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fallback = fb
	return g
}

func (g *Group) isReserved(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reserved[key]
}

func (g *Group) get(key string) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[key]
	return v, ok
}

// resolve walks segs within g, routing string substitution and nested
// dynamic evaluation back through root.
func (g *Group) resolve(root *Config, segs []string) (any, error) {
	if len(segs) == 0 {
		return g, nil
	}
	head := segs[0]
	raw, ok := g.get(head)
	if !ok {
		if g.fallback != nil {
			return g.fallback(root, segs)
		}
		return nil, &MissingConfigurationError{Parent: g.name, Key: strings.Join(segs, ".")}
	}

	if g.isReserved(head) {
		return raw, nil
	}

	switch v := raw.(type) {
	case *Group:
		return v.resolve(root, segs[1:])
	case DynamicFunc:
		val, err := v(root)
		if err != nil {
			return nil, err
		}
		if len(segs) > 1 {
			return nil, &MissingConfigurationError{Parent: g.name, Key: strings.Join(segs, ".")}
		}
		return root.expand(val)
	default:
		if len(segs) > 1 {
			return nil, &MissingConfigurationError{Parent: g.name, Key: strings.Join(segs, ".")}
		}
		return root.expand(raw)
	}
}

// Config is the configuration tree's root: a set of named top-level groups,
// reached by the first segment of any {GROUP.KEY} token.
type Config struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// New returns an empty Config.
func New() *Config {
	return &Config{groups: make(map[string]*Group)}
}

// Add installs group under name (conventionally upper-cased by the caller —
// the module loader upper-cases a module's name before calling Add),
// accessible thereafter as name.KEY in substitution tokens.
func (c *Config) Add(name string, group *Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[name] = group
}

// Group returns the top-level group installed under name, if any.
func (c *Config) Group(name string) (*Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.groups[name]
	return g, ok
}

// Resolve performs a dotted lookup, e.g. Resolve("TASKS.help.STATE").
func (c *Config) Resolve(path string) (any, error) {
	segs := strings.Split(path, ".")
	if len(segs) == 0 || segs[0] == "" {
		return nil, &MissingConfigurationError{Key: path}
	}
	c.mu.RLock()
	group, ok := c.groups[segs[0]]
	c.mu.RUnlock()
	if !ok {
		return nil, &MissingConfigurationError{Key: path}
	}
	return group.resolve(c, segs[1:])
}

// Get is an alias for Resolve, matching spec's get(key) operation name.
func (c *Config) Get(path string) (any, error) {
	return c.Resolve(path)
}

// expand substitutes any {KEY}/{GROUP.KEY} tokens in v if v is a string;
// non-string values pass through unchanged.
func (c *Config) expand(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return c.Format(s, nil)
}

// Format expands every {KEY}/{GROUP.KEY} token in template, consulting
// overrides first (an exact token-text match short-circuits resolution,
// letting a call site override without mutating the store), then resolving
// against the root. Resolved string values are recursively expanded so a
// value may itself reference other values.
func (c *Config) Format(template string, overrides map[string]string) (string, error) {
	var walkErr error
	result := tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		if walkErr != nil {
			return tok
		}
		key := tok[1 : len(tok)-1]
		if overrides != nil {
			if v, ok := overrides[key]; ok {
				return v
			}
		}
		val, err := c.Resolve(key)
		if err != nil {
			walkErr = err
			return tok
		}
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprintf("%v", val)
		}
		return s
	})
	if walkErr != nil {
		return "", walkErr
	}
	return result, nil
}
