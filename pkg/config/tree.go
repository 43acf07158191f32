// Package config models the external configuration collaborator this
// bridge reads at construction: a keyed tree of scalar/string leaves and
// named child subtrees (spec.md §1 "out of scope... configuration/
// parameter loading", §6 "Configuration keys"). It is the Go shape of the
// CFGM tree the original driver walks with GET_BOOL/GET_STRING/GET_S32
// macros.
package config

import "strconv"

// Tree is one node: a set of string-valued leaves plus named children.
// A nil *Tree behaves like an empty tree (every getter reports not found).
type Tree struct {
	leaves   map[string]string
	children map[string]*Tree
}

// New creates an empty, mutable tree.
func New() *Tree {
	return &Tree{leaves: map[string]string{}, children: map[string]*Tree{}}
}

// Set assigns a leaf value, overwriting any previous value for key.
func (t *Tree) Set(key, value string) {
	if t.leaves == nil {
		t.leaves = map[string]string{}
	}
	t.leaves[key] = value
}

// Child returns the named subtree, creating it if absent.
func (t *Tree) Child(name string) *Tree {
	if t.children == nil {
		t.children = map[string]*Tree{}
	}
	c, ok := t.children[name]
	if !ok {
		c = New()
		t.children[name] = c
	}
	return c
}

// Children returns the names of every direct child subtree, in no
// particular order, mirroring CFGM's node enumeration.
func (t *Tree) Children() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.children))
	for name := range t.children {
		names = append(names, name)
	}
	return names
}

// String returns the leaf's raw value and whether it was present,
// matching CFGMR3QueryStringAlloc's success/absent split.
func (t *Tree) String(key string) (string, bool) {
	if t == nil || t.leaves == nil {
		return "", false
	}
	v, ok := t.leaves[key]
	return v, ok
}

// Bool parses the leaf as a boolean (accepting the usual strconv forms:
// "1"/"0", "true"/"false", "TRUE"/"FALSE"), matching CFGMR3QueryBoolDef.
func (t *Tree) Bool(key string) (bool, bool) {
	raw, ok := t.String(key)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// S32 parses the leaf as a signed 32-bit integer, matching
// CFGMR3QueryS32Def.
func (t *Tree) S32(key string) (int32, bool) {
	raw, ok := t.String(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

// BoolDef and friends return def when the key is absent or unparsable,
// matching the *Def family of CFGM getters the original driver uses for
// every optional key in spec.md §6.
func (t *Tree) BoolDef(key string, def bool) bool {
	if v, ok := t.Bool(key); ok {
		return v
	}
	return def
}

func (t *Tree) S32Def(key string, def int32) int32 {
	if v, ok := t.S32(key); ok {
		return v
	}
	return def
}

func (t *Tree) StringDef(key, def string) string {
	if v, ok := t.String(key); ok {
		return v
	}
	return def
}
