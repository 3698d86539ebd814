package store

import (
	"encoding/json"
	"strings"
)

// JSON-tree helpers shared by the store drivers. The remote store is
// modeled as a tree of maps addressed by slash-separated paths.

func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToTree converts an arbitrary value into the plain map/slice/scalar
// form a tree holds, going through JSON so struct tags apply.
func ToTree(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return node, nil
}

// TreeAt descends from node along segs.
func TreeAt(node any, segs []string) (any, bool) {
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// SetTreeAt writes node at segs under root, creating intermediate maps.
// segs must be non-empty.
func SetTreeAt(root map[string]any, segs []string, node any) {
	parent := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			parent[seg] = child
		}
		parent = child
	}
	parent[segs[len(segs)-1]] = node
}

// DeleteTreeAt removes the node at segs. Absent paths are a no-op.
func DeleteTreeAt(root map[string]any, segs []string) {
	if len(segs) == 0 {
		return
	}
	parent := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := parent[seg].(map[string]any)
		if !ok {
			return
		}
		parent = child
	}
	delete(parent, segs[len(segs)-1])
}

// ChildrenSnapshot materializes the direct children of a node. A leaf
// or legacy scalar at a collection path yields an empty Snapshot, which
// keeps the "count = number of keys" invariant for all consumers.
func ChildrenSnapshot(node any) Snapshot {
	snap := make(Snapshot)
	children, ok := node.(map[string]any)
	if !ok {
		return snap
	}
	for key, child := range children {
		raw, err := json.Marshal(child)
		if err != nil {
			continue
		}
		snap[key] = raw
	}
	return snap
}
