package pointer

import "sort"

// NodeSnapshot is a YAML-serializable rendering of one PTG node, keyed by
// its stable string id (ID.String()) rather than the struct ID itself, so
// a snapshot survives round-tripping through gopkg.in/yaml.v3 without
// custom (Un)MarshalYAML hooks on ID's Context enum.
type NodeSnapshot struct {
	Kind    string              `yaml:"kind"`
	Type    string              `yaml:"type,omitempty"`
	Targets map[string][]string `yaml:"targets,omitempty"`
}

// GraphSnapshot is a deterministic, order-independent YAML rendering of a
// Graph: its node set plus each variable's current root targets. It exists
// for golden tests and debugging (SPEC_FULL.md's supplemented "YAML
// snapshot (de)serialization ... for debugging and golden tests" —
// distinct from the spec's excluded graph-visualization export, since
// this is a plain data dump rather than a rendering format).
type GraphSnapshot struct {
	Nodes map[string]NodeSnapshot `yaml:"nodes"`
	Roots map[string][]string     `yaml:"roots"`
}

// Snapshot renders g into a GraphSnapshot with every id set sorted, so two
// structurally equal graphs produce identical output regardless of Go map
// iteration order.
func (g *Graph) Snapshot() *GraphSnapshot {
	out := &GraphSnapshot{Nodes: make(map[string]NodeSnapshot, len(g.Nodes)), Roots: map[string][]string{}}
	for id, n := range g.Nodes {
		var targets map[string][]string
		if len(n.Targets) > 0 {
			targets = make(map[string][]string, len(n.Targets))
			for field, set := range n.Targets {
				targets[field] = sortedIDStrings(set)
			}
		}
		typ := ""
		if n.Type != nil {
			typ = n.Type.String()
		}
		out.Nodes[id.String()] = NodeSnapshot{Kind: n.Kind.String(), Type: typ, Targets: targets}
	}
	for name, set := range g.roots {
		out.Roots[name] = sortedIDStrings(set)
	}
	return out
}

func sortedIDStrings(set edgeSet) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids
}
