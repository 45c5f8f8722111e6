package pointer

import (
	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/ilerr"
)

// Union performs the pointwise union of §4.5: every node missing from g is
// added (preserving id identity), then for each node in other its
// variables, sources, and targets are merged into g's counterpart. It is
// the Join operation of the points-to analysis' lattice (§4.6).
func (g *Graph) Union(other *Graph) error {
	for id, on := range other.Nodes {
		ln, ok := g.Nodes[id]
		if !ok {
			ln = newNode(id, on.Kind, on.Type)
			ln.ParamName = on.ParamName
			ln.Method = on.Method
			ln.Instance = on.Instance
			g.Nodes[id] = ln
			continue
		}
		if ln.Kind != on.Kind {
			return ilerr.NewInconsistentPTG(id.String(), "kind mismatch on union")
		}
	}

	for id, on := range other.Nodes {
		ln := g.Nodes[id]
		for name, v := range on.Variables {
			if g.roots[name] == nil {
				g.roots[name] = edgeSet{}
			}
			g.roots[name][id] = ln
			g.varOf[name] = v
			ln.Variables = ln.Variables.Add(v)
		}
		for field, set := range on.Targets {
			for tid := range set {
				tn := g.Nodes[tid]
				ln.addTarget(field, tn)
			}
		}
	}
	return nil
}

// Equals implements §4.5 graph_equals: equal iff the root map is equal,
// the node set is equal, and every node has identical target/source edge
// sets.
func (g *Graph) Equals(other *Graph) bool {
	if len(g.Nodes) != len(other.Nodes) {
		return false
	}
	for id, ln := range g.Nodes {
		on, ok := other.Nodes[id]
		if !ok || ln.Kind != on.Kind {
			return false
		}
		if !edgeFieldsEqual(ln.Targets, on.Targets) {
			return false
		}
		if !edgeFieldsEqual(ln.Sources, on.Sources) {
			return false
		}
	}

	names := map[string]struct{}{}
	for n := range g.roots {
		names[n] = struct{}{}
	}
	for n := range other.roots {
		names[n] = struct{}{}
	}
	for name := range names {
		if !idSetsEqual(g.roots[name], other.roots[name]) {
			return false
		}
	}
	return true
}

func edgeFieldsEqual(a, b map[string]edgeSet) bool {
	fields := map[string]struct{}{}
	for f := range a {
		fields[f] = struct{}{}
	}
	for f := range b {
		fields[f] = struct{}{}
	}
	for f := range fields {
		if !idSetsEqual(a[f], b[f]) {
			return false
		}
	}
	return true
}

func idSetsEqual(a, b edgeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of g, preserving id identity (§4.5, §5
// "Cloning a graph creates fresh nodes but preserves id mapping").
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make(map[ID]*Node, len(g.Nodes)),
		roots: make(map[string]edgeSet, len(g.roots)),
		varOf: make(map[string]il.Variable, len(g.varOf)),
	}
	for id, n := range g.Nodes {
		out.Nodes[id] = n.clone()
	}
	// n.clone() copied edge sets referencing the ORIGINAL node pointers;
	// remap every reference to the freshly cloned node with the same id.
	for _, n := range out.Nodes {
		for field, set := range n.Targets {
			remapped := make(edgeSet, len(set))
			for id := range set {
				remapped[id] = out.Nodes[id]
			}
			n.Targets[field] = remapped
		}
		for field, set := range n.Sources {
			remapped := make(edgeSet, len(set))
			for id := range set {
				remapped[id] = out.Nodes[id]
			}
			n.Sources[field] = remapped
		}
	}
	for name, set := range g.roots {
		remapped := make(edgeSet, len(set))
		for id := range set {
			remapped[id] = out.Nodes[id]
		}
		out.roots[name] = remapped
	}
	for name, v := range g.varOf {
		out.varOf[name] = v
	}
	return out
}
