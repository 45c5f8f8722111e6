package pointer

import (
	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/util"
)

// frame is a saved caller scope: the root relation in effect before a call
// was entered, restored by RestoreFrame (§4.5).
type frame struct {
	roots map[string]edgeSet
	varOf map[string]il.Variable
}

// NewFrame pushes the current roots onto the frame stack and starts an
// empty root set for a callee; the node graph itself (g.Nodes) is shared
// across frames (§4.5 "new_frame() pushes the current roots... node graph
// is shared"). When binding is non-nil, each formal parameter's target set
// is seeded from its bound actual argument's current targets — "new_frame
// (binding) additionally copies the targets of each formal parameter from
// the caller's actuals into the callee's root set."
func (g *Graph) NewFrame(binding map[il.Variable]il.Variable) {
	saved := frame{roots: g.roots, varOf: g.varOf}
	g.frames = append(g.frames, saved)

	newRoots := make(map[string]edgeSet, len(binding))
	newVarOf := make(map[string]il.Variable, len(binding))
	for formal, actual := range binding {
		targets := saved.roots[actual.Name()]
		set := make(edgeSet, len(targets))
		for id, n := range targets {
			set[id] = n
			n.Variables = n.Variables.Add(formal)
		}
		newRoots[formal.Name()] = set
		newVarOf[formal.Name()] = formal
	}
	g.roots = newRoots
	g.varOf = newVarOf
}

// RestoreFrame pops the most recently pushed frame, restoring the caller's
// root relation. If retVar is non-nil, its current (callee-frame) targets
// are captured before the pop; if destVar is also non-nil, destVar is
// re-pointed (after the pop, in the caller's frame) at those targets —
// "restore_frame(ret_var, dest_var) pops, re-links variables to nodes,
// optionally routes callee's return targets to the caller's dest_var."
// Finally, reachability-based garbage collection drops every node no
// longer reachable from a current root (§4.5, §5).
func (g *Graph) RestoreFrame(retVar, destVar il.Variable) {
	var returned []*Node
	if retVar != nil {
		returned = g.GetTargets(retVar)
	}

	if len(g.frames) > 0 {
		top := g.frames[len(g.frames)-1]
		g.frames = g.frames[:len(g.frames)-1]
		g.roots = top.roots
		g.varOf = top.varOf
	}

	if destVar != nil {
		g.RemoveEdges(destVar)
		for _, t := range returned {
			g.PointsTo(destVar, t)
		}
	}

	g.collectGarbage()
}

// fieldNeighbors returns the ids a node's field-target edges lead to,
// the adjacency util.Visitor needs; it is shared by Reachable,
// ReachableFromParameters and collectGarbage so all three walk the PTG
// the same way.
func (g *Graph) fieldNeighbors(id ID) []ID {
	n, ok := g.Nodes[id]
	if !ok || id == NullID {
		return nil
	}
	var out []ID
	for _, set := range n.Targets {
		for tid := range set {
			out = append(out, tid)
		}
	}
	return out
}

// Reachable performs the BFS helper of §4.6: "reachable(v, n) is a BFS
// from get_targets(v) over field targets, stopping at Null" — used by
// field-load's escape check. Grounded on util.Visitor, the generic
// traversal shared with the CFG's own node walks.
func (g *Graph) Reachable(v il.Variable, n *Node) bool {
	var roots []ID
	for _, t := range g.GetTargets(v) {
		roots = append(roots, t.ID)
	}
	visited := util.NewVisitor(g.fieldNeighbors).Reachable(roots)
	_, ok := visited[n.ID]
	return ok
}

// ReachableFromParameters reports whether n is reachable, via field edges,
// from any node currently bound to a Parameter (including the Object node
// modeling "this") — the "heap escaping through a parameter" condition
// field-load's Unknown synthesis depends on (§4.6).
func (g *Graph) ReachableFromParameters(n *Node) bool {
	var roots []ID
	for _, set := range g.roots {
		for id, root := range set {
			if root.ParamName == "" {
				continue
			}
			roots = append(roots, id)
		}
	}
	visited := util.NewVisitor(g.fieldNeighbors).Reachable(roots)
	_, ok := visited[n.ID]
	return ok
}

// collectGarbage removes every node unreachable from a current root,
// cleaning the back-references of nodes that remain (§4.5, §5). The Null
// node is always retained (I-null).
func (g *Graph) collectGarbage() {
	roots := []ID{NullID}
	for _, set := range g.roots {
		for id := range set {
			roots = append(roots, id)
		}
	}
	reachable := util.NewVisitor(g.fieldNeighbors).Reachable(roots)

	for id, n := range g.Nodes {
		if _, ok := reachable[id]; ok {
			continue
		}
		for field, set := range n.Targets {
			for _, t := range set {
				delete(t.Sources[field], id)
			}
		}
		for field, set := range n.Sources {
			for _, s := range set {
				delete(s.Targets[field], id)
			}
		}
		delete(g.Nodes, id)
	}
}
