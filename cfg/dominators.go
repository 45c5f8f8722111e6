package cfg

import "github.com/viant/ilanalysis/util"

// ComputeDominators runs the iterative dominator algorithm of §4.3 over
// every node reachable from g.Entry, populating each node's
// ImmediateDominator, ImmediateDominated, ForwardIndex and
// DominanceFrontier.
func ComputeDominators(g *ControlFlowGraph) {
	order := forwardTopoOrder(g)
	for i, n := range order {
		n.ForwardIndex = i
		n.ImmediateDominator = nil
		n.ImmediateDominated = nil
		n.DominanceFrontier = make(map[*CFGNode]struct{})
	}

	dom := make(map[*CFGNode]map[*CFGNode]struct{}, len(order))
	all := make(map[*CFGNode]struct{}, len(order))
	for _, n := range order {
		all[n] = struct{}{}
	}
	dom[g.Entry] = map[*CFGNode]struct{}{g.Entry: {}}
	for _, n := range order {
		if n == g.Entry {
			continue
		}
		dom[n] = cloneSet(all)
	}

	changed := true
	for changed {
		changed = false
		for _, n := range order {
			if n == g.Entry {
				continue
			}
			var newDom map[*CFGNode]struct{}
			for _, p := range n.Predecessors {
				pd, ok := dom[p]
				if !ok {
					continue
				}
				if newDom == nil {
					newDom = cloneSet(pd)
				} else {
					intersect(newDom, pd)
				}
			}
			if newDom == nil {
				newDom = map[*CFGNode]struct{}{}
			}
			newDom[n] = struct{}{}
			if !setsEqual(newDom, dom[n]) {
				dom[n] = newDom
				changed = true
			}
		}
	}

	computeImmediateDominators(order, dom, g.Entry)
	computeDominanceFrontiers(order, g.Entry)
}

func forwardTopoOrder(g *ControlFlowGraph) []*CFGNode {
	visitor := util.NewVisitor[*CFGNode](func(n *CFGNode) []*CFGNode { return n.SuccessorNodes() })
	post := visitor.PostOrder([]*CFGNode{g.Entry})
	order := make([]*CFGNode, len(post))
	for i, n := range post {
		order[len(post)-1-i] = n
	}
	return order
}

func cloneSet(s map[*CFGNode]struct{}) map[*CFGNode]struct{} {
	out := make(map[*CFGNode]struct{}, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

func intersect(a, b map[*CFGNode]struct{}) {
	for n := range a {
		if _, ok := b[n]; !ok {
			delete(a, n)
		}
	}
}

func setsEqual(a, b map[*CFGNode]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if _, ok := b[n]; !ok {
			return false
		}
	}
	return true
}

// computeImmediateDominators picks, for each non-entry node, the dominator
// distinct from itself with maximum forward topological index (§4.3).
func computeImmediateDominators(order []*CFGNode, dom map[*CFGNode]map[*CFGNode]struct{}, entry *CFGNode) {
	for _, n := range order {
		if n == entry {
			continue
		}
		var idom *CFGNode
		for d := range dom[n] {
			if d == n {
				continue
			}
			if idom == nil || d.ForwardIndex > idom.ForwardIndex {
				idom = d
			}
		}
		n.ImmediateDominator = idom
		if idom != nil {
			idom.ImmediateDominated = append(idom.ImmediateDominated, n)
		}
	}
}

// computeDominanceFrontiers implements the standard Cytron et al. upward
// walk from §4.3: for each node with >=2 predecessors, walk from each
// predecessor up the idom tree to (exclusive) idom(n).
func computeDominanceFrontiers(order []*CFGNode, entry *CFGNode) {
	for _, n := range order {
		if n == entry {
			continue
		}
		if len(n.Predecessors) < 2 {
			continue
		}
		for _, p := range n.Predecessors {
			runner := p
			for runner != nil && runner != n.ImmediateDominator {
				runner.DominanceFrontier[n] = struct{}{}
				runner = runner.ImmediateDominator
			}
		}
	}
}
