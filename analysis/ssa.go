package analysis

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// ssaPhi records a Phi instruction this pass inserted, alongside the
// predecessor order its operands are filled in (§4.7 "places Phi functions
// at dominance frontiers of definitions, then renames variables into
// DerivedVariable instances per definition count").
type ssaPhi struct {
	Instruction *il.Phi
	Origin      string
	Preds       []*cfg.CFGNode
}

// InsertPhis places a Phi for v at the iterated dominance frontier of
// every node that defines v, for every variable some instruction of g
// defines (body's declared locals and parameters are not consulted),
// following the standard Cytron
// placement algorithm over the CFG's already-computed DominanceFrontier
// (§4.3, §4.7).
func InsertPhis(g *cfg.ControlFlowGraph, body *il.MethodBody) map[*cfg.CFGNode][]*ssaPhi {
	defSites := map[string]map[*cfg.CFGNode]struct{}{}
	for _, n := range g.Nodes {
		for _, ins := range n.Instructions {
			for name := range ins.ModifiedVariables() {
				if defSites[name] == nil {
					defSites[name] = map[*cfg.CFGNode]struct{}{}
				}
				defSites[name][n] = struct{}{}
			}
		}
	}

	placed := map[*cfg.CFGNode][]*ssaPhi{}
	hasPhi := map[string]map[*cfg.CFGNode]bool{}

	for name, sites := range defSites {
		if hasPhi[name] == nil {
			hasPhi[name] = map[*cfg.CFGNode]bool{}
		}
		worklist := make([]*cfg.CFGNode, 0, len(sites))
		for n := range sites {
			worklist = append(worklist, n)
		}
		for len(worklist) > 0 {
			n := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for m := range n.DominanceFrontier {
				if hasPhi[name][m] {
					continue
				}
				hasPhi[name][m] = true
				phi := &il.Phi{Operands: make([]il.Value, len(m.Predecessors))}
				phi.SetOffset(m.StartOffset())
				for i := range m.Predecessors {
					phi.Operands[i] = &il.LocalVariable{VarName: name}
				}
				m.Instructions = append([]il.Instruction{phi}, m.Instructions...)
				placed[m] = append(placed[m], &ssaPhi{Instruction: phi, Origin: name, Preds: append([]*cfg.CFGNode{}, m.Predecessors...)})
				if _, ok := sites[m]; !ok {
					sites[m] = struct{}{}
					worklist = append(worklist, m)
				}
			}
		}
	}
	return placed
}

// ssaRenamer drives the dominator-tree preorder renaming pass (§4.7).
type ssaRenamer struct {
	counters map[string]int
	stacks   map[string][]il.Variable
	final    map[*cfg.CFGNode]map[string]il.Variable
	declared map[string]il.Variable
}

func newSSARenamer(body *il.MethodBody) *ssaRenamer {
	r := &ssaRenamer{
		counters: map[string]int{},
		stacks:   map[string][]il.Variable{},
		final:    map[*cfg.CFGNode]map[string]il.Variable{},
		declared: map[string]il.Variable{},
	}
	for _, p := range body.Parameters {
		r.declared[p.Name()] = p
	}
	for _, l := range body.Locals {
		r.declared[l.Name()] = l
	}
	return r
}

func (r *ssaRenamer) fresh(name string) il.Variable {
	origin, ok := r.declared[name]
	if !ok {
		origin = &il.LocalVariable{VarName: name}
	}
	idx := r.counters[name]
	r.counters[name] = idx + 1
	v := &il.DerivedVariable{Origin: origin, Index: idx}
	r.stacks[name] = append(r.stacks[name], v)
	return v
}

func (r *ssaRenamer) top(name string) il.Variable {
	stack := r.stacks[name]
	if len(stack) == 0 {
		if origin, ok := r.declared[name]; ok {
			return origin
		}
		return &il.LocalVariable{VarName: name}
	}
	return stack[len(stack)-1]
}

func (r *ssaRenamer) pop(name string) {
	stack := r.stacks[name]
	if len(stack) > 0 {
		r.stacks[name] = stack[:len(stack)-1]
	}
}

// RenameToSSA renames every variable into a per-definition DerivedVariable,
// walking the dominator tree from g.Entry (§4.3's ImmediateDominated
// powers the traversal) and filling each inserted Phi's operand for every
// predecessor with that predecessor's reaching version.
func RenameToSSA(g *cfg.ControlFlowGraph, body *il.MethodBody, placed map[*cfg.CFGNode][]*ssaPhi) {
	r := newSSARenamer(body)
	var visit func(n *cfg.CFGNode)
	visit = func(n *cfg.CFGNode) {
		pushed := map[string]int{}
		for _, phi := range placed[n] {
			phi.Instruction.ResultVar = r.fresh(phi.Origin)
			pushed[phi.Origin]++
		}
		for _, ins := range n.Instructions {
			if _, isPhi := ins.(*il.Phi); isPhi {
				continue
			}
			renameInstructionUses(ins, r)
			for name := range ins.ModifiedVariables() {
				setInstructionResult(ins, r.fresh(name))
				pushed[name]++
			}
		}
		if r.final[n] == nil {
			r.final[n] = map[string]il.Variable{}
		}
		for name := range r.stacks {
			r.final[n][name] = r.top(name)
		}
		for _, child := range n.ImmediateDominated {
			visit(child)
		}
		for name, count := range pushed {
			for i := 0; i < count; i++ {
				r.pop(name)
			}
		}
	}
	visit(g.Entry)

	for _, phis := range placed {
		for _, phi := range phis {
			for i, pred := range phi.Preds {
				if final, ok := r.final[pred][phi.Origin]; ok {
					phi.Instruction.Operands[i] = final
				}
			}
		}
	}
}

func renameInstructionUses(ins il.Instruction, r *ssaRenamer) {
	used := ins.UsedVariables()
	for name := range used {
		replaceVariableUse(ins, name, r.top(name))
	}
}

func setInstructionResult(ins il.Instruction, v il.Variable) {
	switch t := ins.(type) {
	case *il.Load:
		t.ResultVar = v
	case *il.CreateObject:
		t.ResultVar = v
	case *il.CreateArray:
		t.ResultVar = v
	case *il.Convert:
		t.ResultVar = v
	case *il.MethodCall:
		t.ResultVar = v
	case *il.CatchMarker:
		t.ResultVar = v
	}
}

// PrunePhis removes every inserted Phi whose defined variable is not live
// immediately after it, per §4.7 "Pruning removes Phi for variables dead at
// the Phi site". InsertPhis always prepends every Phi it places to the
// front of its node, so the liveness boundary every Phi in a node shares is
// the point right after that node's phi prelude and before its first real
// instruction; that is computed by replaying LiveVariables' kill/gen walk
// over just the non-Phi suffix, starting from the node's real live-out
// (live.In per SolveLiveVariables' direction note).
func PrunePhis(g *cfg.ControlFlowGraph, placed map[*cfg.CFGNode][]*ssaPhi, live *dataflow.Result[il.VarSet]) int {
	pruned := 0
	for n, phis := range placed {
		liveOut := live.In[n]
		afterPhis := liveOut.Clone()
		for i := len(n.Instructions) - 1; i >= len(phis); i-- {
			ins := n.Instructions[i]
			for name := range ins.ModifiedVariables() {
				delete(afterPhis, name)
			}
			afterPhis = afterPhis.Union(ins.UsedVariables())
		}

		removed := map[*il.Phi]bool{}
		for _, phi := range phis {
			if !afterPhis.Contains(phi.Instruction.ResultVar.Name()) {
				removed[phi.Instruction] = true
				pruned++
			}
		}
		if len(removed) == 0 {
			continue
		}
		keep := make([]il.Instruction, 0, len(n.Instructions))
		for _, ins := range n.Instructions {
			if phi, ok := ins.(*il.Phi); ok && removed[phi] {
				continue
			}
			keep = append(keep, ins)
		}
		n.Instructions = keep
	}
	return pruned
}

// ConstructSSA runs phi placement, dominator-tree renaming, and liveness
// based pruning in sequence over body's already-built, dominator-annotated
// CFG (§4.7). g must have ComputeDominators already run on it.
func ConstructSSA(g *cfg.ControlFlowGraph, body *il.MethodBody) {
	placed := InsertPhis(g, body)
	RenameToSSA(g, body, placed)
	live := SolveLiveVariables(g)
	PrunePhis(g, placed, live)
}
