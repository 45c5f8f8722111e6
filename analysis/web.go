package analysis

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// ReachSet is the reaching-definitions lattice value: for each variable
// name, the set of instructions whose definition of that name may reach
// this program point.
type ReachSet map[string]map[il.Instruction]struct{}

func newReachSet() ReachSet { return ReachSet{} }

func (r ReachSet) clone() ReachSet {
	out := make(ReachSet, len(r))
	for name, defs := range r {
		d := make(map[il.Instruction]struct{}, len(defs))
		for ins := range defs {
			d[ins] = struct{}{}
		}
		out[name] = d
	}
	return out
}

func (r ReachSet) add(name string, ins il.Instruction) {
	if r[name] == nil {
		r[name] = map[il.Instruction]struct{}{}
	}
	r[name][ins] = struct{}{}
}

// ReachingDefinitions is a forward analysis: lattice = map[variable]set of
// defining instructions, join = union, gen/kill per instruction replaces a
// variable's reaching set with {this instruction} on every definition. It
// underlies web analysis (§4.7): splitting reaching-definitions equivalence
// classes into distinct variables ahead of SSA renaming.
type ReachingDefinitions struct{}

func (ReachingDefinitions) Initial(n *cfg.CFGNode) ReachSet { return newReachSet() }

func (ReachingDefinitions) Compare(a, b ReachSet) bool {
	if len(a) != len(b) {
		return false
	}
	for name, defs := range a {
		other, ok := b[name]
		if !ok || len(defs) != len(other) {
			return false
		}
		for ins := range defs {
			if _, ok := other[ins]; !ok {
				return false
			}
		}
	}
	return true
}

func (ReachingDefinitions) Join(a, b ReachSet) ReachSet {
	out := a.clone()
	for name, defs := range b {
		for ins := range defs {
			out.add(name, ins)
		}
	}
	return out
}

func (ReachingDefinitions) Flow(n *cfg.CFGNode, in ReachSet) ReachSet {
	out := in.clone()
	stepReach(n.Instructions, out)
	return out
}

// stepReach applies every instruction's kill/gen to reach in place, used
// both by the block-level Flow and by the finer per-instruction walk Webs
// needs to compute the reach set immediately before a given use.
func stepReach(instructions []il.Instruction, reach ReachSet) {
	for _, ins := range instructions {
		for name := range ins.ModifiedVariables() {
			delete(reach, name)
			reach.add(name, ins)
		}
	}
}

// SolveReachingDefinitions runs the forward worklist solver with the
// ReachingDefinitions lattice.
func SolveReachingDefinitions(g *cfg.ControlFlowGraph) *dataflow.Result[ReachSet] {
	return dataflow.SolveForward(g, ReachingDefinitions{})
}

// unionFind is a plain disjoint-set over def instructions, scoped per
// variable name by the caller (two instructions defining different
// variables are never unioned).
type unionFind struct {
	parent map[il.Instruction]il.Instruction
}

func newUnionFind() *unionFind { return &unionFind{parent: map[il.Instruction]il.Instruction{}} }

func (u *unionFind) find(x il.Instruction) il.Instruction {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

func (u *unionFind) union(a, b il.Instruction) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// Web names one equivalence class of a web analysis: the original
// variable's name and the set of defining instructions that belong to it.
type Web struct {
	Origin string
	Defs   map[il.Instruction]struct{}
}

// ComputeWebs runs reaching definitions over g and splits each variable's
// definitions into webs: definitions that share a reaching use are unioned
// into the same web, definitions that never interfere at a use fall into
// distinct webs (§4.7 "Splits reaching-definitions equivalence classes
// into distinct variables").
func ComputeWebs(g *cfg.ControlFlowGraph) []*Web {
	result := SolveReachingDefinitions(g)
	uf := map[string]*unionFind{}
	ufFor := func(name string) *unionFind {
		u, ok := uf[name]
		if !ok {
			u = newUnionFind()
			uf[name] = u
		}
		return u
	}

	for _, n := range g.Nodes {
		if n.Kind != cfg.BasicBlock {
			continue
		}
		reach := result.In[n].clone()
		for _, ins := range n.Instructions {
			for name, defs := range reach {
				used := ins.UsedVariables()
				if !used.Contains(name) {
					continue
				}
				u := ufFor(name)
				var first il.Instruction
				for d := range defs {
					if first == nil {
						first = d
						u.find(d)
						continue
					}
					u.union(first, d)
				}
			}
			stepReach([]il.Instruction{ins}, reach)
		}
	}

	websByRoot := map[string]map[il.Instruction]*Web{}
	for name, u := range uf {
		websByRoot[name] = map[il.Instruction]*Web{}
		for ins := range u.parent {
			root := u.find(ins)
			w, ok := websByRoot[name][root]
			if !ok {
				w = &Web{Origin: name, Defs: map[il.Instruction]struct{}{}}
				websByRoot[name][root] = w
			}
			w.Defs[ins] = struct{}{}
		}
	}

	var out []*Web
	for _, byRoot := range websByRoot {
		for _, w := range byRoot {
			out = append(out, w)
		}
	}
	return out
}

// RenameWebs rewrites every definition and use belonging to a web onto a
// fresh il.TemporalVariable (base = the original variable's name, index =
// the web's ordinal among webs sharing that base), splitting a name that
// carried unrelated values at different points into distinct variables
// before SSA renaming runs (§4.7). It mutates g's instructions in place and
// returns the number of original variable names that had more than one web
// (i.e. that were actually split).
func RenameWebs(g *cfg.ControlFlowGraph, webs []*Web) int {
	defToWeb := map[il.Instruction]*Web{}
	webVar := map[*Web]*il.TemporalVariable{}
	indexByName := map[string]int{}
	countByName := map[string]int{}
	for _, w := range webs {
		countByName[w.Origin]++
	}
	for _, w := range webs {
		for d := range w.Defs {
			defToWeb[d] = w
		}
		idx := indexByName[w.Origin]
		indexByName[w.Origin] = idx + 1
		var typ *il.Type
		if producer, ok := pickAny(w.Defs).(il.Producer); ok && producer.Result() != nil {
			typ = producer.Result().Type()
		}
		webVar[w] = &il.TemporalVariable{Base: w.Origin, Index: idx, Typ: typ}
	}

	split := 0
	for _, n := range countByName {
		if n > 1 {
			split++
		}
	}

	reaching := SolveReachingDefinitions(g)
	for _, n := range g.Nodes {
		if n.Kind != cfg.BasicBlock {
			continue
		}
		reach := reaching.In[n].clone()
		for _, ins := range n.Instructions {
			renameUses(ins, reach, defToWeb, webVar)
			stepReach([]il.Instruction{ins}, reach)
			if w, ok := defToWeb[ins]; ok {
				renameDef(ins, webVar[w])
			}
		}
	}
	return split
}

func pickAny(defs map[il.Instruction]struct{}) il.Instruction {
	for d := range defs {
		return d
	}
	return nil
}

// renameUses rewrites every used variable that has a reaching definition
// tracked in defToWeb, substituting that definition's web's fresh variable.
func renameUses(ins il.Instruction, reach ReachSet, defToWeb map[il.Instruction]*Web, webVar map[*Web]*il.TemporalVariable) {
	used := ins.UsedVariables()
	for name := range used {
		defs, ok := reach[name]
		if !ok || len(defs) == 0 {
			continue
		}
		var web *Web
		for d := range defs {
			if w, ok := defToWeb[d]; ok {
				web = w
				break
			}
		}
		if web == nil {
			continue
		}
		replaceVariableUse(ins, name, webVar[web])
	}
}

// replaceVariableUse applies Value.Replace for name wherever it appears
// among ins's operands, mirroring rewriteUses in copyprop.go.
func replaceVariableUse(ins il.Instruction, name string, newVar il.Variable) {
	old := &il.LocalVariable{VarName: name}
	apply := func(val il.Value) il.Value { return val.Replace(old, newVar) }
	switch t := ins.(type) {
	case *il.Load:
		t.Source = apply(t.Source)
	case *il.Store:
		t.Source = apply(t.Source)
	case *il.Convert:
		t.Source = apply(t.Source)
	case *il.ConditionalBranch:
		t.Condition = apply(t.Condition)
	case *il.Switch:
		t.Value = apply(t.Value)
	case *il.Return:
		if t.Value != nil {
			t.Value = apply(t.Value)
		}
	case *il.Throw:
		t.Value = apply(t.Value)
	case *il.Phi:
		for i, op := range t.Operands {
			t.Operands[i] = apply(op)
		}
	case *il.MethodCall:
		if t.Receiver != nil {
			t.Receiver = apply(t.Receiver)
		}
		for i, a := range t.Args {
			t.Args[i] = apply(a)
		}
	}
}

// renameDef points ins's own result variable at its web's fresh variable.
func renameDef(ins il.Instruction, newVar il.Variable) {
	switch t := ins.(type) {
	case *il.Load:
		t.ResultVar = newVar
	case *il.CreateObject:
		t.ResultVar = newVar
	case *il.CreateArray:
		t.ResultVar = newVar
	case *il.Convert:
		t.ResultVar = newVar
	case *il.MethodCall:
		t.ResultVar = newVar
	case *il.Phi:
		t.ResultVar = newVar
	case *il.CatchMarker:
		t.ResultVar = newVar
	}
}
