package analysis

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// CopyMap is the copy-propagation lattice value: dest variable name ->
// source variable name it currently equals (§4.7 "lattice = partial map
// variable -> expression"; this module restricts the tracked expressions
// to plain variable copies, the only form the spec's transfer rule
// describes: "introduces r -> v on r = v"). top marks a node that has not
// yet been reached by any predecessor's Out — the identity element for
// Join's intersection, distinct from the empty map (which means "reached,
// but no copies known").
type CopyMap struct {
	entries map[string]string
	top     bool
}

func newTopCopyMap() CopyMap { return CopyMap{top: true} }
func newEmptyCopyMap() CopyMap { return CopyMap{entries: map[string]string{}} }

func (m CopyMap) clone() CopyMap {
	if m.top {
		return newTopCopyMap()
	}
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return CopyMap{entries: out}
}

// Lookup returns the variable name r currently copies, if any.
func (m CopyMap) Lookup(r string) (string, bool) {
	if m.top {
		return "", false
	}
	v, ok := m.entries[r]
	return v, ok
}

// CopyPropagation is a forward analysis whose transfer kills a variable's
// entry on any definition and introduces r -> v on r = v (§4.7).
type CopyPropagation struct {
	Entry *cfg.CFGNode
}

func (c CopyPropagation) Initial(n *cfg.CFGNode) CopyMap {
	if n == c.Entry {
		return newEmptyCopyMap()
	}
	return newTopCopyMap()
}

func (c CopyPropagation) Compare(a, b CopyMap) bool {
	if a.top != b.top {
		return false
	}
	if a.top {
		return true
	}
	if len(a.entries) != len(b.entries) {
		return false
	}
	for k, v := range a.entries {
		if bv, ok := b.entries[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Join intersects two copy maps: a mapping survives only when both sides
// agree on it, since a "must be a copy of v" fact only holds if every path
// to this point establishes it (§4.7's partial map is a must-analysis, the
// same shape as classical available-copies).
func (c CopyPropagation) Join(a, b CopyMap) CopyMap {
	if a.top {
		return b.clone()
	}
	if b.top {
		return a.clone()
	}
	out := map[string]string{}
	for k, v := range a.entries {
		if bv, ok := b.entries[k]; ok && bv == v {
			out[k] = v
		}
	}
	return CopyMap{entries: out}
}

func (c CopyPropagation) Flow(n *cfg.CFGNode, in CopyMap) CopyMap {
	m := in.clone()
	if m.top {
		m = newEmptyCopyMap()
	}
	for _, ins := range n.Instructions {
		// Any definition of a variable invalidates both the entry keyed by
		// it and every entry whose recorded source is now stale.
		for name := range ins.ModifiedVariables() {
			delete(m.entries, name)
			for dest, src := range m.entries {
				if src == name {
					delete(m.entries, dest)
				}
			}
		}
		if load, ok := ins.(*il.Load); ok {
			if src, ok := load.Source.(il.Variable); ok && src.Name() != load.ResultVar.Name() {
				m.entries[load.ResultVar.Name()] = src.Name()
			}
		}
	}
	return m
}

// SolveCopyPropagation runs the forward worklist solver with the
// CopyPropagation lattice.
func SolveCopyPropagation(g *cfg.ControlFlowGraph) *dataflow.Result[CopyMap] {
	return dataflow.SolveForward(g, CopyPropagation{Entry: g.Entry})
}

// Propagate rewrites every instruction's uses according to the solved
// copy-propagation result's In map, chasing copy chains to their ultimate
// source (§4.7 "Transform step rewrites subsequent uses via structural
// replace"). It returns the number of instructions rewritten; instructions
// are modified in place since MethodBody.Instructions already owns them.
func Propagate(g *cfg.ControlFlowGraph, result *dataflow.Result[CopyMap]) int {
	rewritten := 0
	for _, n := range g.Nodes {
		if n.Kind != cfg.BasicBlock {
			continue
		}
		m := result.In[n].clone()
		if m.top {
			m = newEmptyCopyMap()
		}
		for _, ins := range n.Instructions {
			if rewriteUses(ins, m) {
				rewritten++
			}
			for name := range ins.ModifiedVariables() {
				delete(m.entries, name)
				for dest, src := range m.entries {
					if src == name {
						delete(m.entries, dest)
					}
				}
			}
			if load, ok := ins.(*il.Load); ok {
				if src, ok := load.Source.(il.Variable); ok && src.Name() != load.ResultVar.Name() {
					m.entries[load.ResultVar.Name()] = src.Name()
				}
			}
		}
	}
	return rewritten
}

// rewriteUses replaces every used variable of ins with its ultimate copy
// source in place, chasing chains (r2 = r1; r3 = r2; use r3 -> use r1), and
// reports whether anything changed.
func rewriteUses(ins il.Instruction, m CopyMap) bool {
	changed := false
	resolve := func(v il.Variable) il.Variable {
		name := v.Name()
		seen := map[string]bool{name: true}
		for {
			src, ok := m.Lookup(name)
			if !ok || seen[src] {
				break
			}
			name = src
			seen[name] = true
		}
		if name == v.Name() {
			return v
		}
		changed = true
		return &il.LocalVariable{VarName: name, Typ: v.Type()}
	}
	apply := func(val il.Value) il.Value {
		out := val
		for _, v := range val.Variables() {
			out = out.Replace(v, resolve(v))
		}
		return out
	}
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
	return changed
}
