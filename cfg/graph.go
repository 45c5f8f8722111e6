package cfg

import "github.com/viant/ilanalysis/il"

// Mode selects whether Build wires protected/handler regions and
// exceptional edges (§4.2).
type Mode int

const (
	// Normal mode routes Return to NormalExit and Throw to NormalExit too
	// (both exits collapse), and builds no regions or exceptional edges.
	// Handler code is not excised: it is partitioned into basic blocks
	// like any other instructions.
	Normal Mode = iota
	// Exceptional mode builds ProtectedRegion/HandlerRegion and adds
	// exceptional edges from every protected node to its handler header.
	Exceptional
)

// BuildOptions configures Build, following the teacher's Config/
// DefaultConfig idiom (inspector/info/config.go's Config{...}/DefaultConfig()
// pair).
type BuildOptions struct {
	// Mode selects normal vs exceptional CFG construction (§4.2).
	Mode Mode `yaml:"mode"`
}

// DefaultBuildOptions returns Normal-mode construction, the zero-value
// behavior callers got before BuildOptions existed.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Mode: Normal}
}

// ControlFlowGraph is the output of Build: reserved Entry/Exit nodes, every
// basic-block node, and the exception/loop regions discovered over them
// (§3.4).
type ControlFlowGraph struct {
	Method *il.MethodRef

	Entry           *CFGNode
	Exit            *CFGNode
	NormalExit      *CFGNode
	ExceptionalExit *CFGNode

	Nodes []*CFGNode

	Protected map[*ProtectedRegion]struct{}
	Handlers  map[*HandlerRegion]struct{}
	Loops     map[*Loop]struct{}
}

func newGraph() *ControlFlowGraph {
	g := &ControlFlowGraph{
		Entry:           newNode(entryID, Entry),
		Exit:            newNode(exitID, Exit),
		NormalExit:      newNode(normalExitID, NormalExit),
		ExceptionalExit: newNode(exceptionalExitID, ExceptionalExit),
		Protected:       make(map[*ProtectedRegion]struct{}),
		Handlers:        make(map[*HandlerRegion]struct{}),
		Loops:           make(map[*Loop]struct{}),
	}
	g.NormalExit.addSuccessor(g.Exit, false)
	g.ExceptionalExit.addSuccessor(g.Exit, false)
	g.Nodes = []*CFGNode{g.Entry, g.Exit, g.NormalExit, g.ExceptionalExit}
	return g
}

// NodeAt returns the basic-block node whose leader instruction has the
// given label, or nil.
func (g *ControlFlowGraph) NodeAt(label string) *CFGNode {
	for _, n := range g.Nodes {
		if n.Kind == BasicBlock && n.Label() == label {
			return n
		}
	}
	return nil
}

// ReverseNodes returns Nodes in reverse order, a convenience for backward
// solvers and reverse-DFS loop discovery.
func (g *ControlFlowGraph) ReverseNodes() []*CFGNode {
	out := make([]*CFGNode, len(g.Nodes))
	for i, n := range g.Nodes {
		out[len(g.Nodes)-1-i] = n
	}
	return out
}

// ContentHash returns a stable fingerprint of g's basic-block instruction
// streams, grounded on inspector/graph/hash.go's keyed HighwayHash wrapper
// (il.Fingerprint, via il.InstructionSignature per instruction). Two CFGs
// built from byte-identical method bodies hash equal regardless of node
// allocation order, since basic blocks are visited in ID order and ids are
// assigned deterministically during Build; batch.Runner keys its
// per-method analysis cache on this so two methods with an identical
// instruction stream (a common case for compiler-generated stubs) are
// solved once.
func (g *ControlFlowGraph) ContentHash() (uint64, error) {
	var buf []byte
	for _, n := range g.Nodes {
		if n.Kind != BasicBlock {
			continue
		}
		for _, ins := range n.Instructions {
			buf = append(buf, il.InstructionSignature(ins)...)
			buf = append(buf, '|')
		}
		buf = append(buf, ';')
	}
	return il.Fingerprint(buf)
}
