package cfg

import (
	"fmt"
	"sort"

	"github.com/viant/ilanalysis/ilerr"
	"github.com/viant/ilanalysis/il"
)

// Build partitions body's instruction stream into basic blocks and wires
// control-flow edges, per §4.2. Exceptional mode additionally constructs
// protected/handler regions and the exceptional edges between them.
func Build(body *il.MethodBody, opts BuildOptions) (*ControlFlowGraph, error) {
	b := &builder{body: body, mode: opts.Mode, labelIndex: make(map[string]int)}
	for i, ins := range body.Instructions {
		b.labelIndex[ins.Label()] = i
	}
	return b.build()
}

type builder struct {
	body       *il.MethodBody
	mode       Mode
	labelIndex map[string]int
}

func (b *builder) resolve(label string) (int, error) {
	idx, ok := b.labelIndex[label]
	if !ok {
		return 0, ilerr.NewMalformedIR(b.body.Method.String(), fmt.Sprintf("label %s has no owning instruction", label))
	}
	return idx, nil
}

func (b *builder) build() (*ControlFlowGraph, error) {
	instrs := b.body.Instructions
	g := newGraph()
	g.Method = b.body.Method
	if len(instrs) == 0 {
		g.Entry.addSuccessor(g.NormalExit, false)
		return g, nil
	}

	leaders, err := b.leaderSet()
	if err != nil {
		return nil, err
	}

	sortedLeaders := make([]int, 0, len(leaders))
	for idx := range leaders {
		sortedLeaders = append(sortedLeaders, idx)
	}
	sort.Ints(sortedLeaders)

	nextID := firstBlockID
	blocks := make([]*CFGNode, 0, len(sortedLeaders))
	labelToNode := make(map[string]*CFGNode, len(sortedLeaders))
	for i, start := range sortedLeaders {
		end := len(instrs)
		if i+1 < len(sortedLeaders) {
			end = sortedLeaders[i+1]
		}
		n := newNode(nextID, BasicBlock)
		nextID++
		n.Instructions = instrs[start:end]
		blocks = append(blocks, n)
		labelToNode[n.Instructions[0].Label()] = n
		g.Nodes = append(g.Nodes, n)
	}

	g.Entry.addSuccessor(blocks[0], false)

	for i, n := range blocks {
		var next *CFGNode
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}
		if err := b.wireBlock(g, n, next, labelToNode); err != nil {
			return nil, err
		}
	}

	if b.mode == Exceptional {
		if err := b.buildRegions(g, blocks, labelToNode); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// leaderSet identifies every instruction index that starts a basic block
// (§4.2 step 1).
func (b *builder) leaderSet() (map[int]struct{}, error) {
	instrs := b.body.Instructions
	leaders := map[int]struct{}{0: {}}

	markTarget := func(label string) error {
		idx, err := b.resolve(label)
		if err != nil {
			return err
		}
		leaders[idx] = struct{}{}
		return nil
	}

	for i, ins := range instrs {
		switch t := ins.(type) {
		case *il.ConditionalBranch:
			if err := markTarget(t.TrueLabel); err != nil {
				return nil, err
			}
		case *il.UnconditionalBranch:
			if err := markTarget(t.Target); err != nil {
				return nil, err
			}
		case *il.Switch:
			for _, target := range t.Targets() {
				if err := markTarget(target); err != nil {
					return nil, err
				}
			}
		}
		if isBlockEnder(ins) && i+1 < len(instrs) {
			leaders[i+1] = struct{}{}
		}
	}

	for _, pb := range b.body.Exceptions.Protected {
		if err := markTarget(pb.StartLabel); err != nil {
			return nil, err
		}
		start, _ := pb.Handler.Bounds()
		if err := markTarget(start); err != nil {
			return nil, err
		}
		if f, ok := pb.Handler.(il.Filter); ok {
			if err := markTarget(f.FilterStart); err != nil {
				return nil, err
			}
		}
	}

	return leaders, nil
}

// isBlockEnder reports whether ins is a branch, switch, return, or throw —
// any of which forces the next instruction to start a new block (§4.2 step
// 1), independent of whether ins itself can fall through.
func isBlockEnder(ins il.Instruction) bool {
	switch ins.(type) {
	case *il.ConditionalBranch, *il.UnconditionalBranch, *il.Switch, *il.Return, *il.Throw:
		return true
	default:
		return false
	}
}

// wireBlock adds n's outgoing edges based on its last instruction (§4.2
// steps 3). next is the block immediately following n in instruction
// order, or nil if n is last.
func (b *builder) wireBlock(g *ControlFlowGraph, n, next *CFGNode, labelToNode map[string]*CFGNode) error {
	last := n.Instructions[len(n.Instructions)-1]
	target := func(label string) error {
		tn, ok := labelToNode[label]
		if !ok {
			return ilerr.NewMalformedIR(b.body.Method.String(), fmt.Sprintf("branch target %s has no owning block", label))
		}
		n.addSuccessor(tn, false)
		return nil
	}

	switch t := last.(type) {
	case *il.ConditionalBranch:
		if err := target(t.TrueLabel); err != nil {
			return err
		}
	case *il.UnconditionalBranch:
		return target(t.Target)
	case *il.Switch:
		for _, label := range t.Targets() {
			if err := target(label); err != nil {
				return err
			}
		}
		return nil
	case *il.Return:
		n.addSuccessor(g.NormalExit, false)
		return nil
	case *il.Throw:
		if b.mode == Exceptional {
			n.addSuccessor(g.ExceptionalExit, false)
		} else {
			n.addSuccessor(g.NormalExit, false)
		}
		return nil
	}

	if last.CanFallThrough() && next != nil {
		n.addSuccessor(next, false)
	}
	return nil
}

// buildRegions constructs ProtectedRegion/HandlerRegion pairs and sweeps
// the blocks in offset order, adding each to every region active at its
// start label (§4.2 step 4).
func (b *builder) buildRegions(g *ControlFlowGraph, blocks []*CFGNode, labelToNode map[string]*CFGNode) error {
	var pushAt = make(map[string][]region)
	var popAt = make(map[string][]region)

	for _, pb := range b.body.Exceptions.Protected {
		pr := &ProtectedRegion{}
		var kind HandlerKind
		switch pb.Handler.(type) {
		case il.Catch:
			kind = CatchHandler
		case il.Fault:
			kind = FaultHandler
		case il.Finally:
			kind = FinallyHandler
		case il.Filter:
			kind = CatchHandler
		}
		hr := &HandlerRegion{Kind: kind, Protected: pr}
		pr.Handler = hr
		g.Protected[pr] = struct{}{}
		g.Handlers[hr] = struct{}{}

		pushAt[pb.StartLabel] = append(pushAt[pb.StartLabel], pr)
		popAt[pb.EndLabel] = append(popAt[pb.EndLabel], pr)

		hStart, hEnd := pb.Handler.Bounds()
		pushAt[hStart] = append(pushAt[hStart], hr)
		popAt[hEnd] = append(popAt[hEnd], hr)
	}

	var active []region
	for _, n := range blocks {
		label := n.Label()
		if toPop := popAt[label]; len(toPop) > 0 {
			active = removeRegions(active, toPop)
		}
		if toPush := pushAt[label]; len(toPush) > 0 {
			active = append(active, toPush...)
		}
		for _, r := range active {
			r.addNode(n)
		}
	}

	for pr := range g.Protected {
		if pr.Handler == nil || pr.Handler.Header == nil {
			continue
		}
		for n := range pr.Nodes {
			n.addSuccessor(pr.Handler.Header, true)
		}
	}
	return nil
}

func removeRegions(active []region, toRemove []region) []region {
	remove := make(map[region]struct{}, len(toRemove))
	for _, r := range toRemove {
		remove[r] = struct{}{}
	}
	out := active[:0]
	for _, r := range active {
		if _, ok := remove[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}
