package pointer

import "github.com/viant/ilanalysis/il"

// Kind discriminates the six node kinds of §3.5.
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindUnknown
	KindParameter
	KindDelegate
	KindGlobal
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindObject:
		return "Object"
	case KindUnknown:
		return "Unknown"
	case KindParameter:
		return "Parameter"
	case KindDelegate:
		return "Delegate"
	case KindGlobal:
		return "Global"
	default:
		return "?"
	}
}

// edgeSet is a set of nodes keyed by ID, used for both Targets[field] and
// Sources[field] (§3.5).
type edgeSet map[ID]*Node

func (s edgeSet) clone() edgeSet {
	out := make(edgeSet, len(s))
	for id, n := range s {
		out[id] = n
	}
	return out
}

func (s edgeSet) ids() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Node is one node of a Graph: Null, Object (allocation-site abstracted),
// Unknown (a placeholder for externally supplied values), Parameter,
// Delegate, or Global (§3.5).
type Node struct {
	ID   ID
	Kind Kind
	Type *il.Type

	// Variables is the reverse of Graph's root relation: the set of
	// variables currently rooted at this node (I-root).
	Variables il.VarSet

	Targets map[string]edgeSet
	Sources map[string]edgeSet

	// ParamName carries a Parameter node's formal parameter name.
	ParamName string
	// Method and Instance carry a Delegate node's bound method and
	// optional receiver (§3.5, §4.6 delegate construction/retargeting).
	Method   *il.MethodRef
	Instance il.Variable
}

func newNode(id ID, kind Kind, typ *il.Type) *Node {
	return &Node{
		ID:        id,
		Kind:      kind,
		Type:      typ,
		Variables: il.VarSet{},
		Targets:   make(map[string]edgeSet),
		Sources:   make(map[string]edgeSet),
	}
}

// TargetsOf returns the ids of the nodes this node's field edge leads to
// (an empty slice when there are none).
func (n *Node) TargetsOf(field string) []ID {
	return n.Targets[field].ids()
}

// HasField reports whether field has any recorded target from this node.
func (n *Node) HasField(field string) bool {
	s, ok := n.Targets[field]
	return ok && len(s) > 0
}

func (n *Node) addTarget(field string, to *Node) {
	if n.Targets[field] == nil {
		n.Targets[field] = edgeSet{}
	}
	n.Targets[field][to.ID] = to
	if to.Sources[field] == nil {
		to.Sources[field] = edgeSet{}
	}
	to.Sources[field][n.ID] = n
}

func (n *Node) removeTarget(field string, to *Node) {
	if s, ok := n.Targets[field]; ok {
		delete(s, to.ID)
	}
	if s, ok := to.Sources[field]; ok {
		delete(s, n.ID)
	}
}

func (n *Node) clone() *Node {
	out := &Node{
		ID:        n.ID,
		Kind:      n.Kind,
		Type:      n.Type,
		Variables: n.Variables.Clone(),
		Targets:   make(map[string]edgeSet, len(n.Targets)),
		Sources:   make(map[string]edgeSet, len(n.Sources)),
		ParamName: n.ParamName,
		Method:    n.Method,
		Instance:  n.Instance,
	}
	for f, s := range n.Targets {
		out.Targets[f] = s.clone()
	}
	for f, s := range n.Sources {
		out.Sources[f] = s.clone()
	}
	return out
}
