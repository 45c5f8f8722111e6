// Package pointer implements the field-sensitive, allocation-site
// points-to graph (PTG) and the points-to analysis built on it (§3.5,
// §4.5, §4.6).
package pointer

import (
	"fmt"

	"github.com/viant/ilanalysis/il"
)

// Context discriminates the three kinds of PTGID context (§3.5): a node
// allocated within a specific method, the singleton Null context, or the
// singleton static/global context.
type Context int

const (
	ContextMethod Context = iota
	ContextGlobalNull
	ContextGlobalStatic
)

// ID is a PTGID: a node's identity is its context plus an offset (§3.5
// "I-ident"). Method identity is carried as a string (the method's
// qualified name) rather than a *il.MethodRef pointer so that two
// MethodRef values describing the same method compare equal as map keys;
// il.MethodRef carries no separate identity beyond its textual form.
type ID struct {
	Ctx    Context
	Method string
	Offset int
}

// NullID is the fixed identity of the singleton Null node.
var NullID = ID{Ctx: ContextGlobalNull, Offset: 0}

// GlobalID is the fixed identity of the singleton Global node.
var GlobalID = ID{Ctx: ContextGlobalStatic, Offset: -1}

// AllocationSite builds the ID for a value allocated at offset within
// method — the allocation-site abstraction of §4.6: "two `new T` at the
// same offset within the same method collapse to the same node."
func AllocationSite(method string, offset int) ID {
	return ID{Ctx: ContextMethod, Method: method, Offset: offset}
}

// String renders id for diagnostics and snapshot output. The method-scoped
// case appends il.AllocationSiteKey's keyed HighwayHash fingerprint (hex)
// of the method+offset pair alongside the plain text so two allocation
// sites that collide on a truncated log line are still distinguishable by
// their fingerprint; identity itself (map-key equality) is always the
// plain Ctx/Method/Offset struct, never this string or its hash.
func (id ID) String() string {
	switch id.Ctx {
	case ContextGlobalNull:
		return "null"
	case ContextGlobalStatic:
		return "global"
	default:
		if key, err := il.AllocationSiteKey(id.Method, id.Offset); err == nil {
			return fmt.Sprintf("%s@%d#%x", id.Method, id.Offset, key)
		}
		return fmt.Sprintf("%s@%d", id.Method, id.Offset)
	}
}
