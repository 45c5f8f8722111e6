package il

import (
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

// fingerprintKey is a fixed 32-byte key, matching the teacher's
// inspector/graph.Hash keying convention: a constant key is adequate here
// because fingerprints are used for cache identity within one process, not
// as a cryptographic digest.
var fingerprintKey = []byte("ILANALYSIS0123456789ABCDEF012345")

// Fingerprint returns a stable 64-bit hash of data, grounded on
// inspector/graph/hash.go's keyed HighwayHash wrapper.
func Fingerprint(data []byte) (uint64, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// InstructionSignature renders a canonical byte form of ins suitable for
// Fingerprint: its label, Go type name, and the sorted names of every
// variable it mentions. It is deliberately lossy (it does not capture
// constant payloads) — good enough to key a debug cache, not to prove
// instruction equality.
func InstructionSignature(ins Instruction) []byte {
	buf := fmt.Sprintf("%s|%T|", ins.Label(), ins)
	vars := ins.Variables()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf += name + ","
	}
	return []byte(buf)
}

// AllocationSiteKey returns the stable cache key for an allocation-site
// abstraction: two `new T` at the same offset within the same method
// collapse to the same PTG node (§4.6). method is the method's qualified
// name (pointer.ID carries method identity as a string for the same
// reason — see pointer/id.go), not a *MethodRef, so the key can be
// derived without re-deriving a MethodRef's String() form at every call
// site.
func AllocationSiteKey(method string, offset int) (uint64, error) {
	sig := fmt.Sprintf("%s@%d", method, offset)
	return Fingerprint([]byte(sig))
}
