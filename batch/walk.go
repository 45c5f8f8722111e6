package batch

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/ilanalysis/il"
)

// Walker discovers the assemblies under a directory tree. AFSWalker is the
// production implementation; tests substitute a fixed-list Walker so they
// never touch a filesystem.
type Walker interface {
	Walk(ctx context.Context, root string) ([]*il.AssemblyRef, error)
}

// AFSWalker walks root with afs.Service, grounded directly on
// analyzer.AnalyzeDir/analyzePackages's own afs.Service.Walk visitor:
// every file Match accepts becomes one assembly, named after the file's
// base name with its extension stripped.
type AFSWalker struct {
	FS      afs.Service
	Match   Matcher
	Version func(name string) string
}

// NewAFSWalker builds an AFSWalker with afs.New() and match as the file
// gate; version, if non-nil, supplies the il.AssemblyRef.Version for a
// discovered assembly name (e.g. parsed from a sidecar manifest).
func NewAFSWalker(match Matcher, version func(name string) string) *AFSWalker {
	return &AFSWalker{FS: afs.New(), Match: match, Version: version}
}

func (w *AFSWalker) Walk(ctx context.Context, root string) ([]*il.AssemblyRef, error) {
	var assemblies []*il.AssemblyRef
	seen := map[string]bool{}
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		if w.Match != nil && !w.Match(info) {
			return true, nil
		}
		dir := url.Join(baseURL, parent)
		name := url.Join(dir, info.Name())
		if seen[name] {
			return true, nil
		}
		seen[name] = true
		ref := &il.AssemblyRef{Name: strippedName(info.Name(), name)}
		if w.Version != nil {
			ref.Version = w.Version(ref.Name)
		}
		assemblies = append(assemblies, ref)
		return true, nil
	}
	if err := w.FS.Walk(ctx, root, visitor); err != nil {
		return nil, err
	}
	return dedupeNewest(assemblies), nil
}

// dedupeNewest collapses assemblies sharing a Name down to the
// highest-versioned reference, via il.CompareAssemblies — a directory walk
// can legitimately surface the same logical assembly built at two versions
// (e.g. a versioned sidecar alongside its predecessor left on disk), and
// only the newest should be analyzed. Unversioned assemblies are kept as
// one entry per name same as before; order among distinct names is
// preserved from the walk.
func dedupeNewest(assemblies []*il.AssemblyRef) []*il.AssemblyRef {
	order := make([]string, 0, len(assemblies))
	newest := make(map[string]*il.AssemblyRef, len(assemblies))
	for _, ref := range assemblies {
		if cur, ok := newest[ref.Name]; !ok {
			newest[ref.Name] = ref
			order = append(order, ref.Name)
		} else if il.CompareAssemblies(ref, cur) > 0 {
			newest[ref.Name] = ref
		}
	}
	out := make([]*il.AssemblyRef, len(order))
	for i, name := range order {
		out[i] = newest[name]
	}
	return out
}

// strippedName prefers the plain file name with its extension removed,
// falling back to the full location when the name is empty (defensive
// against a visitor called on a synthetic root entry).
func strippedName(fileName, fallback string) string {
	if fileName == "" {
		return fallback
	}
	ext := filepath.Ext(fileName)
	return fileName[:len(fileName)-len(ext)]
}

