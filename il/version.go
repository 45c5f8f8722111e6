package il

import "golang.org/x/mod/semver"

// CompareAssemblies orders two assembly references, newest first-class
// citizen last. Assemblies with no version (legacy, unversioned builds)
// sort before any versioned one; two unversioned assemblies of the same
// name compare equal. Grounded on the teacher's own module-identity
// handling (inspector/repository/detector.go's extractGoModuleName), lifted
// to a real semver comparison because two IL assemblies of the same name
// but different versions are exactly the "same-named types from different
// assembly versions" tie-break the TypeResolver collaborator needs (§6).
func CompareAssemblies(a, b *AssemblyRef) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if a.Name != b.Name {
		if a.Name < b.Name {
			return -1
		}
		return 1
	}
	av, bv := normalizeVersion(a.Version), normalizeVersion(b.Version)
	switch {
	case av == "" && bv == "":
		return 0
	case av == "":
		return -1
	case bv == "":
		return 1
	default:
		return semver.Compare(av, bv)
	}
}

// normalizeVersion adapts a bare "1.2.3" assembly version into the "v1.2.3"
// form golang.org/x/mod/semver expects.
func normalizeVersion(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
