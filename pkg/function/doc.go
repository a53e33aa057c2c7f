// Package function defines node function schemas and the catalog they are
// registered in.
//
// A [Function] fixes everything a node of its type may carry: the ordered
// setting fields (each with an optional default), the named inputs and the
// named outputs. Nodes hold a reference to their Function for life; changing
// a node's function means replacing the node.
//
// # Settings
//
// Settings arrive from wire documents as loosely typed maps. Construction is
// an explicit two-step algorithm:
//
//	s, err := function.Strict(reg, fn, provided) // exact schema match, coerced values
//	if err != nil {
//	    s = function.Defaults(reg, fn)           // declared defaults, zero values otherwise
//	}
//
// [Build] performs both steps and reports whether the fallback was taken.
// [Defaults] never fails for a function accepted by [NewCatalog].
//
// # Catalog
//
// Functions are grouped into [Module]s. [NewCatalog] assigns each function its
// fully-qualified type ("<package>/<name>"), rejects duplicates, and checks
// every declared type against the type registry so schema defects surface at
// startup rather than during an import.
package function
