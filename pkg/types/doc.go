// Package types describes the value types carried by node settings, inputs
// and outputs, and maps them to stable wire descriptors.
//
// # Overview
//
// Function schemas declare a type for every setting field and port. A type is
// either a plain Go type, passed as a [reflect.Type] (see [Of]), or one of the
// parametric widget types [Range], [Slide] and [Options] whose parameters
// (bounds, options) travel to the editor inside the descriptor.
//
// A [Registry] translates declared types into [Descriptor] values:
//
//	reg := types.NewRegistry()
//	d, err := reg.Describe(types.Of[float64]())   // {"type": "dec", "params": {}}
//	d, err = reg.Describe(types.Range{Min: 0, Max: 255})
//	// {"type": "range", "params": {"min": 0, "max": 255, "decimal": false}}
//
// Plain types are looked up in a fixed table. Anything else is offered to the
// extension parsers in priority order (range, slide, options); the first parser
// that accepts the type wins. A type no entry or parser accepts yields
// [ErrUnknownType], which indicates a programming error in a function schema.
// [Void] (or a nil type) has no wire representation and describes to nil.
//
// # Descriptor Tags
//
//	dec      numeric (float64)
//	int      integer
//	str      string
//	boolean  bool
//	mat      image buffer ([Mat])
//	mbw      binary image / region mask ([MatBW])
//	cnt      contour ([Contour])
//	cts      contour set ([Contours])
//	range    two-sided bounded interval ([Range] → [RangeValue])
//	slide    bounded scalar selector ([Slide])
//	box      enumerated options ([Options])
//	any      anything (interface type)
//
// # Coercion
//
// Wire documents carry JSON values. [Registry.Coerce] turns a decoded value into
// the domain value for a declared type: numbers become float64 or int, a
// two-element list becomes a [RangeValue], slide values are clamped, and option
// values must be one of the declared options. [Registry.Zero] yields the value
// used for a setting that declares no default.
//
// # Concurrency
//
// A Registry is immutable after [NewRegistry] returns and is safe for
// concurrent use. Build it once at startup and pass it by reference.
package types
