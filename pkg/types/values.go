package types

import "reflect"

// Void marks a port or setting that carries no value.
// It has no descriptor and is omitted from catalog documents.
type Void struct{}

// Point is a 2-D coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mat is an opaque image buffer. Pixel semantics belong to the functions that
// produce and consume it.
type Mat struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// MatBW is a single-channel binary image, typically a region mask.
type MatBW struct {
	Width  int
	Height int
	Pix    []byte
}

// Contour is an ordered outline of points.
type Contour []Point

// Contours is a set of contours.
type Contours []Contour

// Of returns the reflect.Type for T. It is the usual way to declare a plain
// type in a function schema.
func Of[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

var voidType = reflect.TypeFor[Void]()

// IsVoid reports whether t carries no value.
func IsVoid(t any) bool {
	switch tt := t.(type) {
	case nil:
		return true
	case Void:
		return true
	case reflect.Type:
		return tt == voidType
	}
	return false
}
