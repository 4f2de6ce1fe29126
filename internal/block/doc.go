// Package block implements the tile accumulation kernel shared by every
// splicer.
//
// Data is laid out in tiles of Size elements. A tile of 3D data is stored
// as Structure-of-Arrays:
//
//	X: [x0 x1 ... x15]
//	Y: [y0 y1 ... y15]
//	Z: [z0 z1 ... z15]
//
// The kernel is written once against a small lane-vector abstraction and
// instantiated for 1, 4 and 8 lanes. Each lane type is a fixed-size array
// with simple loops so the compiler can keep it in vector registers.
// Elements past the last full lane group are handled by a scalar tail, so
// every width produces the same arithmetic per element.
package block
