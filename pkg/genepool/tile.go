package genepool

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/math"
)

// TileVec3 writes src into dst in block SoA layout. dst must hold
// block.Blocks(len(src))*block.Stride3 floats; padding lanes are zeroed.
func TileVec3(dst []float32, src []math.Vec3) {
	n := block.Blocks(len(src)) * block.Stride3
	clear(dst[:n])
	for i, v := range src {
		o := tileOffset(i)
		dst[o] = v.X
		dst[o+block.Size] = v.Y
		dst[o+2*block.Size] = v.Z
	}
}

// UntileVec3 reads the first n vectors back out of a tiled buffer.
func UntileVec3(src []float32, n int) []math.Vec3 {
	out := make([]math.Vec3, n)
	for i := range out {
		out[i] = TiledVec3(src, i)
	}
	return out
}

// TiledVec3 returns element i of a tiled buffer.
func TiledVec3(src []float32, i int) math.Vec3 {
	o := tileOffset(i)
	return math.Vec3{X: src[o], Y: src[o+block.Size], Z: src[o+2*block.Size]}
}

// SetTiledVec3 stores v as element i of a tiled buffer.
func SetTiledVec3(dst []float32, i int, v math.Vec3) {
	o := tileOffset(i)
	dst[o] = v.X
	dst[o+block.Size] = v.Y
	dst[o+2*block.Size] = v.Z
}

// tileOffset returns the X offset of element i.
func tileOffset(i int) int {
	return (i/block.Size)*block.Stride3 + i%block.Size
}
