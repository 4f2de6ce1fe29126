package splice

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// spliceBlendShapes blends every blend-shape target of every mesh.
// Deltas are accumulated densely over the whole mesh and compacted to the
// archetype's vertex-index list afterwards.
func spliceBlendShapes(k block.Kernel, data *SpliceData, out rig.Writer, s *scratch) {
	arch := data.archetype
	pools := data.AllPoolParams()

	for mesh := 0; mesh < arch.MeshCount(); mesh++ {
		vertexCount := arch.VertexPositionCount(mesh)
		targetCount := arch.BlendShapeTargetCount(mesh)

		active := make([]*PoolParams, 0, len(pools))
		for _, p := range pools {
			if !meshPasses(data, p, mesh, vertexCount, "blend shapes") {
				continue
			}
			if p.pool.BlendShapeTargetCount(mesh) != targetCount {
				data.logExclusion(p, "blend shapes", "target count differs", mesh)
				continue
			}
			active = append(active, p)
		}

		for target := 0; target < targetCount; target++ {
			indices := arch.BlendShapeTargetVertexIndices(mesh, target)
			dense := s.floats(slotMain, block.Blocks(vertexCount)*block.Stride3)
			for i, v := range indices {
				genepool.SetTiledVec3(dense, int(v), arch.BlendShapeTargetDeltas(mesh, target)[i])
			}

			for _, p := range active {
				spliceBuckets(k, p, mesh, p.pool.BlendShapeBuckets(mesh, target), dense, s)
			}

			deltas := make([]math.Vec3, len(indices))
			for i, v := range indices {
				deltas[i] = genepool.TiledVec3(dense, int(v))
			}
			out.SetBlendShapeTargetVertexIndices(mesh, target, indices)
			out.SetBlendShapeTargetDeltas(mesh, target, deltas)
		}
	}
}

// spliceBuckets accumulates one pool's buckets into dense. The pool's dna
// filter and each bucket's dna list are both ascending and are intersected
// with a two-pointer merge.
func spliceBuckets(k block.Kernel, p *PoolParams, mesh int, buckets []genepool.Bucket, dense []float32, s *scratch) {
	filter := p.dnaFilter
	for bi := range buckets {
		bucket := &buckets[bi]
		tile := dense[bucket.Block*block.Stride3 : (bucket.Block+1)*block.Stride3]
		sum := s.floats(slotSum, block.Size)
		lo, hi := bucket.Block*block.Size, (bucket.Block+1)*block.Size

		matched := false
		i, j := 0, 0
		for i < len(filter) && j < len(bucket.DNAs) {
			dna := int(bucket.DNAs[j])
			switch {
			case filter[i] < dna:
				i++
			case filter[i] > dna:
				j++
			default:
				w := p.vertexWeights.Get(mesh, dna)[lo:hi]
				k.MulAddVec(tile, bucket.Values[j], w, p.scale)
				k.AddScaled(sum, w, p.scale)
				matched = true
				// Advance only the filter so duplicate filter entries match again.
				i++
			}
		}
		if matched {
			k.SubMul(tile, bucket.Baseline, sum)
		}
	}
}
