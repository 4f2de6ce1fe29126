package splice

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// spliceNeutralMeshes blends vertex positions:
// archetype + sum(weight * scale * delta) per vertex.
func spliceNeutralMeshes(k block.Kernel, data *SpliceData, out rig.Writer, s *scratch) {
	arch := data.archetype
	pools := data.AllPoolParams()

	for mesh := 0; mesh < arch.MeshCount(); mesh++ {
		positions := arch.VertexPositions(mesh)
		vertexCount := len(positions)
		blocks := block.Blocks(vertexCount)
		buf := s.floats(slotMain, blocks*block.Stride3)
		genepool.TileVec3(buf, positions)

		for _, p := range pools {
			if !meshPasses(data, p, mesh, vertexCount, "neutral mesh") {
				continue
			}
			for _, dna := range p.dnaFilter {
				deltas := p.pool.NeutralMesh(mesh, dna)
				weights := p.vertexWeights.Get(mesh, dna)
				for b := 0; b < blocks; b++ {
					k.MulAddVec(
						buf[b*block.Stride3:(b+1)*block.Stride3],
						deltas[b*block.Stride3:(b+1)*block.Stride3],
						weights[b*block.Size:(b+1)*block.Size],
						p.scale)
				}
			}
		}

		out.SetVertexPositions(mesh, genepool.UntileVec3(buf, vertexCount))
	}
}

// meshPasses applies the shared mesh predicate: enabled in the filter and
// matching the archetype's vertex count.
func meshPasses(data *SpliceData, p *PoolParams, mesh, vertexCount int, domain string) bool {
	switch {
	case !p.meshEnabled(mesh):
		data.logExclusion(p, domain, "mesh filtered", mesh)
		return false
	case mesh >= p.pool.MeshCount():
		data.logExclusion(p, domain, "mesh missing", mesh)
		return false
	case p.pool.VertexCount(mesh) != vertexCount:
		data.logExclusion(p, domain, "vertex count differs", mesh)
		return false
	}
	return true
}
