package splice

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// rotationScale is applied to rotation deltas in place of the pool scale.
// Rotations never scale.
const rotationScale = 1

// spliceNeutralJoints blends joint translations and rotations in world
// space, then converts them to parent-relative space in degrees.
func spliceNeutralJoints(k block.Kernel, data *SpliceData, out rig.Writer, s *scratch) {
	arch := data.archetype
	jointCount := arch.JointCount()
	size := block.Blocks(jointCount) * block.Stride3
	parents := rig.ParentIndices(arch)

	localR := arch.NeutralJointRotations()
	radians := make([]math.Vec3, jointCount)
	for j := range radians {
		radians[j] = localR[j].ToRadians()
	}
	worldT, worldR := math.LocalToWorld(parents, arch.NeutralJointTranslations(), radians)

	translations := s.floats(slotMain, size)
	rotations := s.floats(slotAux, size)
	genepool.TileVec3(translations, worldT)
	genepool.TileVec3(rotations, worldR)

	for _, p := range data.AllPoolParams() {
		if p.pool.JointCount() != jointCount {
			data.logExclusion(p, "neutral joints", "joint count differs", p.pool.JointCount())
			continue
		}
		for _, dna := range p.dnaFilter {
			weights := p.jointWeights.Get(dna)
			dt := p.pool.NeutralJointTranslations(dna)
			dr := p.pool.NeutralJointRotations(dna)
			for b := 0; b*block.Stride3 < size; b++ {
				lo, hi := b*block.Stride3, (b+1)*block.Stride3
				w := weights[b*block.Size : (b+1)*block.Size]
				k.MulAddVec(translations[lo:hi], dt[lo:hi], w, p.scale)
				k.MulAddVec(rotations[lo:hi], dr[lo:hi], w, rotationScale)
			}
		}
	}

	localT, localRad := math.WorldToLocal(parents,
		genepool.UntileVec3(translations, jointCount),
		genepool.UntileVec3(rotations, jointCount))
	degrees := make([]math.Vec3, jointCount)
	for j := range degrees {
		degrees[j] = localRad[j].ToDegrees()
	}

	out.SetNeutralJointTranslations(localT)
	out.SetNeutralJointRotations(degrees)
}
