package splice

import (
	"slices"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// influence is one joint contribution of a vertex.
type influence struct {
	joint  uint16
	weight float32
}

// skinAccumulator gathers per-vertex joint weights of one block, keyed by
// joint index, across every pool.
type skinAccumulator struct {
	jointCount int
	weights    []float32
	touched    [block.Size][]uint16
	sum        []float32
}

func newSkinAccumulator(jointCount int, sum []float32) *skinAccumulator {
	return &skinAccumulator{
		jointCount: jointCount,
		weights:    make([]float32, block.Size*jointCount),
		sum:        sum,
	}
}

// merge adds a pool's slot tile into the joint-keyed accumulator.
func (a *skinAccumulator) merge(tile []float32, sb *genepool.SkinBlock) {
	for slot := 0; slot < sb.Slots; slot++ {
		for lane := 0; lane < block.Size; lane++ {
			i := slot*block.Size + lane
			v := tile[i]
			if v == 0 {
				continue
			}
			joint := sb.Joints[i]
			if int(joint) >= a.jointCount {
				continue
			}
			at := lane*a.jointCount + int(joint)
			if a.weights[at] == 0 && !slices.Contains(a.touched[lane], joint) {
				a.touched[lane] = append(a.touched[lane], joint)
			}
			a.weights[at] += v
		}
	}
}

// collect drains lane's influences sorted by joint and resets the lane.
func (a *skinAccumulator) collect(lane int, dst []influence) []influence {
	dst = dst[:0]
	joints := a.touched[lane]
	slices.Sort(joints)
	for _, j := range joints {
		at := lane*a.jointCount + int(j)
		if w := a.weights[at]; w != 0 {
			dst = append(dst, influence{joint: j, weight: w})
		}
		a.weights[at] = 0
	}
	a.touched[lane] = joints[:0]
	return dst
}

// spliceSkinWeights blends skin weights, normalizes them by the running
// weight sum and prunes each vertex to maxInfluences. Vertices no pool
// contributes to keep the archetype's weights. maxInfluences <= 0 uses the
// archetype's per-mesh maximum.
func spliceSkinWeights(k block.Kernel, data *SpliceData, out rig.Writer, s *scratch, maxInfluences int) {
	arch := data.archetype
	pools := data.AllPoolParams()
	jointCount := arch.JointCount()
	var influences []influence

	for mesh := 0; mesh < arch.MeshCount(); mesh++ {
		vertexCount := arch.VertexPositionCount(mesh)
		limit := maxInfluences
		if limit <= 0 {
			limit = arch.MaximumInfluencePerVertex(mesh)
		}

		active := make([]*PoolParams, 0, len(pools))
		for _, p := range pools {
			if meshPasses(data, p, mesh, vertexCount, "skin weights") {
				active = append(active, p)
			}
		}

		acc := newSkinAccumulator(jointCount, s.floats(slotSum, block.Size))
		for b := 0; b < block.Blocks(vertexCount); b++ {
			lo, hi := b*block.Size, (b+1)*block.Size
			clear(acc.sum)

			for _, p := range active {
				sb := &p.pool.SkinWeightBlocks(mesh)[b]
				tile := s.floats(slotTile, sb.Slots*block.Size)
				for _, dna := range p.dnaFilter {
					w := p.vertexWeights.Get(mesh, dna)[lo:hi]
					k.MulAddVec(tile, sb.Values[dna], w, 1)
					k.AddScaled(acc.sum, w, 1)
				}
				acc.merge(tile, sb)
			}

			for lane := 0; lane < block.Size; lane++ {
				v := lo + lane
				influences = acc.collect(lane, influences)
				if v >= vertexCount {
					continue
				}
				sum := acc.sum[lane]
				if sum == 0 {
					out.SetSkinWeights(mesh, v, arch.SkinWeights(mesh, v))
					continue
				}
				for i := range influences {
					influences[i].weight /= sum
				}
				influences = prune(influences, limit)

				sw := rig.SkinWeights{
					Weights: make([]float32, len(influences)),
					Joints:  make([]uint16, len(influences)),
				}
				for i, inf := range influences {
					sw.Weights[i] = inf.weight
					sw.Joints[i] = inf.joint
				}
				out.SetSkinWeights(mesh, v, sw)
			}
		}
	}
}

// prune keeps the limit largest weights. Each influence past the limit is
// compared with the smallest retained one and the smaller of the two is
// swapped into the tail. The retained weights are then renormalized by
// 1/(1 - pruned), which is exact because all weights sum to 1. The result
// stays ordered by joint.
func prune(influences []influence, limit int) []influence {
	if limit <= 0 || len(influences) <= limit {
		return influences
	}
	for i := limit; i < len(influences); i++ {
		smallest := 0
		for r := 1; r < limit; r++ {
			if influences[r].weight < influences[smallest].weight {
				smallest = r
			}
		}
		if influences[i].weight > influences[smallest].weight {
			influences[i], influences[smallest] = influences[smallest], influences[i]
		}
	}

	var pruned, retained float32
	for _, inf := range influences[limit:] {
		pruned += inf.weight
	}
	kept := influences[:limit]
	for _, inf := range kept {
		retained += inf.weight
	}

	factor := 1 / (1 - pruned)
	if pruned >= 1 && retained != 0 {
		factor = 1 / retained
	}
	for i := range kept {
		kept[i].weight *= factor
	}
	slices.SortFunc(kept, func(a, b influence) int {
		return int(a.joint) - int(b.joint)
	})
	return kept
}
