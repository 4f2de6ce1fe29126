package splice

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// translationAttributes is the number of leading per-joint outputs that
// are translation-like and follow the pool scale.
const translationAttributes = 3

// spliceJointBehavior blends joint-group behavior matrices. Pool rows are
// redirected to archetype rows through the pool's remap table.
func spliceJointBehavior(k block.Kernel, data *SpliceData, out rig.Writer, s *scratch) {
	arch := data.archetype
	groupCount := arch.JointGroupCount()
	jointCount := arch.JointCount()

	pools := make([]*PoolParams, 0)
	for _, p := range data.AllPoolParams() {
		if p.pool.JointGroupCount() != groupCount {
			data.logExclusion(p, "joint behavior", "joint group count differs", p.pool.JointGroupCount())
			continue
		}
		pools = append(pools, p)
	}

	for g := 0; g < groupCount; g++ {
		group := arch.JointGroup(g)
		rows := len(group.OutputIndices)
		cols := len(group.InputIndices)
		columns := block.Pad(cols)

		buf := s.floats(slotMain, rows*columns)
		for r := 0; r < rows; r++ {
			copy(buf[r*columns:r*columns+cols], group.Values[r*cols:(r+1)*cols])
		}

		for _, p := range pools {
			pg := p.pool.JointGroup(g)
			if len(pg.InputIndices) != cols {
				data.logExclusion(p, "joint behavior", "input count differs", g)
				continue
			}
			offsets := p.outputOffsets[g]
			for _, dna := range p.dnaFilter {
				weights := p.jointWeights.Get(dna)
				for r, offset := range offsets {
					if offset < 0 {
						continue
					}
					oi := int(pg.OutputIndices[r])
					joint := oi / rig.AttributeCount
					if joint >= jointCount {
						continue
					}
					w := weights[joint]
					if w == 0 {
						continue
					}
					if oi%rig.AttributeCount < translationAttributes {
						w *= p.scale
					}
					k.MulAdd(buf[offset:offset+columns], pg.Row(dna, r), w)
				}
			}
		}

		values := make([]float32, rows*cols)
		for r := 0; r < rows; r++ {
			copy(values[r*cols:(r+1)*cols], buf[r*columns:r*columns+cols])
		}
		out.SetJointGroupOutputIndices(g, group.OutputIndices)
		out.SetJointGroupLODs(g, group.LODs)
		out.SetJointGroupValues(g, values)
	}
}
