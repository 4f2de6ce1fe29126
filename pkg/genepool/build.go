package genepool

import (
	"errors"
	"fmt"
	gomath "math"
	"slices"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// Build errors.
var (
	ErrNoDNAs           = errors.New("gene pool needs at least one dna")
	ErrTopologyMismatch = errors.New("dna topology differs from delta archetype")
	ErrTooManyDNAs      = errors.New("too many dnas")
)

// MaxDNAs is the largest dna count a pool can index.
const MaxDNAs = gomath.MaxUint16 + 1

// Build extracts a gene pool from dnas. Every dna must share the delta
// archetype's topology: mesh and vertex counts, blend-shape target counts,
// joint count, joint-group count and joint-group inputs. At most MaxDNAs
// dnas are accepted.
func Build(deltaArchetype rig.Reader, dnas []rig.Reader) (*Pool, error) {
	if len(dnas) == 0 {
		return nil, ErrNoDNAs
	}
	if len(dnas) > MaxDNAs {
		return nil, fmt.Errorf("%w: %d, limit %d", ErrTooManyDNAs, len(dnas), MaxDNAs)
	}
	for i, dna := range dnas {
		if err := checkTopology(deltaArchetype, dna); err != nil {
			return nil, fmt.Errorf("dna %d: %w", i, err)
		}
	}

	p := &Pool{
		dnaCount:   len(dnas),
		jointCount: deltaArchetype.JointCount(),
		meshes:     make([]meshData, deltaArchetype.MeshCount()),
	}
	for m := range p.meshes {
		md := &p.meshes[m]
		md.vertexCount = deltaArchetype.VertexPositionCount(m)
		md.deltas = buildNeutralMesh(deltaArchetype, dnas, m)
		md.targets = buildBlendShapes(deltaArchetype, dnas, m)
		md.skin, md.maxInfluences = buildSkinWeights(deltaArchetype, dnas, m)
	}
	p.translations, p.rotations = buildNeutralJoints(deltaArchetype, dnas)
	p.jointGroups = buildJointGroups(deltaArchetype, dnas)
	return p, nil
}

func checkTopology(arch, dna rig.Reader) error {
	if dna.MeshCount() != arch.MeshCount() {
		return fmt.Errorf("%w: mesh count %d, want %d", ErrTopologyMismatch, dna.MeshCount(), arch.MeshCount())
	}
	for m := 0; m < arch.MeshCount(); m++ {
		if got, want := dna.VertexPositionCount(m), arch.VertexPositionCount(m); got != want {
			return fmt.Errorf("%w: mesh %d vertex count %d, want %d", ErrTopologyMismatch, m, got, want)
		}
		if got, want := dna.BlendShapeTargetCount(m), arch.BlendShapeTargetCount(m); got != want {
			return fmt.Errorf("%w: mesh %d blend shape count %d, want %d", ErrTopologyMismatch, m, got, want)
		}
	}
	if dna.JointCount() != arch.JointCount() {
		return fmt.Errorf("%w: joint count %d, want %d", ErrTopologyMismatch, dna.JointCount(), arch.JointCount())
	}
	if dna.JointGroupCount() != arch.JointGroupCount() {
		return fmt.Errorf("%w: joint group count %d, want %d", ErrTopologyMismatch, dna.JointGroupCount(), arch.JointGroupCount())
	}
	for g := 0; g < arch.JointGroupCount(); g++ {
		if !slices.Equal(dna.JointGroup(g).InputIndices, arch.JointGroup(g).InputIndices) {
			return fmt.Errorf("%w: joint group %d inputs differ", ErrTopologyMismatch, g)
		}
	}
	return nil
}

func buildNeutralMesh(arch rig.Reader, dnas []rig.Reader, mesh int) [][]float32 {
	base := arch.VertexPositions(mesh)
	size := block.Blocks(len(base)) * block.Stride3
	out := make([][]float32, len(dnas))
	diff := make([]math.Vec3, len(base))
	for d, dna := range dnas {
		positions := dna.VertexPositions(mesh)
		for v := range base {
			diff[v] = positions[v].Sub(base[v])
		}
		out[d] = make([]float32, size)
		TileVec3(out[d], diff)
	}
	return out
}

// scatterTarget writes a sparse blend-shape target into a dense tiled buffer.
func scatterTarget(dst []float32, indices []uint32, deltas []math.Vec3) {
	clear(dst)
	for i, v := range indices {
		SetTiledVec3(dst, int(v), deltas[i])
	}
}

func buildBlendShapes(arch rig.Reader, dnas []rig.Reader, mesh int) []target {
	blocks := block.Blocks(arch.VertexPositionCount(mesh))
	targets := make([]target, arch.BlendShapeTargetCount(mesh))

	baseline := make([]float32, blocks*block.Stride3)
	dense := make([][]float32, len(dnas))
	for d := range dense {
		dense[d] = make([]float32, blocks*block.Stride3)
	}

	for t := range targets {
		archIndices := arch.BlendShapeTargetVertexIndices(mesh, t)
		scatterTarget(baseline, archIndices, arch.BlendShapeTargetDeltas(mesh, t))

		union := append([]uint32(nil), archIndices...)
		for d, dna := range dnas {
			indices := dna.BlendShapeTargetVertexIndices(mesh, t)
			scatterTarget(dense[d], indices, dna.BlendShapeTargetDeltas(mesh, t))
			union = append(union, indices...)
		}
		slices.Sort(union)
		targets[t].vertexIndices = slices.Compact(union)

		for b := 0; b < blocks; b++ {
			lo, hi := b*block.Stride3, (b+1)*block.Stride3
			var bucket *Bucket
			for d := range dnas {
				if slices.Equal(dense[d][lo:hi], baseline[lo:hi]) {
					continue
				}
				if bucket == nil {
					targets[t].buckets = append(targets[t].buckets, Bucket{
						Block:    b,
						Baseline: slices.Clone(baseline[lo:hi]),
					})
					bucket = &targets[t].buckets[len(targets[t].buckets)-1]
				}
				bucket.DNAs = append(bucket.DNAs, uint16(d))
				bucket.Values = append(bucket.Values, slices.Clone(dense[d][lo:hi]))
			}
		}
	}
	return targets
}

// wrapAngle maps a radian difference into [-pi, pi].
func wrapAngle(a float32) float32 {
	r := gomath.Remainder(float64(a), 2*gomath.Pi)
	return float32(r)
}

func worldSpace(r rig.Reader) (t, rot []math.Vec3) {
	local := r.NeutralJointRotations()
	radians := make([]math.Vec3, len(local))
	for j, v := range local {
		radians[j] = v.ToRadians()
	}
	return math.LocalToWorld(rig.ParentIndices(r), r.NeutralJointTranslations(), radians)
}

func buildNeutralJoints(arch rig.Reader, dnas []rig.Reader) (translations, rotations [][]float32) {
	jointCount := arch.JointCount()
	size := block.Blocks(jointCount) * block.Stride3
	baseT, baseR := worldSpace(arch)

	translations = make([][]float32, len(dnas))
	rotations = make([][]float32, len(dnas))
	dt := make([]math.Vec3, jointCount)
	dr := make([]math.Vec3, jointCount)
	for d, dna := range dnas {
		wt, wr := worldSpace(dna)
		for j := 0; j < jointCount; j++ {
			dt[j] = wt[j].Sub(baseT[j])
			diff := wr[j].Sub(baseR[j])
			dr[j] = math.Vec3{X: wrapAngle(diff.X), Y: wrapAngle(diff.Y), Z: wrapAngle(diff.Z)}
		}
		translations[d] = make([]float32, size)
		rotations[d] = make([]float32, size)
		TileVec3(translations[d], dt)
		TileVec3(rotations[d], dr)
	}
	return translations, rotations
}

// rowsByOutput maps output index to the row holding it.
func rowsByOutput(g rig.JointGroup) map[uint16]int {
	rows := make(map[uint16]int, len(g.OutputIndices))
	for r, oi := range g.OutputIndices {
		rows[oi] = r
	}
	return rows
}

func buildJointGroups(arch rig.Reader, dnas []rig.Reader) []JointGroup {
	groups := make([]JointGroup, arch.JointGroupCount())
	for g := range groups {
		archGroup := arch.JointGroup(g)
		archRows := rowsByOutput(archGroup)
		cols := len(archGroup.InputIndices)

		outputs := slices.Clone(archGroup.OutputIndices)
		known := make(map[uint16]bool, len(outputs))
		for _, oi := range outputs {
			known[oi] = true
		}
		dnaRows := make([]map[uint16]int, len(dnas))
		for d, dna := range dnas {
			dg := dna.JointGroup(g)
			dnaRows[d] = rowsByOutput(dg)
			for _, oi := range dg.OutputIndices {
				if !known[oi] {
					known[oi] = true
					outputs = append(outputs, oi)
				}
			}
		}

		jg := JointGroup{
			OutputIndices: outputs,
			InputIndices:  slices.Clone(archGroup.InputIndices),
			Columns:       block.Pad(cols),
			Values:        make([][]float32, len(dnas)),
		}
		for d, dna := range dnas {
			dnaValues := dna.JointGroup(g).Values
			values := make([]float32, len(outputs)*jg.Columns)
			for r, oi := range outputs {
				row := values[r*jg.Columns : r*jg.Columns+cols]
				if dr, ok := dnaRows[d][oi]; ok {
					copy(row, dnaValues[dr*cols:(dr+1)*cols])
				}
				if ar, ok := archRows[oi]; ok {
					for c := range row {
						row[c] -= archGroup.Values[ar*cols+c]
					}
				}
			}
			jg.Values[d] = values
		}
		groups[g] = jg
	}
	return groups
}

func buildSkinWeights(arch rig.Reader, dnas []rig.Reader, mesh int) ([]SkinBlock, int) {
	vertexCount := arch.VertexPositionCount(mesh)
	maxInfluences := arch.MaximumInfluencePerVertex(mesh)
	for _, dna := range dnas {
		maxInfluences = max(maxInfluences, dna.MaximumInfluencePerVertex(mesh))
	}

	blocks := make([]SkinBlock, block.Blocks(vertexCount))
	unions := make([][]uint16, block.Size)
	for b := range blocks {
		slots := 0
		for lane := range unions {
			unions[lane] = unions[lane][:0]
			v := b*block.Size + lane
			if v >= vertexCount {
				continue
			}
			for _, dna := range dnas {
				unions[lane] = append(unions[lane], dna.SkinWeights(mesh, v).Joints...)
			}
			slices.Sort(unions[lane])
			unions[lane] = slices.Compact(unions[lane])
			slots = max(slots, len(unions[lane]))
		}

		sb := SkinBlock{
			Slots:  slots,
			Joints: make([]uint16, slots*block.Size),
			Values: make([][]float32, len(dnas)),
		}
		for lane, joints := range unions {
			for s, j := range joints {
				sb.Joints[s*block.Size+lane] = j
			}
		}
		for d, dna := range dnas {
			values := make([]float32, slots*block.Size)
			for lane, joints := range unions {
				v := b*block.Size + lane
				if v >= vertexCount {
					continue
				}
				sw := dna.SkinWeights(mesh, v)
				for k, j := range sw.Joints {
					s, _ := slices.BinarySearch(joints, j)
					values[s*block.Size+lane] += sw.Weights[k]
				}
				maxInfluences = max(maxInfluences, len(sw.Joints))
			}
			sb.Values[d] = values
		}
		blocks[b] = sb
	}
	return blocks, maxInfluences
}
