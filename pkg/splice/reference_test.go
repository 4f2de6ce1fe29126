package splice

import (
	gomath "math"
	"slices"
	"sort"
	"testing"

	"github.com/Faultbox/rigsplice/internal/fixture"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// refPool describes one registered pool for computing expected results
// directly from the source rigs, in float64 and without the block kernel.
type refPool struct {
	set     *fixture.Set
	weights []float32 // [dna][region]
	dnas    []int
	scale   float64
}

func (p *refPool) weight(regions []uint16, values []float32, dna int) float64 {
	rc := p.set.Regions.RegionCount()
	var sum float64
	for k, r := range regions {
		sum += float64(values[k]) * float64(p.weights[dna*rc+int(r)])
	}
	return sum
}

func (p *refPool) vertexWeight(mesh, v, dna int) float64 {
	regions, values := p.set.Regions.VertexRegions(mesh, v)
	return p.weight(regions, values, dna)
}

func (p *refPool) jointWeight(j, dna int) float64 {
	regions, values := p.set.Regions.JointRegions(j)
	return p.weight(regions, values, dna)
}

type vec64 [3]float64

func of(v math.Vec3) vec64 {
	return vec64{float64(v.X), float64(v.Y), float64(v.Z)}
}

func (v *vec64) add(d math.Vec3, w float64) {
	v[0] += float64(d.X) * w
	v[1] += float64(d.Y) * w
	v[2] += float64(d.Z) * w
}

func (v vec64) vec3() math.Vec3 {
	return math.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

func wrapped(d math.Vec3) math.Vec3 {
	w := func(a float32) float32 { return float32(gomath.Remainder(float64(a), 2*gomath.Pi)) }
	return math.Vec3{X: w(d.X), Y: w(d.Y), Z: w(d.Z)}
}

func worldOf(r *rig.Rig) (t, rot []math.Vec3) {
	radians := make([]math.Vec3, len(r.Rotations))
	for j, v := range r.Rotations {
		radians[j] = v.ToRadians()
	}
	return math.LocalToWorld(r.JointParents, r.Translations, radians)
}

func targetDelta(t rig.BlendShapeTarget, v uint32) math.Vec3 {
	if i, ok := slices.BinarySearch(t.VertexIndices, v); ok {
		return t.Deltas[i]
	}
	return math.Vec3{}
}

func groupValue(g rig.JointGroup, oi uint16, c int) float64 {
	if r := slices.Index(g.OutputIndices, oi); r >= 0 {
		return float64(g.Values[r*len(g.InputIndices)+c])
	}
	return 0
}

// referenceSplice computes the expected output of splicing pools onto the
// accustomized base archetype. Every pool must match the base topology.
func referenceSplice(base *rig.Rig, pools []*refPool, maxInfluences int) *rig.Rig {
	out := rig.Clone(base)
	for m := range base.Meshes {
		referenceMesh(out, base, pools, m)
		referenceBlendShapes(out, base, pools, m)
		referenceSkin(out, base, pools, m, maxInfluences)
	}
	referenceJoints(out, base, pools)
	referenceBehavior(out, base, pools)
	return out
}

func referenceMesh(out, base *rig.Rig, pools []*refPool, m int) {
	for v, pos := range base.Meshes[m].Positions {
		acc := of(pos)
		for _, p := range pools {
			arch := p.set.Archetype.Meshes[m].Positions[v]
			for _, d := range p.dnas {
				delta := p.set.DNAs[d].Meshes[m].Positions[v].Sub(arch)
				acc.add(delta, p.vertexWeight(m, v, d)*p.scale)
			}
		}
		out.Meshes[m].Positions[v] = acc.vec3()
	}
}

func referenceBlendShapes(out, base *rig.Rig, pools []*refPool, m int) {
	for t, target := range base.Meshes[m].BlendShapes {
		for i, v := range target.VertexIndices {
			acc := of(target.Deltas[i])
			for _, p := range pools {
				arch := targetDelta(p.set.Archetype.Meshes[m].BlendShapes[t], v)
				for _, d := range p.dnas {
					delta := targetDelta(p.set.DNAs[d].Meshes[m].BlendShapes[t], v).Sub(arch)
					acc.add(delta, p.vertexWeight(m, int(v), d)*p.scale)
				}
			}
			out.Meshes[m].BlendShapes[t].Deltas[i] = acc.vec3()
		}
	}
}

type refInfluence struct {
	joint  uint16
	weight float64
}

func referenceSkin(out, base *rig.Rig, pools []*refPool, m, maxInfluences int) {
	limit := maxInfluences
	if limit <= 0 {
		limit = base.Meshes[m].MaxInfluences
	}
	for v := range base.Meshes[m].Skin {
		acc := make(map[uint16]float64)
		var sum float64
		for _, p := range pools {
			for _, d := range p.dnas {
				w := p.vertexWeight(m, v, d)
				sum += w
				sw := p.set.DNAs[d].Meshes[m].Skin[v]
				for k, j := range sw.Joints {
					acc[j] += w * float64(sw.Weights[k])
				}
			}
		}
		if sum == 0 {
			continue
		}

		var infs []refInfluence
		for j, a := range acc {
			if a != 0 {
				infs = append(infs, refInfluence{joint: j, weight: a / sum})
			}
		}
		sort.Slice(infs, func(a, b int) bool {
			if infs[a].weight != infs[b].weight {
				return infs[a].weight > infs[b].weight
			}
			return infs[a].joint < infs[b].joint
		})
		if limit > 0 && len(infs) > limit {
			infs = infs[:limit]
		}
		var kept float64
		for _, inf := range infs {
			kept += inf.weight
		}
		sort.Slice(infs, func(a, b int) bool { return infs[a].joint < infs[b].joint })

		sw := rig.SkinWeights{}
		for _, inf := range infs {
			sw.Joints = append(sw.Joints, inf.joint)
			sw.Weights = append(sw.Weights, float32(inf.weight/kept))
		}
		out.Meshes[m].Skin[v] = sw
	}
}

func referenceJoints(out, base *rig.Rig, pools []*refPool) {
	worldT, worldR := worldOf(base)
	accT := make([]vec64, len(worldT))
	accR := make([]vec64, len(worldR))
	for j := range worldT {
		accT[j] = of(worldT[j])
		accR[j] = of(worldR[j])
	}

	for _, p := range pools {
		archT, archR := worldOf(p.set.Archetype)
		for _, d := range p.dnas {
			dnaT, dnaR := worldOf(p.set.DNAs[d])
			for j := range accT {
				w := p.jointWeight(j, d)
				accT[j].add(dnaT[j].Sub(archT[j]), w*p.scale)
				accR[j].add(wrapped(dnaR[j].Sub(archR[j])), w)
			}
		}
	}

	blendedT := make([]math.Vec3, len(accT))
	blendedR := make([]math.Vec3, len(accR))
	for j := range accT {
		blendedT[j] = accT[j].vec3()
		blendedR[j] = accR[j].vec3()
	}
	localT, localR := math.WorldToLocal(base.JointParents, blendedT, blendedR)
	for j := range localR {
		localR[j] = localR[j].ToDegrees()
	}
	out.Translations = localT
	out.Rotations = localR
}

func referenceBehavior(out, base *rig.Rig, pools []*refPool) {
	jointCount := len(base.JointParents)
	for g, group := range base.JointGroups {
		cols := len(group.InputIndices)
		for r, oi := range group.OutputIndices {
			joint := int(oi) / rig.AttributeCount
			for c := 0; c < cols; c++ {
				acc := float64(group.Values[r*cols+c])
				for _, p := range pools {
					if joint >= jointCount {
						continue
					}
					arch := groupValue(p.set.Archetype.JointGroups[g], oi, c)
					for _, d := range p.dnas {
						w := p.jointWeight(joint, d)
						if int(oi)%rig.AttributeCount < translationAttributes {
							w *= p.scale
						}
						acc += w * (groupValue(p.set.DNAs[d].JointGroups[g], oi, c) - arch)
					}
				}
				out.JointGroups[g].Values[r*cols+c] = float32(acc)
			}
		}
	}
}

// Comparison tolerances. Joint values pass through float32 matrix
// inversion and Euler decomposition and still stay well inside these.
const (
	positionTol    = 1e-4
	deltaTol       = 1e-4
	skinTol        = 1e-4
	translationTol = 1e-4
	rotationTol    = 1e-4 // degrees
	behaviorTol    = 1e-4
)

func near(a, b math.Vec3, tol float32) bool {
	return approx(a.X, b.X, tol) && approx(a.Y, b.Y, tol) && approx(a.Z, b.Z, tol)
}

// compareRigs checks every spliced field of got against want, including
// the row layout of every joint group.
func compareRigs(t *testing.T, got, want *rig.Rig) {
	t.Helper()

	if len(got.Meshes) != len(want.Meshes) {
		t.Fatalf("mesh count = %d, want %d", len(got.Meshes), len(want.Meshes))
	}
	for m := range want.Meshes {
		gm, wm := got.Meshes[m], want.Meshes[m]
		if len(gm.Positions) != len(wm.Positions) {
			t.Fatalf("mesh %d: %d positions, want %d", m, len(gm.Positions), len(wm.Positions))
		}
		for v := range wm.Positions {
			if !near(gm.Positions[v], wm.Positions[v], positionTol) {
				t.Errorf("mesh %d vertex %d position = %v, want %v", m, v, gm.Positions[v], wm.Positions[v])
			}
		}

		if len(gm.BlendShapes) != len(wm.BlendShapes) {
			t.Fatalf("mesh %d: %d targets, want %d", m, len(gm.BlendShapes), len(wm.BlendShapes))
		}
		for ti := range wm.BlendShapes {
			gt, wt := gm.BlendShapes[ti], wm.BlendShapes[ti]
			if !slices.Equal(gt.VertexIndices, wt.VertexIndices) {
				t.Fatalf("mesh %d target %d indices = %v, want %v", m, ti, gt.VertexIndices, wt.VertexIndices)
			}
			for i := range wt.Deltas {
				if !near(gt.Deltas[i], wt.Deltas[i], deltaTol) {
					t.Errorf("mesh %d target %d vertex %d delta = %v, want %v",
						m, ti, wt.VertexIndices[i], gt.Deltas[i], wt.Deltas[i])
				}
			}
		}

		if len(gm.Skin) != len(wm.Skin) {
			t.Fatalf("mesh %d: %d skinned vertices, want %d", m, len(gm.Skin), len(wm.Skin))
		}
		for v := range wm.Skin {
			gs, ws := gm.Skin[v], wm.Skin[v]
			if !slices.Equal(gs.Joints, ws.Joints) {
				t.Errorf("mesh %d vertex %d skin joints = %v, want %v", m, v, gs.Joints, ws.Joints)
				continue
			}
			for i := range ws.Weights {
				if !approx(gs.Weights[i], ws.Weights[i], skinTol) {
					t.Errorf("mesh %d vertex %d skin weights = %v, want %v", m, v, gs.Weights, ws.Weights)
					break
				}
			}
		}
	}

	if len(got.Translations) != len(want.Translations) || len(got.Rotations) != len(want.Rotations) {
		t.Fatalf("joint count = %d/%d, want %d", len(got.Translations), len(got.Rotations), len(want.Translations))
	}
	for j := range want.Translations {
		if !near(got.Translations[j], want.Translations[j], translationTol) {
			t.Errorf("joint %d translation = %v, want %v", j, got.Translations[j], want.Translations[j])
		}
		if !near(got.Rotations[j], want.Rotations[j], rotationTol) {
			t.Errorf("joint %d rotation = %v, want %v", j, got.Rotations[j], want.Rotations[j])
		}
	}

	if len(got.JointGroups) != len(want.JointGroups) {
		t.Fatalf("joint group count = %d, want %d", len(got.JointGroups), len(want.JointGroups))
	}
	for g := range want.JointGroups {
		gg, wg := got.JointGroups[g], want.JointGroups[g]
		if len(gg.OutputIndices) != len(wg.OutputIndices) {
			t.Fatalf("group %d outputs = %v, want %v", g, gg.OutputIndices, wg.OutputIndices)
		}
		if !slices.Equal(gg.LODs, wg.LODs) {
			t.Errorf("group %d LODs = %v, want %v", g, gg.LODs, wg.LODs)
		}
		if !slices.Equal(gg.OutputIndices, wg.OutputIndices) {
			t.Errorf("group %d outputs = %v, want %v", g, gg.OutputIndices, wg.OutputIndices)
			continue
		}
		if len(gg.Values) != len(wg.Values) {
			t.Errorf("group %d has %d values, want %d", g, len(gg.Values), len(wg.Values))
			continue
		}
		if len(wg.OutputIndices) == 0 {
			continue
		}
		// Spliced rigs carry no input indices, so the width comes from the values.
		cols := len(wg.Values) / len(wg.OutputIndices)
		for r, oi := range wg.OutputIndices {
			for c := 0; c < cols; c++ {
				gv, wv := gg.Values[r*cols+c], wg.Values[r*cols+c]
				if !approx(gv, wv, behaviorTol) {
					t.Errorf("group %d output %d column %d = %f, want %f", g, oi, c, gv, wv)
				}
			}
		}
	}
}
