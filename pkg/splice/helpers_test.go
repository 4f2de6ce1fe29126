package splice

import (
	"testing"

	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/region"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// behaviorRig builds a mesh-less rig with two joints and one joint group
// with a single input.
func behaviorRig(outputs []uint16, values []float32) *rig.Rig {
	return &rig.Rig{
		JointParents: []int{0, 0},
		Translations: []math.Vec3{{}, {Y: 1}},
		Rotations:    []math.Vec3{{}, {}},
		JointGroups: []rig.JointGroup{{
			JointIndices:  []uint16{1},
			InputIndices:  []uint16{0},
			OutputIndices: outputs,
			LODs:          []uint16{uint16(len(outputs))},
			Values:        values,
		}},
	}
}

// meshRig builds a rig with one mesh of n vertices, one joint and one
// blend-shape target.
func meshRig(n int, offset float32, targetIndices []uint32) *rig.Rig {
	mesh := rig.Mesh{MaxInfluences: 1}
	for v := 0; v < n; v++ {
		mesh.Positions = append(mesh.Positions, math.Vec3{X: float32(v), Y: offset})
		mesh.Skin = append(mesh.Skin, rig.SkinWeights{Weights: []float32{1}, Joints: []uint16{0}})
	}
	target := rig.BlendShapeTarget{VertexIndices: targetIndices}
	for range targetIndices {
		target.Deltas = append(target.Deltas, math.Vec3{Z: 1 + offset})
	}
	mesh.BlendShapes = []rig.BlendShapeTarget{target}
	return &rig.Rig{
		Meshes:       []rig.Mesh{mesh},
		JointParents: []int{0},
		Translations: []math.Vec3{{}},
		Rotations:    []math.Vec3{{}},
	}
}

// fullTable assigns every vertex and joint of the topology to region 0.
func fullTable(t *testing.T, vertexCounts []int, jointCount int) *region.Table {
	t.Helper()
	tbl := region.NewTable([]string{"all"}, vertexCounts, jointCount)
	if err := tbl.Fill(0); err != nil {
		t.Fatal(err)
	}
	return tbl
}

func mustBuild(t *testing.T, arch rig.Reader, dnas ...rig.Reader) *genepool.Pool {
	t.Helper()
	pool, err := genepool.Build(arch, dnas)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return pool
}

func mustRegister(t *testing.T, data *SpliceData, name string, reg region.Reader, pool genepool.Reader) *PoolParams {
	t.Helper()
	p, err := data.RegisterGenePool(name, reg, pool)
	if err != nil {
		t.Fatalf("RegisterGenePool(%q) failed: %v", name, err)
	}
	return p
}
