package rig

import (
	"fmt"

	"github.com/Faultbox/rigsplice/pkg/math"
)

// Layer selects a group of rig data for Unload.
type Layer int

// Data layers.
const (
	LayerGeometry Layer = iota // positions, blend shapes, skin weights
	LayerBehavior              // joint groups
	LayerDefinition            // joint hierarchy and neutral joints
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerGeometry:
		return "Geometry"
	case LayerBehavior:
		return "Behavior"
	case LayerDefinition:
		return "Definition"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// Mesh is the per-mesh part of a Rig.
type Mesh struct {
	Positions     []math.Vec3
	BlendShapes   []BlendShapeTarget
	Skin          []SkinWeights
	MaxInfluences int
}

// Rig is an in-memory rig implementing both Reader and Writer.
type Rig struct {
	Meshes       []Mesh
	JointParents []int
	Translations []math.Vec3
	Rotations    []math.Vec3
	JointGroups  []JointGroup
}

var (
	_ Reader = (*Rig)(nil)
	_ Writer = (*Rig)(nil)
)

// Clone deep-copies any Reader into a new Rig.
func Clone(r Reader) *Rig {
	out := &Rig{
		Meshes:       make([]Mesh, r.MeshCount()),
		JointParents: ParentIndices(r),
		Translations: append([]math.Vec3(nil), r.NeutralJointTranslations()...),
		Rotations:    append([]math.Vec3(nil), r.NeutralJointRotations()...),
		JointGroups:  make([]JointGroup, r.JointGroupCount()),
	}

	for m := range out.Meshes {
		mesh := &out.Meshes[m]
		mesh.Positions = append([]math.Vec3(nil), r.VertexPositions(m)...)
		mesh.MaxInfluences = r.MaximumInfluencePerVertex(m)

		mesh.BlendShapes = make([]BlendShapeTarget, r.BlendShapeTargetCount(m))
		for t := range mesh.BlendShapes {
			mesh.BlendShapes[t] = BlendShapeTarget{
				VertexIndices: append([]uint32(nil), r.BlendShapeTargetVertexIndices(m, t)...),
				Deltas:        append([]math.Vec3(nil), r.BlendShapeTargetDeltas(m, t)...),
			}
		}

		mesh.Skin = make([]SkinWeights, r.VertexPositionCount(m))
		for v := range mesh.Skin {
			sw := r.SkinWeights(m, v)
			mesh.Skin[v] = SkinWeights{
				Weights: append([]float32(nil), sw.Weights...),
				Joints:  append([]uint16(nil), sw.Joints...),
			}
		}
	}

	for g := range out.JointGroups {
		out.JointGroups[g] = cloneGroup(r.JointGroup(g))
	}
	return out
}

func cloneGroup(g JointGroup) JointGroup {
	return JointGroup{
		JointIndices:  append([]uint16(nil), g.JointIndices...),
		InputIndices:  append([]uint16(nil), g.InputIndices...),
		OutputIndices: append([]uint16(nil), g.OutputIndices...),
		LODs:          append([]uint16(nil), g.LODs...),
		Values:        append([]float32(nil), g.Values...),
	}
}

// Unload releases the data belonging to a layer. Counts derived from the
// released data read as zero afterwards.
func (r *Rig) Unload(layer Layer) {
	switch layer {
	case LayerGeometry:
		for m := range r.Meshes {
			r.Meshes[m] = Mesh{}
		}
	case LayerBehavior:
		r.JointGroups = nil
	case LayerDefinition:
		r.JointParents = nil
		r.Translations = nil
		r.Rotations = nil
	}
}

// MeshCount implements Reader.
func (r *Rig) MeshCount() int { return len(r.Meshes) }

// VertexPositionCount implements Reader.
func (r *Rig) VertexPositionCount(mesh int) int { return len(r.Meshes[mesh].Positions) }

// VertexPositions implements Reader.
func (r *Rig) VertexPositions(mesh int) []math.Vec3 { return r.Meshes[mesh].Positions }

// BlendShapeTargetCount implements Reader.
func (r *Rig) BlendShapeTargetCount(mesh int) int { return len(r.Meshes[mesh].BlendShapes) }

// BlendShapeTargetVertexIndices implements Reader.
func (r *Rig) BlendShapeTargetVertexIndices(mesh, target int) []uint32 {
	return r.Meshes[mesh].BlendShapes[target].VertexIndices
}

// BlendShapeTargetDeltas implements Reader.
func (r *Rig) BlendShapeTargetDeltas(mesh, target int) []math.Vec3 {
	return r.Meshes[mesh].BlendShapes[target].Deltas
}

// JointCount implements Reader.
func (r *Rig) JointCount() int { return len(r.JointParents) }

// JointParentIndex implements Reader.
func (r *Rig) JointParentIndex(joint int) int { return r.JointParents[joint] }

// NeutralJointTranslations implements Reader.
func (r *Rig) NeutralJointTranslations() []math.Vec3 { return r.Translations }

// NeutralJointRotations implements Reader.
func (r *Rig) NeutralJointRotations() []math.Vec3 { return r.Rotations }

// JointGroupCount implements Reader.
func (r *Rig) JointGroupCount() int { return len(r.JointGroups) }

// JointGroup implements Reader.
func (r *Rig) JointGroup(group int) JointGroup { return r.JointGroups[group] }

// SkinWeights implements Reader.
func (r *Rig) SkinWeights(mesh, vertex int) SkinWeights {
	skin := r.Meshes[mesh].Skin
	if vertex >= len(skin) {
		return SkinWeights{}
	}
	return skin[vertex]
}

// MaximumInfluencePerVertex implements Reader.
func (r *Rig) MaximumInfluencePerVertex(mesh int) int { return r.Meshes[mesh].MaxInfluences }

// SetVertexPositions implements Writer.
func (r *Rig) SetVertexPositions(mesh int, positions []math.Vec3) {
	r.ensureMesh(mesh)
	r.Meshes[mesh].Positions = append(r.Meshes[mesh].Positions[:0], positions...)
}

// SetBlendShapeTargetVertexIndices implements Writer.
func (r *Rig) SetBlendShapeTargetVertexIndices(mesh, target int, indices []uint32) {
	bs := r.ensureTarget(mesh, target)
	bs.VertexIndices = append(bs.VertexIndices[:0], indices...)
}

// SetBlendShapeTargetDeltas implements Writer.
func (r *Rig) SetBlendShapeTargetDeltas(mesh, target int, deltas []math.Vec3) {
	bs := r.ensureTarget(mesh, target)
	bs.Deltas = append(bs.Deltas[:0], deltas...)
}

// SetNeutralJointTranslations implements Writer.
func (r *Rig) SetNeutralJointTranslations(translations []math.Vec3) {
	r.Translations = append(r.Translations[:0], translations...)
}

// SetNeutralJointRotations implements Writer.
func (r *Rig) SetNeutralJointRotations(rotations []math.Vec3) {
	r.Rotations = append(r.Rotations[:0], rotations...)
}

// SetJointGroupOutputIndices implements Writer.
func (r *Rig) SetJointGroupOutputIndices(group int, indices []uint16) {
	g := r.ensureGroup(group)
	g.OutputIndices = append(g.OutputIndices[:0], indices...)
}

// SetJointGroupLODs implements Writer.
func (r *Rig) SetJointGroupLODs(group int, lods []uint16) {
	g := r.ensureGroup(group)
	g.LODs = append(g.LODs[:0], lods...)
}

// SetJointGroupValues implements Writer.
func (r *Rig) SetJointGroupValues(group int, values []float32) {
	g := r.ensureGroup(group)
	g.Values = append(g.Values[:0], values...)
}

// SetSkinWeights implements Writer.
func (r *Rig) SetSkinWeights(mesh, vertex int, weights SkinWeights) {
	r.ensureMesh(mesh)
	m := &r.Meshes[mesh]
	for len(m.Skin) <= vertex {
		m.Skin = append(m.Skin, SkinWeights{})
	}
	sw := &m.Skin[vertex]
	sw.Weights = append(sw.Weights[:0], weights.Weights...)
	sw.Joints = append(sw.Joints[:0], weights.Joints...)
}

func (r *Rig) ensureMesh(mesh int) {
	for len(r.Meshes) <= mesh {
		r.Meshes = append(r.Meshes, Mesh{})
	}
}

func (r *Rig) ensureTarget(mesh, target int) *BlendShapeTarget {
	r.ensureMesh(mesh)
	m := &r.Meshes[mesh]
	for len(m.BlendShapes) <= target {
		m.BlendShapes = append(m.BlendShapes, BlendShapeTarget{})
	}
	return &m.BlendShapes[target]
}

func (r *Rig) ensureGroup(group int) *JointGroup {
	for len(r.JointGroups) <= group {
		r.JointGroups = append(r.JointGroups, JointGroup{})
	}
	return &r.JointGroups[group]
}
