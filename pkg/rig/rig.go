// Package rig defines the character-rig reader and writer consumed by the
// splicer, together with an in-memory Rig implementing both.
package rig

import "github.com/Faultbox/rigsplice/pkg/math"

// AttributeCount is the number of behavior outputs per joint:
// translation XYZ, rotation XYZ, scale XYZ.
const AttributeCount = 9

// JointGroup is a partition of joints sharing one behavior-output buffer.
// Values is row-major with one row per output index and one column per input index.
type JointGroup struct {
	JointIndices  []uint16
	InputIndices  []uint16
	OutputIndices []uint16
	LODs          []uint16
	Values        []float32
}

// BlendShapeTarget holds sparse per-vertex deltas of one blend shape.
type BlendShapeTarget struct {
	VertexIndices []uint32
	Deltas        []math.Vec3
}

// SkinWeights lists the joint influences of one vertex.
type SkinWeights struct {
	Weights []float32
	Joints  []uint16
}

// Reader exposes the parts of a rig the splicer reads.
// Returned slices are owned by the reader and must not be modified.
type Reader interface {
	MeshCount() int
	VertexPositionCount(mesh int) int
	VertexPositions(mesh int) []math.Vec3

	BlendShapeTargetCount(mesh int) int
	BlendShapeTargetVertexIndices(mesh, target int) []uint32
	BlendShapeTargetDeltas(mesh, target int) []math.Vec3

	JointCount() int
	JointParentIndex(joint int) int
	// NeutralJointTranslations are parent-relative.
	NeutralJointTranslations() []math.Vec3
	// NeutralJointRotations are parent-relative Euler angles in degrees.
	NeutralJointRotations() []math.Vec3

	JointGroupCount() int
	JointGroup(group int) JointGroup

	SkinWeights(mesh, vertex int) SkinWeights
	MaximumInfluencePerVertex(mesh int) int
}

// Writer receives spliced results.
type Writer interface {
	SetVertexPositions(mesh int, positions []math.Vec3)

	SetBlendShapeTargetVertexIndices(mesh, target int, indices []uint32)
	SetBlendShapeTargetDeltas(mesh, target int, deltas []math.Vec3)

	SetNeutralJointTranslations(translations []math.Vec3)
	SetNeutralJointRotations(rotations []math.Vec3)

	SetJointGroupOutputIndices(group int, indices []uint16)
	SetJointGroupLODs(group int, lods []uint16)
	SetJointGroupValues(group int, values []float32)

	SetSkinWeights(mesh, vertex int, weights SkinWeights)
}

// ParentIndices collects JointParentIndex for every joint.
func ParentIndices(r Reader) []int {
	parents := make([]int, r.JointCount())
	for j := range parents {
		parents[j] = r.JointParentIndex(j)
	}
	return parents
}
