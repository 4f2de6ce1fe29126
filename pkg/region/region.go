// Package region describes how strongly each vertex and joint belongs to
// the named regions used for weighting gene pools.
package region

import (
	"errors"
	"fmt"
)

// Table errors.
var (
	ErrRegionOutOfRange = errors.New("region index out of range")
	ErrLengthMismatch   = errors.New("region and value lists differ in length")
)

// Reader is the region-affiliation source consumed by the splicer.
// Returned slices must not be modified.
type Reader interface {
	MeshCount() int
	VertexCount(mesh int) int
	JointCount() int
	RegionCount() int
	RegionName(region int) string
	VertexRegions(mesh, vertex int) (regions []uint16, values []float32)
	JointRegions(joint int) (regions []uint16, values []float32)
}

// Affiliation is the sparse region membership of one vertex or joint.
type Affiliation struct {
	Regions []uint16
	Values  []float32
}

// Table is an in-memory Reader.
type Table struct {
	names    []string
	vertices [][]Affiliation
	joints   []Affiliation
}

var _ Reader = (*Table)(nil)

// NewTable creates a table with no memberships for the given topology.
func NewTable(names []string, vertexCounts []int, jointCount int) *Table {
	t := &Table{
		names:    append([]string(nil), names...),
		vertices: make([][]Affiliation, len(vertexCounts)),
		joints:   make([]Affiliation, jointCount),
	}
	for m, n := range vertexCounts {
		t.vertices[m] = make([]Affiliation, n)
	}
	return t
}

// SetVertex replaces the membership of one vertex.
func (t *Table) SetVertex(mesh, vertex int, regions []uint16, values []float32) error {
	a, err := t.affiliation(regions, values)
	if err != nil {
		return fmt.Errorf("mesh %d vertex %d: %w", mesh, vertex, err)
	}
	t.vertices[mesh][vertex] = a
	return nil
}

// SetJoint replaces the membership of one joint.
func (t *Table) SetJoint(joint int, regions []uint16, values []float32) error {
	a, err := t.affiliation(regions, values)
	if err != nil {
		return fmt.Errorf("joint %d: %w", joint, err)
	}
	t.joints[joint] = a
	return nil
}

// Fill assigns every vertex and joint fully to a single region.
func (t *Table) Fill(region uint16) error {
	if int(region) >= len(t.names) {
		return fmt.Errorf("%w: %d", ErrRegionOutOfRange, region)
	}
	full := Affiliation{Regions: []uint16{region}, Values: []float32{1}}
	for m := range t.vertices {
		for v := range t.vertices[m] {
			t.vertices[m][v] = full
		}
	}
	for j := range t.joints {
		t.joints[j] = full
	}
	return nil
}

func (t *Table) affiliation(regions []uint16, values []float32) (Affiliation, error) {
	if len(regions) != len(values) {
		return Affiliation{}, ErrLengthMismatch
	}
	for _, r := range regions {
		if int(r) >= len(t.names) {
			return Affiliation{}, fmt.Errorf("%w: %d", ErrRegionOutOfRange, r)
		}
	}
	return Affiliation{
		Regions: append([]uint16(nil), regions...),
		Values:  append([]float32(nil), values...),
	}, nil
}

// MeshCount implements Reader.
func (t *Table) MeshCount() int { return len(t.vertices) }

// VertexCount implements Reader.
func (t *Table) VertexCount(mesh int) int { return len(t.vertices[mesh]) }

// JointCount implements Reader.
func (t *Table) JointCount() int { return len(t.joints) }

// RegionCount implements Reader.
func (t *Table) RegionCount() int { return len(t.names) }

// RegionName implements Reader.
func (t *Table) RegionName(region int) string { return t.names[region] }

// VertexRegions implements Reader.
func (t *Table) VertexRegions(mesh, vertex int) ([]uint16, []float32) {
	a := t.vertices[mesh][vertex]
	return a.Regions, a.Values
}

// JointRegions implements Reader.
func (t *Table) JointRegions(joint int) ([]uint16, []float32) {
	a := t.joints[joint]
	return a.Regions, a.Values
}
