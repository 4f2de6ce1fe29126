// Package fixture generates deterministic synthetic rigs, dnas and region
// tables for tests and the genesplice command.
package fixture

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/region"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// ErrInvalidOptions is returned when Options describe an impossible rig.
var ErrInvalidOptions = errors.New("invalid fixture options")

// Options describe the generated topology.
type Options struct {
	Meshes        int    `yaml:"meshes"`
	Vertices      int    `yaml:"vertices"`
	BlendShapes   int    `yaml:"blend_shapes"`
	Joints        int    `yaml:"joints"`
	JointGroups   int    `yaml:"joint_groups"`
	Inputs        int    `yaml:"inputs"`
	MaxInfluences int    `yaml:"max_influences"`
	Regions       int    `yaml:"regions"`
	DNAs          int    `yaml:"dnas"`
	Seed          uint64 `yaml:"seed"`
}

// DefaultOptions returns a small rig that still spans several blocks.
func DefaultOptions() Options {
	return Options{
		Meshes:        2,
		Vertices:      37,
		BlendShapes:   2,
		Joints:        5,
		JointGroups:   2,
		Inputs:        3,
		MaxInfluences: 3,
		Regions:       2,
		DNAs:          4,
		Seed:          1,
	}
}

// Validate checks that the options describe a usable rig.
func (o Options) Validate() error {
	switch {
	case o.Meshes < 1:
		return fmt.Errorf("%w: meshes must be positive", ErrInvalidOptions)
	case o.Vertices < 1:
		return fmt.Errorf("%w: vertices must be positive", ErrInvalidOptions)
	case o.Joints < 1:
		return fmt.Errorf("%w: joints must be positive", ErrInvalidOptions)
	case o.Joints > 65535/rig.AttributeCount:
		return fmt.Errorf("%w: %d joints exceed output index range", ErrInvalidOptions, o.Joints)
	case o.BlendShapes < 0 || o.JointGroups < 0 || o.Inputs < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidOptions)
	case o.MaxInfluences < 1:
		return fmt.Errorf("%w: max influences must be positive", ErrInvalidOptions)
	case o.Regions < 1:
		return fmt.Errorf("%w: regions must be positive", ErrInvalidOptions)
	case o.DNAs < 1:
		return fmt.Errorf("%w: dnas must be positive", ErrInvalidOptions)
	}
	return nil
}

// Set is one generated archetype with its dnas and region table.
type Set struct {
	Archetype *rig.Rig
	DNAs      []*rig.Rig
	Regions   *region.Table
}

// Generate builds a Set. The same options always produce the same Set.
func Generate(opts Options) (*Set, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := &generator{opts: opts, rnd: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))}

	set := &Set{Archetype: g.archetype()}
	for d := 0; d < opts.DNAs; d++ {
		set.DNAs = append(set.DNAs, g.dna(set.Archetype))
	}
	regions, err := g.regions()
	if err != nil {
		return nil, err
	}
	set.Regions = regions
	return set, nil
}

// Readers returns the dnas as rig readers.
func (s *Set) Readers() []rig.Reader {
	out := make([]rig.Reader, len(s.DNAs))
	for i, d := range s.DNAs {
		out[i] = d
	}
	return out
}

// Pool builds a gene pool of the set's dnas against the archetype.
func (s *Set) Pool() (*genepool.Pool, error) {
	return genepool.Build(s.Archetype, s.Readers())
}

type generator struct {
	opts Options
	rnd  *rand.Rand
}

// between returns a uniform value in [lo, hi).
func (g *generator) between(lo, hi float32) float32 {
	return lo + g.rnd.Float32()*(hi-lo)
}

func (g *generator) vec(lo, hi float32) math.Vec3 {
	return math.Vec3{X: g.between(lo, hi), Y: g.between(lo, hi), Z: g.between(lo, hi)}
}

// rotation keeps composed world angles away from the +-90 degree pitch
// singularity for the shallow hierarchies generated here.
func (g *generator) rotation() math.Vec3 {
	return math.Vec3{X: g.between(-25, 25), Y: g.between(-25, 25), Z: g.between(-25, 25)}
}

func (g *generator) archetype() *rig.Rig {
	o := g.opts
	r := &rig.Rig{
		JointParents: make([]int, o.Joints),
		Translations: make([]math.Vec3, o.Joints),
		Rotations:    make([]math.Vec3, o.Joints),
		JointGroups:  make([]rig.JointGroup, o.JointGroups),
	}
	for j := range r.JointParents {
		r.JointParents[j] = (j - 1) / 2
		if j == 0 {
			r.JointParents[j] = 0
		}
		r.Translations[j] = g.vec(-2, 2)
		r.Rotations[j] = g.rotation()
	}

	r.Meshes = make([]rig.Mesh, o.Meshes)
	for m := range r.Meshes {
		mesh := &r.Meshes[m]
		mesh.MaxInfluences = o.MaxInfluences
		mesh.Positions = make([]math.Vec3, o.Vertices)
		mesh.Skin = make([]rig.SkinWeights, o.Vertices)
		for v := range mesh.Positions {
			mesh.Positions[v] = g.vec(-10, 10)
			mesh.Skin[v] = g.skin(o.MaxInfluences)
		}
		mesh.BlendShapes = make([]rig.BlendShapeTarget, o.BlendShapes)
		for t := range mesh.BlendShapes {
			mesh.BlendShapes[t] = g.target()
		}
	}

	for gi := range r.JointGroups {
		r.JointGroups[gi] = g.jointGroup(g.groupOutputs(gi))
	}
	return r
}

// dna derives a variation of arch with identical topology. Blend-shape
// vertex sets, skin joints and behavior rows may differ from arch.
func (g *generator) dna(arch *rig.Rig) *rig.Rig {
	d := rig.Clone(arch)
	for j := range d.Translations {
		d.Translations[j] = d.Translations[j].Add(g.vec(-0.5, 0.5))
		d.Rotations[j] = d.Rotations[j].Add(g.vec(-5, 5))
	}
	for m := range d.Meshes {
		mesh := &d.Meshes[m]
		for v := range mesh.Positions {
			mesh.Positions[v] = mesh.Positions[v].Add(g.vec(-1, 1))
			mesh.Skin[v] = g.skin(mesh.MaxInfluences)
		}
		for t := range mesh.BlendShapes {
			mesh.BlendShapes[t] = g.target()
		}
	}
	for gi := range d.JointGroups {
		inputs := d.JointGroups[gi].InputIndices
		group := g.jointGroup(g.groupOutputs(gi))
		group.InputIndices = slices.Clone(inputs)
		d.JointGroups[gi] = group
	}
	return d
}

func (g *generator) skin(maxInfluences int) rig.SkinWeights {
	n := 1 + g.rnd.IntN(min(maxInfluences, g.opts.Joints))
	joints := make([]uint16, 0, n)
	for _, j := range g.rnd.Perm(g.opts.Joints)[:n] {
		joints = append(joints, uint16(j))
	}
	slices.Sort(joints)

	weights := make([]float32, n)
	var sum float32
	for i := range weights {
		weights[i] = g.between(0.1, 1)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return rig.SkinWeights{Weights: weights, Joints: joints}
}

func (g *generator) target() rig.BlendShapeTarget {
	var t rig.BlendShapeTarget
	for v := 0; v < g.opts.Vertices; v++ {
		if g.rnd.IntN(3) == 0 {
			t.VertexIndices = append(t.VertexIndices, uint32(v))
			t.Deltas = append(t.Deltas, g.vec(-0.5, 0.5))
		}
	}
	return t
}

// groupOutputs picks behavior outputs of the joints belonging to group gi.
// Each joint contributes a random subset of its attributes in random order.
func (g *generator) groupOutputs(gi int) []uint16 {
	var outputs []uint16
	for j := gi; j < g.opts.Joints; j += max(g.opts.JointGroups, 1) {
		for _, attr := range g.rnd.Perm(rig.AttributeCount) {
			if g.rnd.IntN(2) == 0 {
				outputs = append(outputs, uint16(j*rig.AttributeCount+attr))
			}
		}
	}
	return outputs
}

func (g *generator) jointGroup(outputs []uint16) rig.JointGroup {
	o := g.opts
	group := rig.JointGroup{
		InputIndices:  make([]uint16, o.Inputs),
		OutputIndices: outputs,
		LODs:          []uint16{uint16(len(outputs))},
		Values:        make([]float32, len(outputs)*o.Inputs),
	}
	for i := range group.InputIndices {
		group.InputIndices[i] = uint16(i)
	}
	seen := make(map[uint16]bool)
	for _, oi := range outputs {
		j := oi / rig.AttributeCount
		if !seen[j] {
			seen[j] = true
			group.JointIndices = append(group.JointIndices, j)
		}
	}
	for i := range group.Values {
		group.Values[i] = g.between(-1, 1)
	}
	return group
}

func (g *generator) regions() (*region.Table, error) {
	o := g.opts
	names := make([]string, o.Regions)
	for r := range names {
		names[r] = fmt.Sprintf("region%d", r)
	}
	counts := make([]int, o.Meshes)
	for m := range counts {
		counts[m] = o.Vertices
	}
	t := region.NewTable(names, counts, o.Joints)

	for m := 0; m < o.Meshes; m++ {
		for v := 0; v < o.Vertices; v++ {
			regions, values := g.affiliation()
			if err := t.SetVertex(m, v, regions, values); err != nil {
				return nil, err
			}
		}
	}
	for j := 0; j < o.Joints; j++ {
		regions, values := g.affiliation()
		if err := t.SetJoint(j, regions, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// affiliation splits a unit membership between one or two regions.
func (g *generator) affiliation() ([]uint16, []float32) {
	first := uint16(g.rnd.IntN(g.opts.Regions))
	if g.opts.Regions == 1 || g.rnd.IntN(2) == 0 {
		return []uint16{first}, []float32{1}
	}
	second := uint16((int(first) + 1 + g.rnd.IntN(g.opts.Regions-1)) % g.opts.Regions)
	share := g.between(0.2, 0.8)
	return []uint16{first, second}, []float32{share, 1 - share}
}
