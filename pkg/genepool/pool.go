// Package genepool holds block-tiled rig data extracted from a batch of
// source rigs ("dnas"), stored as differences against a delta archetype.
//
// Vertex and joint data is tiled in blocks of block.Size elements using the
// Structure-of-Arrays layout described in internal/block. A pool is
// read-only once built.
package genepool

// Reader is the read-only view of a gene pool consumed by the splicer.
// Returned slices are owned by the pool and must not be modified.
type Reader interface {
	DNACount() int
	MeshCount() int
	VertexCount(mesh int) int
	JointCount() int

	// NeutralMesh returns tiled position deltas of one dna.
	NeutralMesh(mesh, dna int) []float32

	BlendShapeTargetCount(mesh int) int
	// BlendShapeVertexIndices is the ascending union of vertex indices
	// any dna or the delta archetype uses for the target.
	BlendShapeVertexIndices(mesh, target int) []uint32
	BlendShapeBuckets(mesh, target int) []Bucket

	// NeutralJointTranslations returns tiled world-space translation deltas.
	NeutralJointTranslations(dna int) []float32
	// NeutralJointRotations returns tiled world-space Euler deltas in radians.
	NeutralJointRotations(dna int) []float32

	JointGroupCount() int
	JointGroup(group int) *JointGroup

	SkinWeightBlocks(mesh int) []SkinBlock
	MaxInfluences(mesh int) int
}

// Bucket is the sparse blend-shape storage for one 16-vertex block.
// Baseline holds the delta archetype's deltas for the block; Values holds
// the absolute deltas of every dna in DNAs, which is ascending. DNAs not
// listed equal the baseline.
type Bucket struct {
	Block    int
	Baseline []float32
	DNAs     []uint16
	Values   [][]float32
}

// JointGroup holds joint-behavior deltas for one joint group. Rows follow
// OutputIndices, which may be ordered differently from the archetype.
// Each row is padded to Columns floats.
type JointGroup struct {
	OutputIndices []uint16
	InputIndices  []uint16
	Columns       int
	Values        [][]float32
}

// Row returns the padded row r of dna.
func (g *JointGroup) Row(dna, r int) []float32 {
	return g.Values[dna][r*g.Columns : (r+1)*g.Columns]
}

// SkinBlock holds skin weights of one 16-vertex block. Joints and each
// Values entry are laid out slot-major: index slot*block.Size + lane.
type SkinBlock struct {
	Slots  int
	Joints []uint16
	Values [][]float32
}

type meshData struct {
	vertexCount   int
	deltas        [][]float32
	targets       []target
	skin          []SkinBlock
	maxInfluences int
}

type target struct {
	vertexIndices []uint32
	buckets       []Bucket
}

// Pool is the in-memory gene pool produced by Build.
type Pool struct {
	dnaCount     int
	jointCount   int
	meshes       []meshData
	translations [][]float32
	rotations    [][]float32
	jointGroups  []JointGroup
}

var _ Reader = (*Pool)(nil)

// DNACount returns the number of source rigs in the pool.
func (p *Pool) DNACount() int { return p.dnaCount }

// MeshCount returns the number of meshes.
func (p *Pool) MeshCount() int { return len(p.meshes) }

// VertexCount returns the vertex count of a mesh.
func (p *Pool) VertexCount(mesh int) int { return p.meshes[mesh].vertexCount }

// JointCount returns the number of joints.
func (p *Pool) JointCount() int { return p.jointCount }

// NeutralMesh implements Reader.
func (p *Pool) NeutralMesh(mesh, dna int) []float32 { return p.meshes[mesh].deltas[dna] }

// BlendShapeTargetCount implements Reader.
func (p *Pool) BlendShapeTargetCount(mesh int) int { return len(p.meshes[mesh].targets) }

// BlendShapeVertexIndices implements Reader.
func (p *Pool) BlendShapeVertexIndices(mesh, target int) []uint32 {
	return p.meshes[mesh].targets[target].vertexIndices
}

// BlendShapeBuckets implements Reader.
func (p *Pool) BlendShapeBuckets(mesh, target int) []Bucket {
	return p.meshes[mesh].targets[target].buckets
}

// NeutralJointTranslations implements Reader.
func (p *Pool) NeutralJointTranslations(dna int) []float32 { return p.translations[dna] }

// NeutralJointRotations implements Reader.
func (p *Pool) NeutralJointRotations(dna int) []float32 { return p.rotations[dna] }

// JointGroupCount implements Reader.
func (p *Pool) JointGroupCount() int { return len(p.jointGroups) }

// JointGroup implements Reader.
func (p *Pool) JointGroup(group int) *JointGroup { return &p.jointGroups[group] }

// SkinWeightBlocks implements Reader.
func (p *Pool) SkinWeightBlocks(mesh int) []SkinBlock { return p.meshes[mesh].skin }

// MaxInfluences returns the largest influence count of any dna for a mesh.
func (p *Pool) MaxInfluences(mesh int) int { return p.meshes[mesh].maxInfluences }
