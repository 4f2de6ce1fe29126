package splice

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/region"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// PoolParams is the splice configuration of one registered gene pool:
// weights, filters, scale, cached derived weights and the joint-group
// output remap table.
//
// PoolParams is not safe for concurrent use.
type PoolParams struct {
	name   string
	region region.Reader
	pool   genepool.Reader
	log    *zap.Logger

	weights    SpliceWeights
	meshFilter []int
	dnaFilter  []int
	scale      float32

	vertexWeights VertexWeights
	jointWeights  JointWeights

	// outputOffsets[group][poolRow] is the float offset of the matching
	// archetype row in the padded behavior buffer, or -1.
	outputOffsets [][]int
}

// compatible checks the pool against the region affiliation.
func compatible(reg region.Reader, pool genepool.Reader) error {
	if reg.MeshCount() != pool.MeshCount() {
		return statusf(StructuralIncompatibility,
			"gene pool has %d meshes, region affiliation has %d", pool.MeshCount(), reg.MeshCount())
	}
	for m := 0; m < reg.MeshCount(); m++ {
		if reg.VertexCount(m) != pool.VertexCount(m) {
			return statusf(StructuralIncompatibility,
				"mesh %d: gene pool has %d vertices, region affiliation has %d",
				m, pool.VertexCount(m), reg.VertexCount(m))
		}
	}
	if reg.JointCount() != pool.JointCount() {
		return statusf(StructuralIncompatibility,
			"gene pool has %d joints, region affiliation has %d", pool.JointCount(), reg.JointCount())
	}
	return nil
}

func newPoolParams(name string, reg region.Reader, pool genepool.Reader, log *zap.Logger) (*PoolParams, error) {
	if err := compatible(reg, pool); err != nil {
		return nil, err
	}
	p := &PoolParams{
		name:    name,
		region:  reg,
		pool:    pool,
		log:     log,
		weights: newSpliceWeights(pool.DNACount(), reg.RegionCount()),
		scale:   1,
	}
	p.ClearFilters()
	return p, nil
}

// Name returns the name the pool was registered under.
func (p *PoolParams) Name() string { return p.name }

// GenePool returns the underlying gene pool.
func (p *PoolParams) GenePool() genepool.Reader { return p.pool }

// Region returns the region affiliation the pool was registered with.
func (p *PoolParams) Region() region.Reader { return p.region }

// SpliceWeights returns the weight matrix. Use SetSpliceWeights to modify it.
func (p *PoolParams) SpliceWeights() *SpliceWeights { return &p.weights }

// SetSpliceWeights overwrites the region weights of consecutive dnas
// starting at dnaStart. weights holds RegionCount values per dna.
func (p *PoolParams) SetSpliceWeights(dnaStart int, weights []float32) error {
	if err := p.weights.set(dnaStart, weights); err != nil {
		return err
	}
	p.invalidate()
	return nil
}

// MeshFilter returns the ascending list of enabled meshes.
func (p *PoolParams) MeshFilter() []int { return p.meshFilter }

// SetMeshFilter restricts splicing to the given meshes. The list is sorted.
// An index outside the pool's meshes leaves the filter unchanged.
func (p *PoolParams) SetMeshFilter(meshes []int) error {
	if err := checkRange("mesh", meshes, p.pool.MeshCount()); err != nil {
		return err
	}
	p.meshFilter = slices.Clone(meshes)
	slices.Sort(p.meshFilter)
	p.invalidate()
	return nil
}

// DNAFilter returns the ascending list of contributing dnas.
func (p *PoolParams) DNAFilter() []int { return p.dnaFilter }

// SetDNAFilter restricts splicing to the given dnas. The list is sorted but
// duplicates are kept; a repeated dna contributes once per occurrence.
// An index outside the pool's dnas leaves the filter unchanged.
func (p *PoolParams) SetDNAFilter(dnas []int) error {
	if err := checkRange("dna", dnas, p.pool.DNACount()); err != nil {
		return err
	}
	p.dnaFilter = slices.Clone(dnas)
	slices.Sort(p.dnaFilter)
	if n := len(slices.Compact(slices.Clone(p.dnaFilter))); n != len(p.dnaFilter) {
		p.log.Debug("dna filter contains duplicates",
			zap.String("pool", p.name),
			zap.Int("entries", len(p.dnaFilter)),
			zap.Int("unique", n))
	}
	p.invalidate()
	return nil
}

func checkRange(what string, indices []int, n int) error {
	for _, i := range indices {
		if i < 0 || i >= n {
			return statusf(FilterOutOfRange, "%s %d outside [0, %d)", what, i, n)
		}
	}
	return nil
}

// ClearFilters enables every mesh and every dna.
func (p *PoolParams) ClearFilters() {
	p.meshFilter = identity(p.pool.MeshCount())
	p.dnaFilter = identity(p.pool.DNACount())
	p.invalidate()
}

// Scale returns the pool scale.
func (p *PoolParams) Scale() float32 { return p.scale }

// SetScale sets the factor applied to the pool's scalable contributions.
func (p *PoolParams) SetScale(scale float32) {
	p.scale = scale
}

// VertexWeights returns the cached vertex weights. They are only valid
// after CacheAll.
func (p *PoolParams) VertexWeights() *VertexWeights { return &p.vertexWeights }

// JointWeights returns the cached joint weights. They are only valid
// after CacheAll.
func (p *PoolParams) JointWeights() *JointWeights { return &p.jointWeights }

// CacheAll computes any invalidated weight cache.
func (p *PoolParams) CacheAll() {
	if p.vertexWeights.empty() {
		p.vertexWeights.compute(p.region, &p.weights, p.meshFilter, p.dnaFilter)
	}
	if p.jointWeights.empty() {
		p.jointWeights.compute(p.region, &p.weights, p.dnaFilter)
	}
}

func (p *PoolParams) invalidate() {
	p.vertexWeights.clear()
	p.jointWeights.clear()
}

// meshEnabled reports whether mesh passes the mesh filter.
func (p *PoolParams) meshEnabled(mesh int) bool {
	_, found := slices.BinarySearch(p.meshFilter, mesh)
	return found
}

// generateJointBehaviorOutputIndexTargetOffsets maps each pool row of
// every joint group to the offset of the archetype row with the same
// output index. Pools may order their rows differently from the archetype.
func (p *PoolParams) generateJointBehaviorOutputIndexTargetOffsets(archetype rig.Reader) {
	groups := min(p.pool.JointGroupCount(), archetype.JointGroupCount())
	p.outputOffsets = make([][]int, p.pool.JointGroupCount())
	for g := 0; g < groups; g++ {
		ag := archetype.JointGroup(g)
		columns := block.Pad(len(ag.InputIndices))
		rows := make(map[uint16]int, len(ag.OutputIndices))
		for r, oi := range ag.OutputIndices {
			rows[oi] = r
		}

		pg := p.pool.JointGroup(g)
		offsets := make([]int, len(pg.OutputIndices))
		for i, oi := range pg.OutputIndices {
			offsets[i] = -1
			if r, ok := rows[oi]; ok {
				offsets[i] = r * columns
			}
		}
		p.outputOffsets[g] = offsets
	}
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
