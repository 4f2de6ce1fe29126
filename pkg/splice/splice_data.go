package splice

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/rigsplice/pkg/genepool"
	"github.com/Faultbox/rigsplice/pkg/math"
	"github.com/Faultbox/rigsplice/pkg/region"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// Option configures SpliceData.
type Option func(*SpliceData)

// WithLogger sets the logger used for registration and exclusion diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(d *SpliceData) {
		if log != nil {
			d.log = log
		}
	}
}

// SpliceData owns the base archetype and the registered pools and keeps
// them structurally consistent.
//
// SpliceData is not safe for concurrent use.
type SpliceData struct {
	base      *rig.Rig
	archetype *rig.Rig
	pools     map[string]*PoolParams
	log       *zap.Logger
}

// NewSpliceData creates an empty SpliceData.
func NewSpliceData(opts ...Option) *SpliceData {
	d := &SpliceData{
		pools: make(map[string]*PoolParams),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetBaseArchetype replaces the structural template. The reader is copied,
// padded to fit every registered pool, and every remap table is rebuilt.
func (d *SpliceData) SetBaseArchetype(archetype rig.Reader) {
	d.base = rig.Clone(archetype)
	d.log.Debug("base archetype set",
		zap.Int("meshes", d.base.MeshCount()),
		zap.Int("joints", d.base.JointCount()),
		zap.Int("jointGroups", d.base.JointGroupCount()))
	d.accustomize()
}

// BaseArchetype returns the padded working copy of the archetype, or nil.
func (d *SpliceData) BaseArchetype() *rig.Rig { return d.archetype }

// RegisterGenePool validates pool against reg and stores it under name,
// replacing any pool of the same name. On failure nothing is stored and the
// returned error is a *StatusError of kind StructuralIncompatibility.
func (d *SpliceData) RegisterGenePool(name string, reg region.Reader, pool genepool.Reader) (*PoolParams, error) {
	params, err := newPoolParams(name, reg, pool, d.log)
	if err != nil {
		d.log.Warn("gene pool rejected", zap.String("pool", name), zap.Error(err))
		return nil, fmt.Errorf("registering %q: %w", name, err)
	}
	d.pools[name] = params
	d.log.Info("gene pool registered",
		zap.String("pool", name),
		zap.Int("dnas", pool.DNACount()),
		zap.Int("regions", reg.RegionCount()))
	d.accustomize()
	return params, nil
}

// UnregisterGenePool removes a pool. The archetype keeps any padding the
// pool caused until the next registration or SetBaseArchetype.
func (d *SpliceData) UnregisterGenePool(name string) {
	if _, ok := d.pools[name]; !ok {
		return
	}
	delete(d.pools, name)
	d.log.Info("gene pool unregistered", zap.String("pool", name))
}

// PoolParams returns the mutable parameters of a registered pool.
func (d *SpliceData) PoolParams(name string) (*PoolParams, bool) {
	p, ok := d.pools[name]
	return p, ok
}

// PoolNames returns the registered names in ascending order.
func (d *SpliceData) PoolNames() []string {
	names := make([]string, 0, len(d.pools))
	for name := range d.pools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AllPoolParams returns every registered pool ordered by name.
// Splicing results do not depend on this order.
func (d *SpliceData) AllPoolParams() []*PoolParams {
	names := d.PoolNames()
	out := make([]*PoolParams, len(names))
	for i, name := range names {
		out[i] = d.pools[name]
	}
	return out
}

// SetSpliceWeights forwards to the named pool.
func (d *SpliceData) SetSpliceWeights(name string, dnaStart int, weights []float32) error {
	p, err := d.lookup(name)
	if err != nil {
		return err
	}
	return p.SetSpliceWeights(dnaStart, weights)
}

// SetMeshFilter forwards to the named pool.
func (d *SpliceData) SetMeshFilter(name string, meshes []int) error {
	p, err := d.lookup(name)
	if err != nil {
		return err
	}
	return p.SetMeshFilter(meshes)
}

// SetDNAFilter forwards to the named pool.
func (d *SpliceData) SetDNAFilter(name string, dnas []int) error {
	p, err := d.lookup(name)
	if err != nil {
		return err
	}
	return p.SetDNAFilter(dnas)
}

// ClearFilters forwards to the named pool.
func (d *SpliceData) ClearFilters(name string) error {
	p, err := d.lookup(name)
	if err != nil {
		return err
	}
	p.ClearFilters()
	return nil
}

// SetScale forwards to the named pool.
func (d *SpliceData) SetScale(name string, scale float32) error {
	p, err := d.lookup(name)
	if err != nil {
		return err
	}
	p.SetScale(scale)
	return nil
}

// CacheAll computes every invalidated weight cache.
func (d *SpliceData) CacheAll() {
	for _, p := range d.pools {
		p.CacheAll()
	}
}

func (d *SpliceData) lookup(name string) (*PoolParams, error) {
	p, ok := d.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, name)
	}
	return p, nil
}

// logExclusion records a pool skipped for one domain element.
func (d *SpliceData) logExclusion(p *PoolParams, domain, reason string, index int) {
	d.log.Debug("pool excluded",
		zap.String("pool", p.name),
		zap.String("domain", domain),
		zap.Int("index", index),
		zap.String("reason", reason))
}

// accustomize rebuilds the working archetype from the unpadded base,
// pads it to the union of all pools and rebuilds every pool's joint-group
// remap table against it. The padded layout does not depend on the order
// in which pools were registered.
func (d *SpliceData) accustomize() {
	if d.base == nil {
		return
	}
	d.archetype = rig.Clone(d.base)
	params := d.AllPoolParams()
	d.padJointGroups(params)
	for _, p := range params {
		d.padBlendShapes(p.pool)
	}
	for _, p := range params {
		p.generateJointBehaviorOutputIndexTargetOffsets(d.archetype)
	}
}

// padJointGroups appends the output rows any pool has and the archetype
// lacks, in ascending output index order.
func (d *SpliceData) padJointGroups(params []*PoolParams) {
	for g := range d.archetype.JointGroups {
		ag := &d.archetype.JointGroups[g]
		known := make(map[uint16]bool, len(ag.OutputIndices))
		for _, oi := range ag.OutputIndices {
			known[oi] = true
		}
		var missing []uint16
		for _, p := range params {
			if g >= p.pool.JointGroupCount() {
				continue
			}
			pg := p.pool.JointGroup(g)
			if len(pg.InputIndices) != len(ag.InputIndices) {
				continue
			}
			for _, oi := range pg.OutputIndices {
				if !known[oi] {
					known[oi] = true
					missing = append(missing, oi)
				}
			}
		}
		if len(missing) == 0 {
			continue
		}
		slices.Sort(missing)
		ag.OutputIndices = append(ag.OutputIndices, missing...)
		ag.Values = append(ag.Values, make([]float32, len(missing)*len(ag.InputIndices))...)
		if len(ag.LODs) > 0 {
			ag.LODs[0] = uint16(len(ag.OutputIndices))
		}
		d.log.Debug("archetype joint group padded", zap.Int("group", g), zap.Int("rows", len(missing)))
	}
}

// padBlendShapes unions the pool's blend-shape vertex indices into the
// archetype targets, adding zero deltas.
func (d *SpliceData) padBlendShapes(pool genepool.Reader) {
	meshes := min(pool.MeshCount(), d.archetype.MeshCount())
	for m := 0; m < meshes; m++ {
		mesh := &d.archetype.Meshes[m]
		if pool.BlendShapeTargetCount(m) != len(mesh.BlendShapes) {
			continue
		}
		for t := range mesh.BlendShapes {
			target := &mesh.BlendShapes[t]
			have := make(map[uint32]math.Vec3, len(target.VertexIndices))
			for i, v := range target.VertexIndices {
				have[v] = target.Deltas[i]
			}
			missing := false
			for _, v := range pool.BlendShapeVertexIndices(m, t) {
				if _, ok := have[v]; !ok {
					have[v] = math.Vec3{}
					missing = true
				}
			}
			if !missing {
				continue
			}
			indices := make([]uint32, 0, len(have))
			for v := range have {
				indices = append(indices, v)
			}
			slices.Sort(indices)
			deltas := make([]math.Vec3, len(indices))
			for i, v := range indices {
				deltas[i] = have[v]
			}
			target.VertexIndices = indices
			target.Deltas = deltas
		}
	}
}
