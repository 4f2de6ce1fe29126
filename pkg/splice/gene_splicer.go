package splice

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/rig"
)

// SplicerOption configures a GeneSplicer.
type SplicerOption func(*GeneSplicer)

// WithMaxInfluences caps the skin influences per vertex. Zero or less uses
// the archetype's per-mesh maximum.
func WithMaxInfluences(n int) SplicerOption {
	return func(g *GeneSplicer) {
		g.maxInfluences = n
	}
}

// WithSplicerLogger sets the logger used for pass diagnostics.
func WithSplicerLogger(log *zap.Logger) SplicerOption {
	return func(g *GeneSplicer) {
		if log != nil {
			g.log = log
		}
	}
}

// GeneSplicer runs the splice passes with a fixed calculation type.
// Working buffers are reused between calls, so a GeneSplicer must not be
// used from several goroutines at once.
type GeneSplicer struct {
	kernel        block.Kernel
	maxInfluences int
	log           *zap.Logger
	scratch       scratch
}

// NewGeneSplicer creates a splicer for t. Auto picks the widest kernel the
// CPU supports.
func NewGeneSplicer(t block.CalculationType, opts ...SplicerOption) *GeneSplicer {
	g := &GeneSplicer{
		kernel: block.New(t),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log.Debug("gene splicer created",
		zap.Stringer("requested", t),
		zap.Stringer("calculationType", g.kernel.Type()),
		zap.Int("lanes", g.kernel.Lanes()))
	return g
}

// CalculationType returns the resolved calculation type.
func (g *GeneSplicer) CalculationType() block.CalculationType {
	return g.kernel.Type()
}

// Splice runs every pass in order: neutral meshes, blend shapes, neutral
// joints, joint behavior and skin weights.
func (g *GeneSplicer) Splice(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceNeutralMeshes(g.kernel, data, out, &g.scratch)
	spliceBlendShapes(g.kernel, data, out, &g.scratch)
	spliceNeutralJoints(g.kernel, data, out, &g.scratch)
	spliceJointBehavior(g.kernel, data, out, &g.scratch)
	spliceSkinWeights(g.kernel, data, out, &g.scratch, g.maxInfluences)
	g.log.Debug("splice complete", zap.Int("pools", len(data.pools)))
	return nil
}

// SpliceNeutralMeshes blends vertex positions only.
func (g *GeneSplicer) SpliceNeutralMeshes(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceNeutralMeshes(g.kernel, data, out, &g.scratch)
	return nil
}

// SpliceBlendShapes blends blend-shape target deltas only.
func (g *GeneSplicer) SpliceBlendShapes(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceBlendShapes(g.kernel, data, out, &g.scratch)
	return nil
}

// SpliceNeutralJoints blends neutral joint translations and rotations only.
func (g *GeneSplicer) SpliceNeutralJoints(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceNeutralJoints(g.kernel, data, out, &g.scratch)
	return nil
}

// SpliceJointBehavior blends joint-group behavior matrices only.
func (g *GeneSplicer) SpliceJointBehavior(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceJointBehavior(g.kernel, data, out, &g.scratch)
	return nil
}

// SpliceSkinWeights blends, normalizes and prunes skin weights only.
func (g *GeneSplicer) SpliceSkinWeights(data *SpliceData, out rig.Writer) error {
	if err := g.prepare(data); err != nil {
		return err
	}
	spliceSkinWeights(g.kernel, data, out, &g.scratch, g.maxInfluences)
	return nil
}

func (g *GeneSplicer) prepare(data *SpliceData) error {
	if data.archetype == nil {
		return ErrNoBaseArchetype
	}
	data.CacheAll()
	return nil
}
