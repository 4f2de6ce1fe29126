package main

import (
	"fmt"
	"io"
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/internal/config"
	"github.com/Faultbox/rigsplice/internal/fixture"
	"github.com/Faultbox/rigsplice/internal/logger"
	"github.com/Faultbox/rigsplice/pkg/rig"
	"github.com/Faultbox/rigsplice/pkg/splice"
)

// session is a SpliceData populated with synthetic pools.
type session struct {
	archetype *rig.Rig
	data      *splice.SpliceData
}

// newSession generates cfg.Splice.Pools fixture sets with consecutive seeds
// and registers each as a pool against the first set's archetype.
func newSession(cfg *config.Config) (*session, error) {
	data := splice.NewSpliceData(splice.WithLogger(logger.Named("splicedata")))

	var archetype *rig.Rig
	for i := 0; i < cfg.Splice.Pools; i++ {
		opts := cfg.Fixture
		opts.Seed += uint64(i)
		set, err := fixture.Generate(opts)
		if err != nil {
			return nil, fmt.Errorf("generating pool %d: %w", i, err)
		}
		if archetype == nil {
			archetype = set.Archetype
			data.SetBaseArchetype(archetype)
		}

		pool, err := set.Pool()
		if err != nil {
			return nil, fmt.Errorf("building pool %d: %w", i, err)
		}
		name := fmt.Sprintf("pool%02d", i)
		if _, err := data.RegisterGenePool(name, set.Regions, pool); err != nil {
			return nil, err
		}

		weights := make([]float32, pool.DNACount()*set.Regions.RegionCount())
		for w := range weights {
			weights[w] = cfg.Splice.Weight
		}
		if err := data.SetSpliceWeights(name, 0, weights); err != nil {
			return nil, err
		}
		if err := data.SetScale(name, cfg.Splice.Scale); err != nil {
			return nil, err
		}
	}
	return &session{archetype: archetype, data: data}, nil
}

func (s *session) splice(ct block.CalculationType, maxInfluences int) (*rig.Rig, time.Duration, error) {
	splicer := splice.NewGeneSplicer(ct,
		splice.WithMaxInfluences(maxInfluences),
		splice.WithSplicerLogger(logger.Named("splicer")))
	out := rig.Clone(s.data.BaseArchetype())

	start := time.Now()
	err := splicer.Splice(s.data, out)
	return out, time.Since(start), err
}

func cmdRun(cfg *config.Config, w io.Writer) error {
	ct, err := cfg.CalculationType()
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	out, elapsed, err := s.splice(ct, cfg.Splice.MaxInfluences)
	if err != nil {
		return err
	}
	logger.Info("splice complete",
		zap.Stringer("calculationType", block.Resolve(ct)),
		zap.Duration("elapsed", elapsed))

	fmt.Fprintf(w, "Calculation type: %s (%d lanes)\n", block.Resolve(ct), block.Resolve(ct).Lanes())
	fmt.Fprintf(w, "Pools:            %d\n", len(s.data.PoolNames()))
	fmt.Fprintf(w, "Elapsed:          %v\n", elapsed)
	fmt.Fprintln(w)

	base := s.data.BaseArchetype()
	for m := 0; m < out.MeshCount(); m++ {
		var displacement float32
		influences := 0
		for v, p := range out.VertexPositions(m) {
			displacement = max(displacement, p.Distance(base.VertexPositions(m)[v]))
			influences += len(out.SkinWeights(m, v).Joints)
		}
		fmt.Fprintf(w, "Mesh %d: %d vertices, max displacement %.4f, %.2f influences/vertex, %d blend shapes\n",
			m, out.VertexPositionCount(m), displacement,
			float64(influences)/float64(max(out.VertexPositionCount(m), 1)),
			out.BlendShapeTargetCount(m))
	}

	var moved float32
	for j, t := range out.NeutralJointTranslations() {
		moved = max(moved, t.Distance(base.NeutralJointTranslations()[j]))
	}
	fmt.Fprintf(w, "Joints: %d, max translation change %.4f\n", out.JointCount(), moved)
	for g := 0; g < out.JointGroupCount(); g++ {
		group := out.JointGroup(g)
		fmt.Fprintf(w, "Joint group %d: %d outputs x %d inputs\n", g, len(group.OutputIndices), len(group.InputIndices))
	}
	return nil
}

func cmdCompare(cfg *config.Config, w io.Writer) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	types := []block.CalculationType{block.Scalar, block.SSE, block.AVX}
	results := make([]*rig.Rig, len(types))
	fmt.Fprintf(w, "%-8s %12s %12s\n", "Mode", "Elapsed", "Max diff")
	for i, ct := range types {
		out, elapsed, err := s.splice(ct, cfg.Splice.MaxInfluences)
		if err != nil {
			return fmt.Errorf("%s: %w", ct, err)
		}
		results[i] = out
		fmt.Fprintf(w, "%-8s %12v %12.3g\n", ct, elapsed, maxDifference(results[0], out))
	}
	return nil
}

// maxDifference returns the largest absolute difference between the
// positions, joint transforms and behavior values of two spliced rigs.
func maxDifference(a, b *rig.Rig) float64 {
	var diff float64
	track := func(x, y float32) {
		diff = gomath.Max(diff, gomath.Abs(float64(x)-float64(y)))
	}
	for m := range a.Meshes {
		for v, p := range a.Meshes[m].Positions {
			q := b.Meshes[m].Positions[v]
			track(p.X, q.X)
			track(p.Y, q.Y)
			track(p.Z, q.Z)
		}
	}
	for j, t := range a.Translations {
		u := b.Translations[j]
		track(t.X, u.X)
		track(t.Y, u.Y)
		track(t.Z, u.Z)
	}
	for g := range a.JointGroups {
		for i, v := range a.JointGroups[g].Values {
			track(v, b.JointGroups[g].Values[i])
		}
	}
	return diff
}

func cmdModes(w io.Writer) {
	f := block.DetectFeatures()
	fmt.Fprintf(w, "Architecture: %s\n", f.Arch)
	fmt.Fprintf(w, "AVX2: %v  FMA: %v  SSE4.1: %v  ASIMD: %v\n", f.AVX2, f.FMA, f.SSE41, f.ASIMD)
	fmt.Fprintf(w, "Detected:     %s (%d lanes)\n", f.Select(), f.Select().Lanes())
	fmt.Fprintln(w)
	for _, ct := range []block.CalculationType{block.Auto, block.Scalar, block.SSE, block.AVX} {
		k := block.New(ct)
		fmt.Fprintf(w, "  %-7s -> %s kernel, %d lanes\n", ct, k.Type(), k.Lanes())
	}
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		logger.Info("config written", zap.String("path", args[0]))
		return nil
	}
	return cfg.Save()
}
