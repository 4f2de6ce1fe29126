package splice

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/rigsplice/pkg/genepool"
)

func TestAccustomizeJointGroups(t *testing.T) {
	arch := behaviorRig([]uint16{9, 12}, []float32{1, 2})
	pool := mustBuild(t, arch, behaviorRig([]uint16{12, 9, 13}, []float32{5, 3, 7}))

	data := NewSpliceData()
	data.SetBaseArchetype(arch)
	mustRegister(t, data, "pool", fullTable(t, nil, 2), pool)

	group := data.BaseArchetype().JointGroups[0]
	if want := []uint16{9, 12, 13}; !slices.Equal(group.OutputIndices, want) {
		t.Errorf("outputs = %v, want %v", group.OutputIndices, want)
	}
	if want := []float32{1, 2, 0}; !slices.Equal(group.Values, want) {
		t.Errorf("values = %v, want %v", group.Values, want)
	}
	if group.LODs[0] != 3 {
		t.Errorf("LOD 0 row count = %d, want 3", group.LODs[0])
	}
	if len(arch.JointGroups[0].OutputIndices) != 2 {
		t.Error("accustomize must not modify the caller's archetype")
	}
}

func TestAccustomizeRegistrationOrder(t *testing.T) {
	arch := behaviorRig([]uint16{9}, []float32{1})
	high := mustBuild(t, arch, behaviorRig([]uint16{9, 13}, []float32{1, 2}))
	low := mustBuild(t, arch, behaviorRig([]uint16{10, 9}, []float32{3, 1}))

	orders := [][]string{{"high", "low"}, {"low", "high"}}
	for _, order := range orders {
		data := NewSpliceData()
		data.SetBaseArchetype(arch)
		pools := map[string]*genepool.Pool{"high": high, "low": low}
		for _, name := range order {
			mustRegister(t, data, name, fullTable(t, nil, 2), pools[name])
		}

		group := data.BaseArchetype().JointGroups[0]
		if want := []uint16{9, 10, 13}; !slices.Equal(group.OutputIndices, want) {
			t.Errorf("order %v: outputs = %v, want %v", order, group.OutputIndices, want)
		}
		if want := []float32{1, 0, 0}; !slices.Equal(group.Values, want) {
			t.Errorf("order %v: values = %v, want %v", order, group.Values, want)
		}
	}
}

func TestAccustomizeBlendShapes(t *testing.T) {
	arch := meshRig(20, 0, []uint32{2, 17})
	pool := mustBuild(t, arch, meshRig(20, 1, []uint32{5, 17}))

	data := NewSpliceData()
	mustRegister(t, data, "pool", fullTable(t, []int{20}, 1), pool)
	// Setting the archetype after registration pads it just the same.
	data.SetBaseArchetype(arch)

	target := data.BaseArchetype().Meshes[0].BlendShapes[0]
	if want := []uint32{2, 5, 17}; !slices.Equal(target.VertexIndices, want) {
		t.Fatalf("indices = %v, want %v", target.VertexIndices, want)
	}
	if target.Deltas[1].Z != 0 || target.Deltas[0].Z != 1 || target.Deltas[2].Z != 1 {
		t.Errorf("deltas = %v, want zero delta at the added vertex", target.Deltas)
	}
}

func TestRegisterGenePool(t *testing.T) {
	arch := meshRig(20, 0, nil)
	first := mustBuild(t, arch, meshRig(20, 1, nil))
	second := mustBuild(t, arch, meshRig(20, 1, nil), meshRig(20, 2, nil))

	data := NewSpliceData()
	data.SetBaseArchetype(arch)
	mustRegister(t, data, "b", fullTable(t, []int{20}, 1), first)
	mustRegister(t, data, "a", fullTable(t, []int{20}, 1), first)
	p := mustRegister(t, data, "b", fullTable(t, []int{20}, 1), second)

	if got := data.PoolNames(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("pool names = %v", got)
	}
	got, ok := data.PoolParams("b")
	if !ok || got != p || got.GenePool().DNACount() != 2 {
		t.Error("registering an existing name should replace the pool")
	}
	all := data.AllPoolParams()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Errorf("AllPoolParams not in name order")
	}

	data.UnregisterGenePool("a")
	data.UnregisterGenePool("missing")
	if _, ok := data.PoolParams("a"); ok {
		t.Error("pool a should be gone")
	}
	if len(data.AllPoolParams()) != 1 {
		t.Errorf("expected 1 pool left, got %d", len(data.AllPoolParams()))
	}
}

func TestRegisterGenePoolIncompatible(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	data := NewSpliceData(WithLogger(zap.New(core)))
	pool := mustBuild(t, meshRig(20, 0, nil), meshRig(20, 1, nil))

	_, err := data.RegisterGenePool("bad", fullTable(t, []int{21}, 1), pool)
	if !errors.Is(err, ErrStructuralIncompatibility) {
		t.Fatalf("expected ErrStructuralIncompatibility, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Kind != StructuralIncompatibility {
		t.Errorf("expected a StatusError, got %T", err)
	}
	if _, ok := data.PoolParams("bad"); ok {
		t.Error("a rejected pool must not be stored")
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestUnregisterKeepsPadding(t *testing.T) {
	arch := behaviorRig([]uint16{9}, []float32{1})
	pool := mustBuild(t, arch, behaviorRig([]uint16{9, 13}, []float32{1, 2}))

	data := NewSpliceData()
	data.SetBaseArchetype(arch)
	mustRegister(t, data, "pool", fullTable(t, nil, 2), pool)
	data.UnregisterGenePool("pool")

	if got := data.BaseArchetype().JointGroups[0].OutputIndices; !slices.Equal(got, []uint16{9, 13}) {
		t.Errorf("outputs after unregister = %v, want padding kept", got)
	}
}

func TestForwardingSetters(t *testing.T) {
	data := NewSpliceData()
	pool := mustBuild(t, meshRig(20, 0, nil), meshRig(20, 1, nil), meshRig(20, 2, nil))
	p := mustRegister(t, data, "pool", fullTable(t, []int{20}, 1), pool)

	if err := data.SetSpliceWeights("pool", 1, []float32{0.75}); err != nil {
		t.Fatal(err)
	}
	if p.SpliceWeights().Row(1)[0] != 0.75 {
		t.Error("SetSpliceWeights not forwarded")
	}
	if err := data.SetDNAFilter("pool", []int{1}); err != nil || !slices.Equal(p.DNAFilter(), []int{1}) {
		t.Errorf("SetDNAFilter not forwarded: %v", err)
	}
	if err := data.SetMeshFilter("pool", nil); err != nil || p.meshEnabled(0) {
		t.Errorf("SetMeshFilter not forwarded: %v", err)
	}
	if err := data.ClearFilters("pool"); err != nil || len(p.DNAFilter()) != 2 {
		t.Errorf("ClearFilters not forwarded: %v", err)
	}
	if err := data.SetScale("pool", 2); err != nil || p.Scale() != 2 {
		t.Errorf("SetScale not forwarded: %v", err)
	}

	calls := []struct {
		name string
		call func() error
	}{
		{"SetSpliceWeights", func() error { return data.SetSpliceWeights("missing", 0, nil) }},
		{"SetMeshFilter", func() error { return data.SetMeshFilter("missing", nil) }},
		{"SetDNAFilter", func() error { return data.SetDNAFilter("missing", nil) }},
		{"ClearFilters", func() error { return data.ClearFilters("missing") }},
		{"SetScale", func() error { return data.SetScale("missing", 1) }},
	}
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			if err := c.call(); !errors.Is(err, ErrPoolNotFound) {
				t.Errorf("expected ErrPoolNotFound, got %v", err)
			}
		})
	}
}
