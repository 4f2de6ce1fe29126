package math

import (
	"math"
	"testing"
)

func TestComposeDecompose(t *testing.T) {
	tests := []struct {
		name string
		t    Vec3
		r    Vec3
	}{
		{"identity", Vec3{}, Vec3{}},
		{"translation only", Vec3{1, -2, 3}, Vec3{}},
		{"rotation x", Vec3{}, Vec3{0.5, 0, 0}},
		{"rotation xyz", Vec3{4, 5, 6}, Vec3{0.3, -0.7, 1.2}},
		{"negative angles", Vec3{-1, 0, 2}, Vec3{-2.5, 0.4, -1.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, gotR := Decompose(Compose(tt.t, tt.r))
			if gotT.Distance(tt.t) > 1e-4 {
				t.Errorf("translation = %v, want %v", gotT, tt.t)
			}
			if gotR.Distance(tt.r) > 1e-4 {
				t.Errorf("rotation = %v, want %v", gotR, tt.r)
			}
		})
	}
}

func TestDecomposeGimbalLock(t *testing.T) {
	m := Compose(Vec3{}, Vec3{0.25, math.Pi / 2, 0})
	_, r := Decompose(m)
	again := Compose(Vec3{}, r)
	for i := 0; i < 16; i++ {
		if abs(again[i]-m[i]) > 1e-4 {
			t.Fatalf("element %d: got %f, want %f", i, again[i], m[i])
		}
	}
}

func TestLocalWorldRoundTrip(t *testing.T) {
	// Joint 2 is listed before its parent to exercise out-of-order hierarchies.
	parents := []int{0, 2, 0, 1}
	localT := []Vec3{{0, 1, 0}, {0, 2, 0.5}, {1, 0, 0}, {0.25, 0.25, 0}}
	localR := []Vec3{{0, 0, 0.1}, {0.2, 0, 0}, {0, 0.3, 0}, {0.1, 0.1, 0.1}}

	worldT, worldR := LocalToWorld(parents, localT, localR)
	if worldT[0] != localT[0] {
		t.Errorf("root translation changed: got %v, want %v", worldT[0], localT[0])
	}

	backT, backR := WorldToLocal(parents, worldT, worldR)
	for j := range parents {
		if backT[j].Distance(localT[j]) > 1e-4 {
			t.Errorf("joint %d translation = %v, want %v", j, backT[j], localT[j])
		}
		if backR[j].Distance(localR[j]) > 1e-4 {
			t.Errorf("joint %d rotation = %v, want %v", j, backR[j], localR[j])
		}
	}
}

func TestLocalToWorldChain(t *testing.T) {
	parents := []int{-1, 0, 1}
	localT := []Vec3{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	localR := []Vec3{{}, {0, 0, math.Pi / 2}, {}}

	worldT, _ := LocalToWorld(parents, localT, localR)
	want := Vec3{2, 1, 0}
	if worldT[2].Distance(want) > 1e-5 {
		t.Errorf("end effector = %v, want %v", worldT[2], want)
	}
}
