package block

import "testing"

func TestParseCalculationType(t *testing.T) {
	tests := []struct {
		in      string
		want    CalculationType
		wantErr bool
	}{
		{"", Auto, false},
		{"auto", Auto, false},
		{"Scalar", Scalar, false},
		{"sse", SSE, false},
		{" AVX ", AVX, false},
		{"8", AVX, false},
		{"neon", Auto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCalculationType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCalculationType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCalculationType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFeaturesSelect(t *testing.T) {
	tests := []struct {
		name string
		f    Features
		want CalculationType
	}{
		{"avx2 with fma", Features{AVX2: true, FMA: true, SSE41: true}, AVX},
		{"avx2 without fma", Features{AVX2: true, SSE41: true}, SSE},
		{"sse only", Features{SSE41: true}, SSE},
		{"arm64 neon", Features{ASIMD: true}, SSE},
		{"nothing", Features{}, Scalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Select(); got != tt.want {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve(SSE); got != SSE {
		t.Errorf("Resolve(SSE) = %v, want SSE", got)
	}
	if got := Resolve(Auto); got.Lanes() == 0 {
		t.Errorf("Resolve(Auto) = %v, want a concrete type", got)
	}
	if got := Resolve(CalculationType(42)); got.Lanes() == 0 {
		t.Errorf("Resolve(42) = %v, want a concrete type", got)
	}
}

func TestCalculationTypeString(t *testing.T) {
	if AVX.String() != "AVX" {
		t.Errorf("expected AVX, got %s", AVX.String())
	}
	if CalculationType(9).String() != "Unknown(9)" {
		t.Errorf("expected Unknown(9), got %s", CalculationType(9).String())
	}
}
