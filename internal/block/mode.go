package block

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CalculationType selects the lane width of the kernel.
type CalculationType int

const (
	// Auto picks the widest kernel the CPU supports.
	Auto CalculationType = iota
	// Scalar processes one element at a time.
	Scalar
	// SSE processes four lanes at a time.
	SSE
	// AVX processes eight lanes at a time.
	AVX
)

// String returns the calculation type name.
func (t CalculationType) String() string {
	switch t {
	case Auto:
		return "Auto"
	case Scalar:
		return "Scalar"
	case SSE:
		return "SSE"
	case AVX:
		return "AVX"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Lanes returns the lane width, or 0 for Auto and unknown values.
func (t CalculationType) Lanes() int {
	switch t {
	case Scalar:
		return 1
	case SSE:
		return 4
	case AVX:
		return 8
	default:
		return 0
	}
}

// ParseCalculationType parses a case-insensitive calculation type name.
// The empty string parses as Auto.
func ParseCalculationType(s string) (CalculationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "scalar":
		return Scalar, nil
	case "sse", "4", "x4":
		return SSE, nil
	case "avx", "8", "x8":
		return AVX, nil
	default:
		return Auto, fmt.Errorf("unknown calculation type %q", s)
	}
}

// Features describes the CPU capabilities relevant to kernel selection.
type Features struct {
	Arch  string
	AVX2  bool
	FMA   bool
	SSE41 bool
	ASIMD bool
}

// DetectFeatures reads the running CPU's capabilities.
func DetectFeatures() Features {
	return Features{
		Arch:  runtime.GOARCH,
		AVX2:  cpu.X86.HasAVX2,
		FMA:   cpu.X86.HasFMA,
		SSE41: cpu.X86.HasSSE41,
		ASIMD: cpu.ARM64.HasASIMD,
	}
}

// Select maps CPU features to the widest supported calculation type.
func (f Features) Select() CalculationType {
	switch {
	case f.AVX2 && f.FMA:
		return AVX
	case f.SSE41, f.ASIMD:
		return SSE
	default:
		return Scalar
	}
}

// Detect returns the widest calculation type supported by the running CPU.
func Detect() CalculationType {
	return DetectFeatures().Select()
}

// Resolve replaces Auto (and unknown values) with the detected type.
func Resolve(t CalculationType) CalculationType {
	if t.Lanes() == 0 {
		return Detect()
	}
	return t
}
