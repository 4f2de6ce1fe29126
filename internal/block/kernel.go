package block

// Size is the tile width in elements.
const Size = 16

// Stride3 is the number of floats in one tile of 3D data.
const Stride3 = 3 * Size

// Blocks returns how many tiles cover n elements.
func Blocks(n int) int {
	return (n + Size - 1) / Size
}

// Pad rounds n up to a whole number of tiles.
func Pad(n int) int {
	return Blocks(n) * Size
}

// Kernel is the accumulation primitive used by the splicers.
// Slices passed to one call must be equally long unless noted otherwise.
type Kernel interface {
	// Type returns the calculation type the kernel was built for.
	Type() CalculationType
	// Lanes returns the number of elements processed per step.
	Lanes() int
	// MulAdd computes dst[i] += src[i] * w.
	MulAdd(dst, src []float32, w float32)
	// MulAddVec treats dst and src as consecutive channels of len(w)
	// elements and computes dst[c*n+i] += src[c*n+i] * w[i] * scale.
	MulAddVec(dst, src, w []float32, scale float32)
	// AddScaled computes dst[i] += w[i] * scale.
	AddScaled(dst, w []float32, scale float32)
	// SubMul treats dst and base as channels of len(w) elements and
	// computes dst[c*n+i] -= base[c*n+i] * w[i].
	SubMul(dst, base, w []float32)
}

// New returns the kernel for t. Auto is resolved through Detect.
func New(t CalculationType) Kernel {
	switch Resolve(t) {
	case AVX:
		return splicer[lane8]{t: AVX}
	case SSE:
		return splicer[lane4]{t: SSE}
	default:
		return splicer[lane1]{t: Scalar}
	}
}

// splicer is the generic kernel; one instantiation exists per lane type.
type splicer[V vector[V]] struct {
	t CalculationType
}

func (s splicer[V]) Type() CalculationType { return s.t }

func (s splicer[V]) Lanes() int {
	var z V
	return z.width()
}

func (s splicer[V]) MulAdd(dst, src []float32, w float32) {
	var z V
	n := min(len(dst), len(src))
	full := n - n%z.width()
	wv := z.splat(w)
	for i := 0; i < full; i += z.width() {
		z.load(dst[i:]).mulAdd(z.load(src[i:]), wv).store(dst[i:])
	}
	for i := full; i < n; i++ {
		dst[i] += src[i] * w
	}
}

func (s splicer[V]) MulAddVec(dst, src, w []float32, scale float32) {
	n := len(w)
	if n == 0 {
		return
	}
	channels := min(len(dst), len(src)) / n
	for c := 0; c < channels; c++ {
		s.mulAddChannel(dst[c*n:(c+1)*n], src[c*n:(c+1)*n], w, scale)
	}
}

func (s splicer[V]) mulAddChannel(dst, src, w []float32, scale float32) {
	var z V
	n := len(w)
	full := n - n%z.width()
	sv := z.splat(scale)
	for i := 0; i < full; i += z.width() {
		ww := z.load(w[i:]).mul(sv)
		z.load(dst[i:]).mulAdd(z.load(src[i:]), ww).store(dst[i:])
	}
	for i := full; i < n; i++ {
		dst[i] += src[i] * (w[i] * scale)
	}
}

func (s splicer[V]) AddScaled(dst, w []float32, scale float32) {
	var z V
	n := min(len(dst), len(w))
	full := n - n%z.width()
	sv := z.splat(scale)
	for i := 0; i < full; i += z.width() {
		z.load(dst[i:]).mulAdd(z.load(w[i:]), sv).store(dst[i:])
	}
	for i := full; i < n; i++ {
		dst[i] += w[i] * scale
	}
}

func (s splicer[V]) SubMul(dst, base, w []float32) {
	n := len(w)
	if n == 0 {
		return
	}
	var z V
	full := n - n%z.width()
	channels := min(len(dst), len(base)) / n
	for c := 0; c < channels; c++ {
		d := dst[c*n : (c+1)*n]
		b := base[c*n : (c+1)*n]
		for i := 0; i < full; i += z.width() {
			z.load(d[i:]).sub(z.load(b[i:]).mul(z.load(w[i:]))).store(d[i:])
		}
		for i := full; i < n; i++ {
			d[i] -= b[i] * w[i]
		}
	}
}
