package block

// vector is the lane abstraction the kernel is written against.
// Methods take value receivers so a zero V can act as the constructor.
type vector[V any] interface {
	width() int
	load(src []float32) V
	splat(f float32) V
	mulAdd(x, w V) V
	mul(o V) V
	sub(o V) V
	store(dst []float32)
}

type lane1 [1]float32

func (lane1) width() int                { return 1 }
func (lane1) load(src []float32) lane1  { return lane1{src[0]} }
func (lane1) splat(f float32) lane1     { return lane1{f} }
func (v lane1) mulAdd(x, w lane1) lane1 { return lane1{v[0] + x[0]*w[0]} }
func (v lane1) mul(o lane1) lane1       { return lane1{v[0] * o[0]} }
func (v lane1) sub(o lane1) lane1       { return lane1{v[0] - o[0]} }
func (v lane1) store(dst []float32)     { dst[0] = v[0] }

type lane4 [4]float32

func (lane4) width() int { return 4 }

func (lane4) load(src []float32) lane4 {
	var v lane4
	copy(v[:], src[:4])
	return v
}

func (lane4) splat(f float32) lane4 {
	return lane4{f, f, f, f}
}

func (v lane4) mulAdd(x, w lane4) lane4 {
	for i := range v {
		v[i] += x[i] * w[i]
	}
	return v
}

func (v lane4) mul(o lane4) lane4 {
	for i := range v {
		v[i] *= o[i]
	}
	return v
}

func (v lane4) sub(o lane4) lane4 {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

func (v lane4) store(dst []float32) {
	copy(dst[:4], v[:])
}

type lane8 [8]float32

func (lane8) width() int { return 8 }

func (lane8) load(src []float32) lane8 {
	var v lane8
	copy(v[:], src[:8])
	return v
}

func (lane8) splat(f float32) lane8 {
	return lane8{f, f, f, f, f, f, f, f}
}

func (v lane8) mulAdd(x, w lane8) lane8 {
	for i := range v {
		v[i] += x[i] * w[i]
	}
	return v
}

func (v lane8) mul(o lane8) lane8 {
	for i := range v {
		v[i] *= o[i]
	}
	return v
}

func (v lane8) sub(o lane8) lane8 {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

func (v lane8) store(dst []float32) {
	copy(dst[:8], v[:])
}
