package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// gimbalEpsilon is how close |sin(y)| may get to 1 before the X/Z split is ambiguous.
const gimbalEpsilon = 1e-6

// RotationMatrix builds Rz * Ry * Rx from Euler angles in radians.
// X is applied first.
func RotationMatrix(r Vec3) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(r.Z).
		Mul4(mgl32.HomogRotate3DY(r.Y)).
		Mul4(mgl32.HomogRotate3DX(r.X))
}

// Compose returns the transform translating by t after rotating by r (radians).
func Compose(t, r Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t.X, t.Y, t.Z).Mul4(RotationMatrix(r))
}

// Decompose splits a rigid transform into translation and Euler angles
// (radians) using the same Rz * Ry * Rx convention as Compose.
func Decompose(m mgl32.Mat4) (t, r Vec3) {
	t = Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}

	sy := -float64(m.At(2, 0))
	switch {
	case sy >= 1-gimbalEpsilon:
		r.Y = math.Pi / 2
		r.X = float32(math.Atan2(-float64(m.At(1, 2)), float64(m.At(1, 1))))
	case sy <= -1+gimbalEpsilon:
		r.Y = -math.Pi / 2
		r.X = float32(math.Atan2(-float64(m.At(1, 2)), float64(m.At(1, 1))))
	default:
		r.Y = float32(math.Asin(sy))
		r.X = float32(math.Atan2(float64(m.At(2, 1)), float64(m.At(2, 2))))
		r.Z = float32(math.Atan2(float64(m.At(1, 0)), float64(m.At(0, 0))))
	}
	return t, r
}

// isRoot reports whether joint j has no parent. Roots either point at
// themselves or carry a negative or out of range parent index.
func isRoot(parents []int, j int) bool {
	p := parents[j]
	return p < 0 || p == j || p >= len(parents)
}

// LocalToWorld converts parent-relative joint transforms into world space.
// Rotations are Euler angles in radians on both sides.
func LocalToWorld(parents []int, translations, rotations []Vec3) (worldT, worldR []Vec3) {
	n := len(parents)
	matrices := worldMatrices(parents, translations, rotations)
	worldT = make([]Vec3, n)
	worldR = make([]Vec3, n)
	for j := range matrices {
		worldT[j], worldR[j] = Decompose(matrices[j])
	}
	return worldT, worldR
}

// WorldToLocal converts world-space joint transforms back into parent-relative
// space: local = inverse(parentWorld) * world.
func WorldToLocal(parents []int, translations, rotations []Vec3) (localT, localR []Vec3) {
	n := len(parents)
	localT = make([]Vec3, n)
	localR = make([]Vec3, n)
	world := make([]mgl32.Mat4, n)
	for j := 0; j < n; j++ {
		world[j] = Compose(translations[j], rotations[j])
	}
	for j := 0; j < n; j++ {
		if isRoot(parents, j) {
			localT[j], localR[j] = translations[j], rotations[j]
			continue
		}
		local := world[parents[j]].Inv().Mul4(world[j])
		localT[j], localR[j] = Decompose(local)
	}
	return localT, localR
}

// worldMatrices resolves the hierarchy without assuming parents precede children.
func worldMatrices(parents []int, translations, rotations []Vec3) []mgl32.Mat4 {
	n := len(parents)
	world := make([]mgl32.Mat4, n)
	done := make([]bool, n)
	visiting := make([]bool, n)

	var resolve func(j int) mgl32.Mat4
	resolve = func(j int) mgl32.Mat4 {
		if done[j] {
			return world[j]
		}
		local := Compose(translations[j], rotations[j])
		// Cycles are treated as roots.
		if isRoot(parents, j) || visiting[j] {
			world[j] = local
		} else {
			visiting[j] = true
			world[j] = resolve(parents[j]).Mul4(local)
			visiting[j] = false
		}
		done[j] = true
		return world[j]
	}

	for j := 0; j < n; j++ {
		resolve(j)
	}
	return world
}
