package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Константы затенения
const (
	depthPerBlock  = 0.022
	depthMinFactor = 0.55
	depthMaxFactor = 0.96

	hillshadeStrength  = 0.6
	hillshadeMinFactor = 0.55
	hillshadeMaxFactor = 1.45

	microStep      = 0.06
	microStepMin   = 0.8
	microStepMax   = 1.2
	contourMajor   = 0.86
	contourMinor   = 0.93
	canopyStep     = 0.015
	subtleDither   = 0.012
	normalMinLen   = 1e-5
	normalUpWeight = 2.0
)

// lightDir направление на свет: с северо-запада сверху
var lightDir = mgl64.Vec3{-0.6, 0.8, -0.6}.Normalize()

// DepthFactor множитель затемнения воды глубины depth.
// Глубина 0 (или сила 0) не меняет цвет.
func DepthFactor(depth int, strength float64) float64 {
	if depth <= 0 || strength <= 0 {
		return 1
	}
	return clamp(1-float64(depth)*depthPerBlock*strength, depthMinFactor, depthMaxFactor)
}

// ApplyDepthDarkening затемняет цвет воды по глубине
func ApplyDepthDarkening(rgb, depth int, strength float64) int {
	f := DepthFactor(depth, strength)
	if f == 1 {
		return rgb
	}
	return Mul(rgb, f)
}

// SurfaceNormal нормаль по центральным разностям высот
func SurfaceNormal(dx, dz float64) mgl64.Vec3 {
	n := mgl64.Vec3{-dx, normalUpWeight, -dz}
	l := math.Max(n.Len(), normalMinLen)
	return n.Mul(1 / l)
}

// HillshadeFactor множитель освещения склона:
// clamp(1 + (dot(n, L) - L.y) * 0.6 * exaggeration, 0.55, 1.45).
// Освещённость считается относительно ровной поверхности (n = (0,1,0) даёт
// dot = L.y), поэтому плоский рельеф даёт ровно 1.
func HillshadeFactor(normal mgl64.Vec3, exaggeration float64) float64 {
	dot := normal.Dot(lightDir) - lightDir.Y()
	return clamp(1+dot*hillshadeStrength*exaggeration, hillshadeMinFactor, hillshadeMaxFactor)
}

// MicroStepFactor резкие подсказки ступеней по северному и западному соседу
func MicroStepFactor(dyNorth, dyWest int) float64 {
	f := 1.0
	for _, dy := range [2]int{dyNorth, dyWest} {
		switch {
		case dy > 0:
			f += microStep
		case dy < 0:
			f -= microStep
		}
	}
	return clamp(f, microStepMin, microStepMax)
}

// ApplyContour рисует изолинии каждые step блоков относительно уровня моря
func ApplyContour(rgb, height, sea, step int) int {
	if step <= 0 {
		return rgb
	}
	switch floorMod(height-sea, step) {
	case 0:
		return Mul(rgb, contourMajor)
	case 1:
		return Mul(rgb, contourMinor)
	default:
		return rgb
	}
}

// CanopyFactor детерминированная вариация яркости кроны (±4.5% при strength=1)
func CanopyFactor(worldX, worldZ int, strength float64) float64 {
	h := canopyHash(int32(worldX)*734287 + int32(worldZ)*912931)
	return 1 + float64((h&7)-3)*canopyStep*strength
}

// SubtleFactor микро-дизеринг пикселей кроны и воды против полос
func SubtleFactor(px, pz int) float64 {
	return 1 + float64((px+pz)%3-1)*subtleDither
}

// canopyHash xorshift над 32-битным значением
func canopyHash(x int32) int32 {
	x ^= x << 13
	x ^= int32(uint32(x) >> 17)
	x ^= x << 5
	return x
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
