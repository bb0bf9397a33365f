package render

// FallbackColor цвет колонки, для которой не удалось определить материал
const FallbackColor = 0x888888

// Mul умножает каждый канал на f, результат зажимается в [0, 255]
func Mul(rgb int, f float64) int {
	r := clampChannel(int(float64(rgb>>16&0xFF) * f))
	g := clampChannel(int(float64(rgb>>8&0xFF) * f))
	b := clampChannel(int(float64(rgb&0xFF) * f))
	return r<<16 | g<<8 | b
}

// AdjustSV отодвигает цвет от серого на sat и масштабирует яркость на val
func AdjustSV(rgb int, sat, val float64) int {
	r := float64(rgb>>16&0xFF) / 255
	g := float64(rgb>>8&0xFF) / 255
	b := float64(rgb&0xFF) / 255
	gray := (r + g + b) / 3

	r = clampUnit((gray + (r-gray)*sat) * val)
	g = clampUnit((gray + (g-gray)*sat) * val)
	b = clampUnit((gray + (b-gray)*sat) * val)

	return int(r*255)<<16 | int(g*255)<<8 | int(b*255)
}

// ColorAt возвращает цвет в колонке (x, z)
type ColorAt func(x, z int) int

// AverageColor усредняет fn по окну (2r+1)². При r <= 0: значение в самой точке.
func AverageColor(x, z, r int, fn ColorAt) int {
	if r <= 0 {
		return fn(x, z)
	}

	var rs, gs, bs, n int
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			c := fn(x+dx, z+dz)
			rs += c >> 16 & 0xFF
			gs += c >> 8 & 0xFF
			bs += c & 0xFF
			n++
		}
	}
	return (rs/n)<<16 | (gs/n)<<8 | bs/n
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
