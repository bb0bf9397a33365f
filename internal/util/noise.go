package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума по умолчанию
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав
)

// Noise генератор шума Перлина, привязанный к сиду.
// Безопасен для параллельного чтения: go-perlin не изменяет состояние после создания.
type Noise struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise создаёт генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:   seed,
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// PerlinNoise2D возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (n *Noise) PerlinNoise2D(x, y float64) float64 {
	// Получаем значение шума (примерно от -1 до 1)
	v := n.perlin.Noise2D(x, y)

	// Преобразуем в диапазон от 0 до 1
	v = (v + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Fractal2D складывает несколько масштабов шума: каждая следующая октава
// вдвое чаще и слабее в persistence раз. Результат нормирован в [0, 1].
func (n *Noise) Fractal2D(x, y float64, octaves int, persistence float64) float64 {
	if octaves <= 1 {
		return n.PerlinNoise2D(x, y)
	}

	var sum, norm float64
	amp, freq := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += n.PerlinNoise2D(x*freq, y*freq) * amp
		norm += amp
		amp *= persistence
		freq *= 2
	}
	return sum / norm
}
