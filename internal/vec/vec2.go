package vec

import "math"

// Vec2 представляет 2D координаты: колонку мира (X, Z) или координаты тайла.
// Поле Y хранит мировую ось Z: карта смотрит на мир сверху.
type Vec2 struct {
	X, Y int
}

// ToChunkCoords преобразует координаты колонки в координаты чанка (тайла)
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> 4, Y: v.Y >> 4} // Деление на 16 с округлением вниз
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & 0xF, Y: v.Y & 0xF} // Модуль 16
}

// ChunkStart возвращает мировые координаты северо-западной колонки чанка
func (v Vec2) ChunkStart() Vec2 {
	return Vec2{X: v.X << 4, Y: v.Y << 4}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// ManhattanTo возвращает манхэттенское расстояние до другой точки
func (v Vec2) ManhattanTo(other Vec2) int {
	return absInt(v.X-other.X) + absInt(v.Y-other.Y)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
