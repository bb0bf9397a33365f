package vec

import "math"

// Vec3 представляет позицию блока в мире (Y: вертикальная ось)
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет позицию наблюдателя с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Column возвращает колонку (X, Z), в которой находится блок
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// Chunk возвращает координаты чанка, содержащего блок
func (v Vec3) Chunk() Vec2 {
	return v.Column().ToChunkCoords()
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// BlockPos возвращает позицию блока, в котором находится точка
func (v Vec3Float) BlockPos() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}
