package block

// TintSource предоставляет блокам биомные цвета мира.
// Все значения: 24-битный RGB без альфа-канала.
type TintSource interface {
	// GrassColor возвращает цвет травы биома в колонке (x, z).
	GrassColor(x, z int) int

	// FoliageColor возвращает цвет листвы биома в колонке (x, z).
	FoliageColor(x, z int) int

	// WaterColor возвращает цвет воды биома в колонке (x, z).
	WaterColor(x, z int) int
}
