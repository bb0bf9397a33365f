package block

// MapColor базовый цвет блока на карте (RGB). ColorClear: «нет цвета».
type MapColor uint32

// Цвета из классической палитры карт
const (
	ColorClear  MapColor = 0x000000
	ColorGrass  MapColor = 0x7FB238
	ColorSand   MapColor = 0xF7E9A3
	ColorStone  MapColor = 0x707070
	ColorWater  MapColor = 0x4040FF
	ColorPlant  MapColor = 0x007C00
	ColorSnow   MapColor = 0xFFFFFF
	ColorDirt   MapColor = 0x976D4D
	ColorWood   MapColor = 0x8F7748
	ColorIce    MapColor = 0xA0A0FF
	ColorClay   MapColor = 0xA4A8B8
	ColorPodzol MapColor = 0x815631
)

// Яркостные множители палитры: 0: тень, 1: склон, 2: ровно, 3: глубокая тень
var brightnessMultipliers = [4]int{180, 220, 255, 135}

// Render возвращает цвет с применённой яркостью палитры (0..3)
func (c MapColor) Render(brightness int) int {
	if brightness < 0 || brightness > 3 {
		brightness = 2
	}
	m := brightnessMultipliers[brightness]
	r := int(c>>16&0xFF) * m / 255
	g := int(c>>8&0xFF) * m / 255
	b := int(c&0xFF) * m / 255
	return r<<16 | g<<8 | b
}
