package world

// BiomeType представляет тип биома
type BiomeType uint8

const (
	BiomeOcean BiomeType = iota
	BiomeBeach
	BiomePlains
	BiomeForest
	BiomeDesert
	BiomeMountains
	BiomeSnowyPeaks
	BiomeSwamp
)

// Biome цвета биома для тонирования блоков
type Biome struct {
	Name         string
	GrassColor   int
	FoliageColor int
	WaterColor   int
}

var biomes = map[BiomeType]Biome{
	BiomeOcean:      {Name: "ocean", GrassColor: 0x8EB971, FoliageColor: 0x71A74D, WaterColor: 0x3F76E4},
	BiomeBeach:      {Name: "beach", GrassColor: 0x91BD59, FoliageColor: 0x77AB2F, WaterColor: 0x3F76E4},
	BiomePlains:     {Name: "plains", GrassColor: 0x91BD59, FoliageColor: 0x77AB2F, WaterColor: 0x3F76E4},
	BiomeForest:     {Name: "forest", GrassColor: 0x79C05A, FoliageColor: 0x59AE30, WaterColor: 0x3F76E4},
	BiomeDesert:     {Name: "desert", GrassColor: 0xBFB755, FoliageColor: 0xAEA42A, WaterColor: 0x3F76E4},
	BiomeMountains:  {Name: "mountains", GrassColor: 0x8AB689, FoliageColor: 0x6DA36B, WaterColor: 0x3F76E4},
	BiomeSnowyPeaks: {Name: "snowy_peaks", GrassColor: 0x80B497, FoliageColor: 0x60A17B, WaterColor: 0x3D57D6},
	BiomeSwamp:      {Name: "swamp", GrassColor: 0x6A7039, FoliageColor: 0x6A7039, WaterColor: 0x617B64},
}

// Info возвращает параметры биома; неизвестный тип трактуется как равнины
func (b BiomeType) Info() Biome {
	if info, ok := biomes[b]; ok {
		return info
	}
	return biomes[BiomePlains]
}

// String возвращает имя биома
func (b BiomeType) String() string {
	return b.Info().Name
}
