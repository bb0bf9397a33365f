package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы событий карты
const (
	EventChunkLoad      = "ChunkLoad"
	EventChunkUnload    = "ChunkUnload"
	EventPlayerMove     = "PlayerMove"
	EventTileInvalidate = "TileInvalidate"
)

// Приоритеты: сигналы чанков нельзя терять, позицию игрока: можно
const (
	PriorityChunkSignal = 7
	PriorityPlayerMove  = 1
)

// ChunkSignal полезная нагрузка ChunkLoad / ChunkUnload
type ChunkSignal struct {
	X     int    `json:"x"`
	Z     int    `json:"z"`
	World string `json:"world"`
}

// PlayerPosition полезная нагрузка PlayerMove
type PlayerPosition struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	World string `json:"world"`
}

// NewEnvelope сериализует payload в JSON и оборачивает его в Envelope
func NewEnvelope(eventType, source string, priority int, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// DecodePayload десериализует полезную нагрузку события
func DecodePayload(ev *Envelope, v any) error {
	if ev == nil {
		return fmt.Errorf("nil envelope")
	}
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.EventType, err)
	}
	return nil
}
