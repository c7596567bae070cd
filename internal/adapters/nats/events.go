package natsadapter

import (
	"encoding/json"
	"fmt"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// DecodeItemsCleared parses a pokemap.items.cleared payload.
func DecodeItemsCleared(data []byte) (*domain.ItemsCleared, error) {
	var ev domain.ItemsCleared
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Origin == "" {
		return nil, fmt.Errorf("%w: cleared event without origin", domain.ErrInvalidArgument)
	}
	return &ev, nil
}

// DecodeItemPlaced parses a pokemap.items.placed payload.
func DecodeItemPlaced(data []byte) (*domain.MapItem, error) {
	var item domain.MapItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	if err := item.Coordinate.ValidateRange(); err != nil {
		return nil, err
	}
	return &item, nil
}
