package catalog

import (
	"encoding/json"
	"errors"
)

// Item is one listing entry, kept as the backend sent it. The engine
// decodes nothing but the metadata it needs for identity and
// registration state.
type Item json.RawMessage

// ItemMeta is the slice of an item the engine understands.
type ItemMeta struct {
	ID           string `json:"id"`
	IsRegistered bool   `json:"isRegistered"`
}

var errEmptyItem = errors.New("catalog: empty item")

// Meta decodes the item's id and registration flag.
func (it Item) Meta() (ItemMeta, error) {
	if len(it) == 0 {
		return ItemMeta{}, errEmptyItem
	}
	var meta ItemMeta
	if err := json.Unmarshal(it, &meta); err != nil {
		return ItemMeta{}, err
	}
	return meta, nil
}

// MarshalJSON emits the raw payload unchanged.
func (it Item) MarshalJSON() ([]byte, error) {
	if len(it) == 0 {
		return []byte("null"), nil
	}
	return it, nil
}

// UnmarshalJSON stores the raw payload unchanged.
func (it *Item) UnmarshalJSON(data []byte) error {
	if it == nil {
		return errors.New("catalog: UnmarshalJSON on nil Item")
	}
	*it = append((*it)[:0], data...)
	return nil
}
