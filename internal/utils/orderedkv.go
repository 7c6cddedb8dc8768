package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a JSON object that remembers the position of each key.
// Unmarshalling assigns Order by appearance; marshalling replays it.
type OrderedKVMap[T any] map[string]OrderedKV[T]

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	type pair struct {
		key   string
		value T
		order int64
	}
	pairs := make([]pair, 0, len(om))
	for k, v := range om {
		pairs = append(pairs, pair{
			key:   k,
			value: v.Value,
			order: v.Order,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].order < pairs[j].order
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (om *OrderedKVMap[T]) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	result := make(OrderedKVMap[T])
	order := int64(0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value T
		if err := dec.Decode(&value); err != nil {
			return err
		}

		result[key] = OrderedKV[T]{Value: value, Order: order}
		order++
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*om = result
	return nil
}

// Get returns the value stored under key.
func (om OrderedKVMap[T]) Get(key string) (T, bool) {
	kv, ok := om[key]
	return kv.Value, ok
}

// Set appends key after the current last position, or replaces it in place.
func (om OrderedKVMap[T]) Set(key string, value T) {
	if existing, ok := om[key]; ok {
		om[key] = OrderedKV[T]{Value: value, Order: existing.Order}
		return
	}
	max := int64(-1)
	for _, v := range om {
		if v.Order > max {
			max = v.Order
		}
	}
	om[key] = OrderedKV[T]{Value: value, Order: max + 1}
}

// Entry is one key/value pair in original order.
type Entry[T any] struct {
	Key   string
	Value T
}

// Entries returns the pairs sorted by their original position.
func (om OrderedKVMap[T]) Entries() []Entry[T] {
	keys := make([]string, 0, len(om))
	for k := range om {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return om[keys[i]].Order < om[keys[j]].Order
	})

	entries := make([]Entry[T], 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry[T]{Key: k, Value: om[k].Value})
	}
	return entries
}
