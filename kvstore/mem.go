package kvstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// Mem is an in-memory Store used by tests. It is not safe to share a
// single instance's iterator across concurrent writers, mirroring the
// single-writer discipline the real bbolt-backed store is normally
// operated under.
type Mem struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMem returns an empty in-memory Store.
func NewMem() *Mem {
	return &Mem{data: make(map[string][]byte)}
}

func (m *Mem) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Mem) Put(_ context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *Mem) Delete(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *Mem) Batch(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			delete(m.data, string(op.Key))
			continue
		}
		m.data[string(op.Key)] = append([]byte(nil), op.Value...)
	}
	return nil
}

func (m *Mem) IterPrefix(_ context.Context, prefix []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]KV, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, KV{Key: []byte(k), Value: append([]byte(nil), m.data[k]...)})
	}

	return &memIterator{pairs: pairs, index: -1}, nil
}

func (m *Mem) Close() error { return nil }

type memIterator struct {
	pairs []KV
	index int
}

func (it *memIterator) Next() bool {
	it.index++
	return it.index < len(it.pairs)
}

func (it *memIterator) Key() []byte   { return it.pairs[it.index].Key }
func (it *memIterator) Value() []byte { return it.pairs[it.index].Value }
func (it *memIterator) Err() error    { return nil }
func (it *memIterator) Close() error  { return nil }
