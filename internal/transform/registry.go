package transform

import (
	"fmt"
	"sync"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

var (
	registry   = make(map[string]Operation)
	order      []string
	registryMu sync.RWMutex
)

// Register adds an operation to the registry.
// Panics if the id is empty, Apply is nil, or the id is already registered.
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if op.ID == "" || op.Apply == nil {
		panic("transform: operation needs an id and an Apply func")
	}
	if _, exists := registry[op.ID]; exists {
		panic(fmt.Sprintf("operation already registered: %s", op.ID))
	}
	if op.Label == "" {
		op.Label = op.ID
	}

	registry[op.ID] = op
	order = append(order, op.ID)
}

// Get returns an operation by id.
// Returns false if not found.
func Get(id string) (Operation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, ok := registry[id]
	return op, ok
}

// All returns every registered operation in registration order.
func All() []Operation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Operation, 0, len(order))
	for _, id := range order {
		result = append(result, registry[id])
	}
	return result
}

// IDs returns the registered operation ids in registration order.
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]string(nil), order...)
}

// Count returns the number of registered operations.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Run looks up id and applies it to ds.
func Run(id string, ds dataset.Dataset) (Outcome, error) {
	op, ok := Get(id)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	return op.Apply(ds), nil
}
