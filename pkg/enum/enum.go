package enum

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	mu          sync.RWMutex
	enumManager = map[reflect.Type]map[string]any{}
)

// New registers value as a member of its type and returns it. Values are
// looked up later by their string form.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)

	mu.Lock()
	defer mu.Unlock()

	if _, ok := enumManager[t]; !ok {
		enumManager[t] = map[string]any{}
	}

	enumManager[t][fmt.Sprint(value)] = value
	return value
}

// ToEnum returns the registered member of T whose string form is s. The
// match is case sensitive.
func ToEnum[T comparable](s string) (T, error) {
	var defaultT T

	mu.RLock()
	defer mu.RUnlock()

	members, ok := enumManager[reflect.TypeOf(defaultT)]
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	v, ok := members[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return v.(T), nil
}
