package testutil

import (
	"sync"

	"github.com/questx-lab/reputation/pkg/idutil"
)

var (
	idGenerator     *idutil.Generator
	idGeneratorOnce sync.Once
)

// MockIDGenerator returns the generator shared by every test of the process.
// Two generators of the same node could hand out the same id.
func MockIDGenerator() *idutil.Generator {
	idGeneratorOnce.Do(func() {
		g, err := idutil.NewGenerator(1)
		if err != nil {
			panic(err)
		}

		idGenerator = g
	})

	return idGenerator
}
