package accumulator

import (
	"github.com/mitchellh/mapstructure"
)

type commitMetadata struct {
	LinesChanged int64 `mapstructure:"linesChanged"`
}

type prMergedMetadata struct {
	IsLargeFeature bool `mapstructure:"isLargeFeature"`
}

// decodeMetadata fills out from metadata with weak typing ("12" is 12, 1 is
// true). A value that cannot be converted leaves out at its zero value, a
// malformed payload is treated as an absent one.
func decodeMetadata[T any](metadata map[string]any) T {
	var out T
	if len(metadata) == 0 {
		return out
	}

	if err := mapstructure.WeakDecode(metadata, &out); err != nil {
		var zero T
		return zero
	}

	return out
}
