package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testRank string

type testLevel int

var (
	testRankGold = New(testRank("Gold"))
	testLevelTen = New(testLevel(10))
)

func TestToEnum(t *testing.T) {
	rank, err := ToEnum[testRank]("Gold")
	require.NoError(t, err)
	require.Equal(t, testRankGold, rank)

	level, err := ToEnum[testLevel]("10")
	require.NoError(t, err)
	require.Equal(t, testLevelTen, level)

	testCases := []struct {
		name string
		fn   func() error
	}{
		{
			name: "case sensitive",
			fn:   func() error { _, err := ToEnum[testRank]("gold"); return err },
		},
		{
			name: "unregistered member",
			fn:   func() error { _, err := ToEnum[testLevel]("11"); return err },
		},
		{
			name: "unregistered type",
			fn:   func() error { _, err := ToEnum[struct{ X int }]("{1}"); return err },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.fn())
		})
	}
}
