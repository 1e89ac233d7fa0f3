package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 2023-05-02 03:00 at UTC+7 is still 2023-05-01 in UTC.
	at := time.Date(2023, 5, 2, 3, 0, 0, 0, loc)

	require.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), Day(at))
	require.Equal(t, time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC), NextDay(at))

	end := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), NextDay(end))
}
