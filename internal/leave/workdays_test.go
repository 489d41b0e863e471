package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDays(t *testing.T) {
	t.Run("full week counts five", func(t *testing.T) {
		// Mon 2026-03-02 .. Sun 2026-03-08
		assert.Equal(t, 5, WorkingDays(date(2026, 3, 2), date(2026, 3, 8)))
	})

	t.Run("single weekday counts one", func(t *testing.T) {
		assert.Equal(t, 1, WorkingDays(date(2026, 3, 4), date(2026, 3, 4)))
	})

	t.Run("weekend only counts zero", func(t *testing.T) {
		// Sat 2026-03-07 .. Sun 2026-03-08
		assert.Equal(t, 0, WorkingDays(date(2026, 3, 7), date(2026, 3, 8)))
	})

	t.Run("range spanning two weekends", func(t *testing.T) {
		// Fri 2026-03-06 .. Mon 2026-03-16
		assert.Equal(t, 7, WorkingDays(date(2026, 3, 6), date(2026, 3, 16)))
	})

	t.Run("inverted range counts zero", func(t *testing.T) {
		assert.Equal(t, 0, WorkingDays(date(2026, 3, 8), date(2026, 3, 2)))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		start := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
		end := time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC)
		assert.Equal(t, 2, WorkingDays(start, end))
	})
}
