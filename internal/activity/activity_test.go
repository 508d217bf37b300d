package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := New(func() time.Time { return now })

	assert.Equal(t, now, tr.Last().UTC())
	assert.Equal(t, 10*time.Minute, tr.Idle(now.Add(10*time.Minute)))

	now = now.Add(time.Hour)
	tr.Touch()
	assert.Zero(t, tr.Idle(now))
}

func TestTracker_Streams(t *testing.T) {
	tr := New(nil)

	tr.Open()
	tr.Open()
	assert.EqualValues(t, 2, tr.Streams())

	tr.Close()
	tr.Close()
	tr.Close()
	assert.EqualValues(t, 0, tr.Streams())
}
