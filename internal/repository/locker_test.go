package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"peakpt/workout-app/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDateLocker_SerializesSameKey(t *testing.T) {
	locker := NewDateLocker()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("2024-09-05")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locker.size())
}

func TestDateLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewDateLocker()
	unlockA := locker.Lock("2024-09-05")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("2024-09-06")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different date blocked")
	}
	assert.Equal(t, 1, locker.size())
}

func TestPlanWrite(t *testing.T) {
	now := time.Date(2024, 9, 5, 10, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)

	assert.Equal(t, WriteNone, PlanWrite("2024-09-05", nil, nil, now))
	assert.Equal(t, WriteNone, PlanWrite("2024-09-05", nil, domain.NewWorkout("2024-09-05", ""), now))

	current := &domain.Workout{Date: "2024-09-05", Version: 3, CreatedAt: created}
	assert.Equal(t, WriteDelete, PlanWrite("2024-09-05", current, nil, now))

	next := domain.NewWorkout("ignored", "")
	next.FindOrAddExercise("Row")
	assert.Equal(t, WriteInsert, PlanWrite("2024-09-05", nil, next, now))
	assert.Equal(t, "2024-09-05", next.Date)
	assert.Equal(t, int64(1), next.Version)
	assert.Equal(t, now, next.CreatedAt)

	assert.Equal(t, WriteReplace, PlanWrite("2024-09-05", current, next, now))
	assert.Equal(t, int64(4), next.Version)
	assert.Equal(t, created, next.CreatedAt)
	assert.Equal(t, now, next.UpdatedAt)
}
