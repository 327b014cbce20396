package pyfer

import (
	"context"
	"testing"

	tassert "github.com/stretchr/testify/assert"
)

func TestSchedulerDeduplicates(t *testing.T) {
	sched := NewScheduler(0)
	u := &FunctionUnit{}
	sched.Enqueue(u)
	sched.Enqueue(u)
	tassert.Equal(t, 1, sched.Pending())
	sched.Enqueue(nil)
	tassert.Equal(t, 1, sched.Pending())
}

func TestSchedulerStopsOnCancelledContext(t *testing.T) {
	src := `def f():
    return 1
`
	tt := NewTest(src)
	sched := tt.state.Scheduler()
	sched.Enqueue(tt.state.UnitByName("f"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tassert.Error(t, sched.Run(ctx))
}

func TestSchedulerHonorsPassCeiling(t *testing.T) {
	sched := NewScheduler(5)
	tassert.NoError(t, sched.Run(context.Background()))
	tassert.Zero(t, sched.Passes())
}
