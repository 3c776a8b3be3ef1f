package cosim

// A Scheduler runs registered tasks periodically on the modeled-cycle axis.
// The driver invokes it once per outer loop iteration; every task whose
// trigger cycle has arrived runs, and its return value becomes the new delay
// until the next firing. A delay of zero or less disables the task.
type Scheduler struct {
	tasks []*scheduledTask
}

type scheduledTask struct {
	run      func() int64
	nextFire uint64
	disabled bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register adds a task that first fires firstDelay cycles from now. A
// negative firstDelay registers the task statically disabled, for intervals
// configured as "never".
func (s *Scheduler) Register(run func() int64, firstDelay int64) {
	t := &scheduledTask{run: run}

	if firstDelay < 0 {
		t.disabled = true
	} else {
		t.nextFire = uint64(firstDelay)
	}

	s.tasks = append(s.tasks, t)
}

// RunDue invokes every task whose trigger cycle has arrived.
func (s *Scheduler) RunDue(cycle uint64) {
	for _, t := range s.tasks {
		if t.disabled || t.nextFire > cycle {
			continue
		}

		delay := t.run()
		if delay <= 0 {
			t.disabled = true
			continue
		}

		t.nextFire = cycle + uint64(delay)
	}
}

// NumTasks returns the number of registered tasks, disabled ones included.
func (s *Scheduler) NumTasks() int {
	return len(s.tasks)
}
