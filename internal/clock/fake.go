package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a virtual clock. Callbacks run synchronously inside Advance, in
// deadline order, so tests observe every tick without sleeping.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	tasks  map[int]*fakeTask
}

type fakeTask struct {
	id     int
	next   time.Time
	period time.Duration // zero for one-shot tasks
	fn     func()
}

// NewFake returns a virtual clock starting at a fixed instant
func NewFake() *Fake {
	return &Fake{
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		tasks: make(map[int]*fakeTask),
	}
}

// Now returns the virtual time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Every registers a periodic task
func (f *Fake) Every(period time.Duration, fn func()) func() {
	return f.add(period, period, fn)
}

// AfterFunc registers a one-shot task
func (f *Fake) AfterFunc(d time.Duration, fn func()) func() {
	return f.add(d, 0, fn)
}

func (f *Fake) add(d, period time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.tasks[id] = &fakeTask{id: id, next: f.now.Add(d), period: period, fn: fn}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.tasks, id)
	}
}

// Pending returns the number of scheduled tasks
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// Advance moves the clock forward by d, firing every callback that falls due
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		task := f.earliestDue(target)
		if task == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = task.next
		if task.period > 0 {
			task.next = task.next.Add(task.period)
		} else {
			delete(f.tasks, task.id)
		}
		fn := task.fn
		f.mu.Unlock()

		fn()
	}
}

// earliestDue returns the task with the earliest deadline not after target.
// Ties fire in registration order. Caller holds f.mu.
func (f *Fake) earliestDue(target time.Time) *fakeTask {
	due := make([]*fakeTask, 0, len(f.tasks))
	for _, t := range f.tasks {
		if !t.next.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}
