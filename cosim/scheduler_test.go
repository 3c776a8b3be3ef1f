package cosim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Scheduler", func() {
	var sched *Scheduler

	ginkgo.BeforeEach(func() {
		sched = NewScheduler()
	})

	ginkgo.It("should fire a task when its trigger cycle arrives", func() {
		fired := 0
		sched.Register(func() int64 {
			fired++
			return 10
		}, 0)

		sched.RunDue(0)
		Expect(fired).To(Equal(1))

		sched.RunDue(5)
		Expect(fired).To(Equal(1))

		sched.RunDue(10)
		Expect(fired).To(Equal(2))
	})

	ginkgo.It("should reschedule with the delay the task returns", func() {
		fired := 0
		sched.Register(func() int64 {
			fired++
			return 100
		}, 0)

		sched.RunDue(0)
		sched.RunDue(50)
		sched.RunDue(99)
		Expect(fired).To(Equal(1))

		sched.RunDue(100)
		Expect(fired).To(Equal(2))
	})

	ginkgo.It("should disable a task that returns a non-positive delay", func() {
		fired := 0
		sched.Register(func() int64 {
			fired++
			return 0
		}, 0)

		sched.RunDue(0)
		sched.RunDue(1000)
		sched.RunDue(1000000)

		Expect(fired).To(Equal(1))
	})

	ginkgo.It("should keep a statically disabled task silent", func() {
		fired := 0
		sched.Register(func() int64 {
			fired++
			return 1
		}, -1)

		sched.RunDue(0)
		sched.RunDue(1000)

		Expect(fired).To(Equal(0))
		Expect(sched.NumTasks()).To(Equal(1))
	})

	ginkgo.It("should run every due task once per invocation", func() {
		firstFired := 0
		secondFired := 0
		sched.Register(func() int64 { firstFired++; return 10 }, 0)
		sched.Register(func() int64 { secondFired++; return 20 }, 0)

		sched.RunDue(0)
		sched.RunDue(10)
		sched.RunDue(20)

		Expect(firstFired).To(Equal(3))
		Expect(secondFired).To(Equal(2))
	})
})
