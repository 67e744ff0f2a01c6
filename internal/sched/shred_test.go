package sched_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vshred/internal/sched"
)

var _ = Describe("Shred", func() {
	var steps []int

	BeforeEach(func() {
		steps = nil
	})

	It("should not run before it is resumed", func() {
		sh := sched.NewShred("idle", func(context.Context) error {
			steps = append(steps, 1)
			return nil
		})

		Expect(sh.State()).To(Equal(sched.StateReady))
		Expect(sh.Running()).To(BeTrue())
		Expect(steps).To(BeEmpty())
	})

	It("should finish when the body returns", func() {
		sh := sched.NewShred("once", func(context.Context) error {
			steps = append(steps, 1)
			return nil
		})

		sh.Resume()

		Expect(steps).To(Equal([]int{1}))
		Expect(sh.State()).To(Equal(sched.StateFinished))
		Expect(sh.Finished()).To(BeTrue())
		Expect(sh.Err()).NotTo(HaveOccurred())
	})

	It("should continue where it suspended, keeping its locals", func() {
		sh := sched.NewShred("steps", func(ctx context.Context) error {
			me := sched.FromContext(ctx)
			n := 0
			for i := 0; i < 3; i++ {
				n += 10
				steps = append(steps, n)
				if i < 2 {
					me.Suspend()
				}
			}
			return nil
		})

		sh.Resume()
		Expect(steps).To(Equal([]int{10}))
		Expect(sh.State()).To(Equal(sched.StateSuspended))

		sh.Resume()
		Expect(steps).To(Equal([]int{10, 20}))

		sh.Resume()
		Expect(steps).To(Equal([]int{10, 20, 30}))
		Expect(sh.Finished()).To(BeTrue())

		sh.Resume()
		Expect(steps).To(Equal([]int{10, 20, 30}))
	})

	It("should ignore suspend calls from outside its body", func() {
		sh := sched.NewShred("outsider", nil)

		Expect(sh.Suspend()).To(BeFalse())
		Expect(sh.State()).To(Equal(sched.StateReady))
	})

	It("should be in its body only while it runs", func() {
		var inside bool
		sh := sched.NewShred("current", func(ctx context.Context) error {
			inside = sched.FromContext(ctx).InBody()
			return nil
		})

		sh.Resume()

		Expect(inside).To(BeTrue())
		Expect(sh.InBody()).To(BeFalse())
	})

	It("should hand control back to the outer shred after a nested resume", func() {
		var seen []bool
		inner := sched.NewShred("inner", func(ctx context.Context) error {
			seen = append(seen, sched.FromContext(ctx).InBody())
			sched.FromContext(ctx).Suspend()
			return nil
		})
		outer := sched.NewShred("outer", func(ctx context.Context) error {
			inner.Resume()
			seen = append(seen, inner.InBody(), sched.FromContext(ctx).InBody())
			return nil
		})

		outer.Resume()

		Expect(seen).To(Equal([]bool{true, false, true}))
		Expect(outer.Finished()).To(BeTrue())
		Expect(inner.State()).To(Equal(sched.StateSuspended))

		inner.Kill()
	})

	It("should unwind a parked body before Kill returns", func() {
		unwound := false
		sh := sched.NewShred("parked", func(ctx context.Context) error {
			defer func() { unwound = true }()
			sched.FromContext(ctx).Suspend()
			steps = append(steps, 1)
			return nil
		})

		sh.Resume()
		sh.Kill()

		Expect(unwound).To(BeTrue())
		Expect(sh.State()).To(Equal(sched.StateKilled))
		Expect(sh.Finished()).To(BeTrue())

		sh.Resume()
		Expect(steps).To(BeEmpty())
	})

	It("should run the deferred calls of a killed body one at a time with the killer", func() {
		shared := 0
		sh := sched.NewShred("parked", func(ctx context.Context) error {
			defer func() { shared++ }()
			sched.FromContext(ctx).Suspend()
			return nil
		})
		sh.Resume()

		sh.Kill()
		shared++

		Expect(shared).To(Equal(2))
	})

	It("should keep shreds on different goroutines independent", func() {
		const workers, turns = 4, 2000
		done := make(chan int, workers)
		for w := 0; w < workers; w++ {
			go func() {
				count := 0
				sh := sched.NewShred("worker", func(ctx context.Context) error {
					me := sched.FromContext(ctx)
					for i := 0; i < turns; i++ {
						count++
						if !me.Suspend() {
							return errors.New("suspend refused")
						}
					}
					return nil
				})
				for sh.Running() {
					sh.Resume()
				}
				if sh.Err() != nil {
					count = -1
				}
				done <- count
			}()
		}

		for w := 0; w < workers; w++ {
			Expect(<-done).To(Equal(turns))
		}
	})

	It("should never start a killed ready shred", func() {
		sh := sched.NewShred("stillborn", func(context.Context) error {
			steps = append(steps, 1)
			return nil
		})

		sh.Kill()
		sh.Resume()

		Expect(steps).To(BeEmpty())
		Expect(sh.Killed()).To(BeTrue())
	})

	It("should keep running after killing itself until it returns", func() {
		sh := sched.NewShred("self", func(ctx context.Context) error {
			me := sched.FromContext(ctx)
			me.Kill()
			steps = append(steps, 1)
			return nil
		})

		sh.Resume()

		Expect(steps).To(Equal([]int{1}))
		Expect(sh.State()).To(Equal(sched.StateKilled))
	})

	It("should hand control back when a killed shred suspends", func() {
		sh := sched.NewShred("self-suspend", func(ctx context.Context) error {
			me := sched.FromContext(ctx)
			me.Kill()
			me.Suspend()
			steps = append(steps, 1)
			return nil
		})

		sh.Resume()

		Expect(steps).To(BeEmpty())
		Expect(sh.Killed()).To(BeTrue())
	})

	It("should record a returned error as a failure", func() {
		boom := errors.New("boom")
		sh := sched.NewShred("failing", func(context.Context) error {
			return boom
		})

		sh.Resume()

		Expect(sh.State()).To(Equal(sched.StateFinished))
		Expect(sh.Err()).To(MatchError(boom))
	})

	It("should recover a panicking body", func() {
		sh := sched.NewShred("panicking", func(context.Context) error {
			panic("kaboom")
		})

		sh.Resume()

		Expect(sh.State()).To(Equal(sched.StateFinished))
		var p *sched.ShredPanic
		Expect(errors.As(sh.Err(), &p)).To(BeTrue())
		Expect(p.Value).To(Equal("kaboom"))
		Expect(p.Stack).NotTo(BeEmpty())
		Expect(sh.InBody()).To(BeFalse())
	})
})
