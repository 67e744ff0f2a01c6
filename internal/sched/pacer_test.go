package sched_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"vshred/internal/sched"
	"vshred/internal/sched/mock_sched"
)

var _ = Describe("RealTimePacer", func() {
	var (
		mockCtrl *gomock.Controller
		wall     *mock_sched.MockWallClock
		pacer    *sched.RealTimePacer
		clock    *sched.TimeQueue
		ctx      context.Context
		t0       time.Time
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		wall = mock_sched.NewMockWallClock(mockCtrl)
		pacer = sched.NewRealTimePacer(22050, wall)
		clock = sched.NewTimeQueue()
		ctx = context.Background()
		t0 = time.Unix(1000, 0)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should wait for the wall-clock instant of the target time", func() {
		wall.EXPECT().Now().Return(t0)
		gomock.InOrder(
			wall.EXPECT().SleepUntil(ctx, t0.Add(time.Second)).Return(nil),
			wall.EXPECT().SleepUntil(ctx, t0.Add(1500*time.Millisecond)).Return(nil),
		)

		Expect(pacer.Advance(ctx, clock, 22050)).To(Succeed())
		Expect(clock.Now()).To(Equal(sched.VTime(22050)))

		Expect(pacer.Advance(ctx, clock, 11025)).To(Succeed())
		Expect(clock.Now()).To(Equal(sched.VTime(33075)))
	})

	It("should leave the clock alone when the wait is cancelled", func() {
		wall.EXPECT().Now().Return(t0)
		wall.EXPECT().SleepUntil(ctx, gomock.Any()).Return(context.Canceled)

		err := pacer.Advance(ctx, clock, 100)

		Expect(err).To(MatchError(context.Canceled))
		Expect(clock.Now()).To(Equal(sched.VTime(0)))
	})

	It("should anchor at the virtual time of the first advance", func() {
		Expect(clock.FastForward(44100)).To(Succeed())
		wall.EXPECT().Now().Return(t0)
		wall.EXPECT().SleepUntil(ctx, t0.Add(time.Second)).Return(nil)

		Expect(pacer.Advance(ctx, clock, 22050)).To(Succeed())
	})

	It("should re-anchor after a reset", func() {
		t1 := t0.Add(time.Hour)
		gomock.InOrder(
			wall.EXPECT().Now().Return(t0),
			wall.EXPECT().SleepUntil(ctx, t0.Add(time.Second)).Return(nil),
			wall.EXPECT().Now().Return(t1),
			wall.EXPECT().SleepUntil(ctx, t1.Add(time.Second)).Return(nil),
		)

		Expect(pacer.Advance(ctx, clock, 22050)).To(Succeed())
		pacer.Reset()
		Expect(pacer.Advance(ctx, clock, 22050)).To(Succeed())
	})

	It("should reject negative deltas without waiting", func() {
		Expect(pacer.Advance(ctx, clock, -1)).To(MatchError(sched.ErrTimeReversal))
	})

	It("should pace a scheduler run", func() {
		s := sched.New(sched.WithPacer(pacer))
		DeferCleanup(s.Close)
		s.Spork("beat", func(ctx context.Context) error {
			s.Yield(ctx, 22050)
			s.Yield(ctx, 22050)
			return nil
		})
		wall.EXPECT().Now().Return(t0)
		gomock.InOrder(
			wall.EXPECT().SleepUntil(gomock.Any(), t0.Add(time.Second)).Return(nil),
			wall.EXPECT().SleepUntil(gomock.Any(), t0.Add(2*time.Second)).Return(nil),
		)

		Expect(s.Run(ctx)).To(Succeed())

		Expect(s.Now()).To(Equal(sched.VTime(44100)))
	})
})

var _ = Describe("VirtualPacer", func() {
	It("should fast-forward immediately", func() {
		clock := sched.NewTimeQueue()

		Expect(sched.VirtualPacer{}.Advance(context.Background(), clock, 9)).To(Succeed())

		Expect(clock.Now()).To(Equal(sched.VTime(9)))
	})
})

var _ = Describe("SystemClock", func() {
	It("should not block for instants in the past", func() {
		c := sched.NewSystemClock()

		Expect(c.SleepUntil(context.Background(), time.Now().Add(-time.Second))).To(Succeed())
		Expect(c.Waits()).To(Equal(int64(0)))
	})

	It("should block until the instant arrives", func() {
		c := sched.NewSystemClock()
		target := time.Now().Add(20 * time.Millisecond)

		Expect(c.SleepUntil(context.Background(), target)).To(Succeed())

		Expect(time.Now()).NotTo(BeTemporally("<", target))
		Expect(c.Waits()).To(Equal(int64(1)))
	})

	It("should give up when the context is done", func() {
		c := sched.NewSystemClock()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.SleepUntil(ctx, time.Now().Add(time.Hour))

		Expect(err).To(MatchError(context.Canceled))
	})
})
