package agent

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sensenode-go/bus"
	"sensenode-go/errcode"
	"sensenode-go/services/sensor"
	"sensenode-go/types"
	"sensenode-go/x/timex"
)

var _ = Describe("Scheduler", func() {
	var (
		ambient  *scriptAmbient
		motion   *sensor.SimPin
		surface  *recordingSurface
		link     *fakeLink
		uploader *recordingUploader
		rec      *countingRecorder
		mono     *timex.ManualMono
		b        *bus.Bus
		sched    *Scheduler
	)

	// tick runs one scheduler tick and advances the clock by the tick period.
	tick := func() {
		sched.Tick(context.Background())
		mono.Advance(DefaultTick)
	}

	BeforeEach(func() {
		ambient = &scriptAmbient{steps: []measurement{{t: 22.5, h: 41.0}}}
		motion = &sensor.SimPin{}
		surface = &recordingSurface{}
		link = &fakeLink{available: true}
		uploader = &recordingUploader{}
		rec = &countingRecorder{}
		mono = &timex.ManualMono{}
		b = bus.NewBus(4)
	})

	JustBeforeEach(func() {
		var err error
		sched, err = New(Config{DeviceID: "esp32_01", RunID: "run-1"}, Deps{
			Sensor:   sensor.NewReader(ambient, motion, nil, sensor.Options{}),
			Surface:  surface,
			Link:     link,
			Uploader: uploader,
			Mono:     mono,
			Conn:     b.NewConnection("agent"),
			Recorder: rec,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	When("the first tick samples with the clock unsynced", func() {
		It("renders a status view with the time placeholder", func() {
			tick()

			Expect(surface.views).To(HaveLen(1))
			v := surface.last()
			Expect(v.Kind).To(Equal(types.ViewStatus))
			Expect(*v.Temperature).To(Equal(22.5))
			Expect(*v.Humidity).To(Equal(41.0))
			Expect(v.Motion).To(BeFalse())
			Expect(v.TimeSynced).To(BeFalse())
		})

		It("uploads the reading with an empty timestamp", func() {
			tick()

			Expect(uploader.sent).To(HaveLen(1))
			r := uploader.sent[0]
			Expect(r.DeviceID).To(Equal("esp32_01"))
			Expect(r.ClockSynced).To(BeFalse())
			Expect(r.Fallback).To(BeFalse())
		})
	})

	When("the sensor faults after a good sample", func() {
		BeforeEach(func() {
			ambient.steps = []measurement{{t: 22.5, h: 41.0}, {err: errCRC}}
		})

		It("uses the previous values tagged as fallback", func() {
			tick()
			tick()

			Expect(uploader.sent).To(HaveLen(2))
			r := uploader.sent[1]
			Expect(r.Temperature).To(Equal(22.5))
			Expect(r.Humidity).To(Equal(41.0))
			Expect(r.Fallback).To(BeTrue())
		})
	})

	When("no valid sample ever existed", func() {
		BeforeEach(func() {
			ambient.steps = []measurement{{err: errCRC}}
			motion.Set(true)
		})

		It("renders error placeholders and suppresses the upload", func() {
			tick()

			v := surface.last()
			Expect(v.Kind).To(Equal(types.ViewStatus))
			Expect(v.Temperature).To(BeNil())
			Expect(v.Humidity).To(BeNil())
			Expect(v.Motion).To(BeTrue())
			Expect(uploader.sent).To(BeEmpty())
			Expect(link.ensures).To(BeEmpty())
			Expect(rec.samples).To(Equal(1))
			Expect(rec.uploads).To(BeZero())
		})
	})

	When("connectivity is unavailable at an upload mark", func() {
		BeforeEach(func() {
			link.available = false
			ambient.steps = []measurement{{t: 20.0, h: 50.0}, {t: 21.0, h: 52.0}}
		})

		It("skips the upload and sends the then-current reading once restored", func() {
			tick()
			Expect(uploader.sent).To(BeEmpty())
			Expect(link.ensures).To(Equal([]int{DefaultAttempts}))
			Expect(errcode.Of(rec.uploadErrs[0])).To(Equal(errcode.NotConnected))

			link.available = true
			tick()
			Expect(uploader.sent).To(HaveLen(1))
			Expect(uploader.sent[0].Temperature).To(Equal(21.0))
		})
	})

	When("the upload is rejected", func() {
		BeforeEach(func() {
			uploader.err = &errcode.E{C: errcode.Rejected, Status: 400}
		})

		It("records the failure and keeps ticking", func() {
			tick()
			tick()
			Expect(uploader.sent).To(HaveLen(2))
			Expect(rec.ticks).To(Equal(2))
			Expect(sched.Ticks()).To(Equal(uint64(2)))
		})
	})

	It("alternates status and idle views on a ten second tick", func() {
		tick()
		tick()
		tick()
		kinds := []types.ViewKind{surface.views[0].Kind, surface.views[1].Kind, surface.views[2].Kind}
		Expect(kinds).To(Equal([]types.ViewKind{types.ViewStatus, types.ViewIdle, types.ViewStatus}))
	})

	It("publishes the retained agent state", func() {
		link.synced = true
		link.tod = time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)
		tick()

		msg, ok := b.Retained(StateTopic)
		Expect(ok).To(BeTrue())
		st, ok := msg.Payload.(types.AgentState)
		Expect(ok).To(BeTrue())
		Expect(st.RunID).To(Equal("run-1"))
		Expect(st.Ticks).To(Equal(uint64(1)))
		Expect(st.HasReading).To(BeTrue())
		Expect(st.Timestamp).To(Equal("08:30:00"))
		Expect(st.LastUpload).To(Equal("ok"))
		Expect(st.Link).To(Equal("connected"))
	})

	Describe("Run", func() {
		It("boots, ticks and stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			var sleeps []time.Duration
			s, err := New(Config{DeviceID: "d", BootAttempts: 20, Attempts: 5}, Deps{
				Sensor:   sensor.NewReader(ambient, nil, nil, sensor.Options{}),
				Surface:  surface,
				Link:     link,
				Uploader: uploader,
				Mono:     mono,
				Sleep: func(ctx context.Context, d time.Duration) error {
					sleeps = append(sleeps, d)
					mono.Advance(d)
					if len(sleeps) == 3 {
						cancel()
					}
					return ctx.Err()
				},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Run(ctx)).To(MatchError(context.Canceled))
			Expect(link.ensures[0]).To(Equal(20))
			Expect(link.syncs).To(Equal(1))
			Expect(s.Ticks()).To(Equal(uint64(3)))
			Expect(sleeps).To(HaveEach(DefaultTick))
			Expect(uploader.sent).To(HaveLen(3))
		})

		It("skips clock sync when boot association fails", func() {
			link.available = false
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(sched.Run(ctx)).To(MatchError(context.Canceled))
			Expect(link.syncs).To(BeZero())
		})
	})

	It("rejects missing dependencies", func() {
		_, err := New(Config{}, Deps{})
		Expect(errcode.Of(err)).To(Equal(errcode.Fatal))
	})
})
