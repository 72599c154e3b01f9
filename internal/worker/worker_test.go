package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linkage/internal/constraint"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
	"github.com/san-kum/linkage/internal/worker"
	"gonum.org/v1/gonum/spatial/r2"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(name scenario.Name) *engine.Engine {
	eng := engine.New(1.0/120, engine.WithLogger(quiet))
	Expect(scenario.Build(eng, name)).To(Succeed())
	return eng
}

var _ = Describe("Worker", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	It("publishes one snapshot per tick", func() {
		w := worker.Start(ctx, newEngine(scenario.Simple), nil,
			worker.WithInterval(time.Millisecond), worker.WithLogger(quiet))
		defer w.Stop()

		var first, second engine.Snapshot
		Eventually(w.Snapshots()).Should(Receive(&first))
		Eventually(w.Snapshots()).Should(Receive(&second))
		Expect(second.Tick).To(BeNumerically(">", first.Tick))
		Expect(first.Scenario).To(Equal("simple"))
	})

	It("applies only the last of several queued commands", func() {
		cmds := make(chan worker.Command, 3)
		cmds <- worker.Command{Scenario: scenario.Simple, Variant: engine.FirstOrder}
		cmds <- worker.Command{Scenario: scenario.Rope, Variant: engine.PBD}
		cmds <- worker.Command{Scenario: scenario.Double, Variant: engine.HybridV2}

		w := worker.Start(ctx, newEngine(scenario.Bridge), cmds,
			worker.WithInterval(0), worker.WithMaxTicks(1), worker.WithLogger(quiet))
		Expect(w.Stop()).To(Succeed())

		snap, ok := worker.LatestSnapshot(w.Snapshots())
		Expect(ok).To(BeTrue())
		Expect(snap.Scenario).To(Equal("double"))
		Expect(snap.Variant).To(Equal("hybrid_v2"))
		Expect(snap.Positions).To(HaveLen(2))
		Expect(snap.Tick).To(Equal(0))
		Expect(cmds).To(BeEmpty())
	})

	It("rebuilds scenes through a custom builder", func() {
		cmds := make(chan worker.Command, 1)
		cmds <- worker.Command{Scenario: scenario.Simple, Variant: engine.HybridV3}

		var built []scenario.Name
		builder := func(eng *engine.Engine, name scenario.Name) error {
			built = append(built, name)
			if err := scenario.Build(eng, name); err != nil {
				return err
			}
			eng.SetGravity(r2.Vec{})
			return nil
		}

		eng := newEngine(scenario.Double)
		w := worker.Start(ctx, eng, cmds,
			worker.WithInterval(0), worker.WithMaxTicks(1), worker.WithBuilder(builder), worker.WithLogger(quiet))
		Expect(w.Stop()).To(Succeed())

		Expect(built).To(Equal([]scenario.Name{scenario.Simple}))
		Expect(eng.Gravity()).To(Equal(r2.Vec{}))
	})

	It("drops the oldest snapshots when the consumer falls behind", func() {
		w := worker.Start(ctx, newEngine(scenario.Triple), nil,
			worker.WithInterval(0), worker.WithBuffer(2), worker.WithMaxTicks(10), worker.WithLogger(quiet))
		Eventually(w.Done()).Should(BeClosed())
		Expect(w.Err()).NotTo(HaveOccurred())

		Expect(w.Dropped()).To(BeEquivalentTo(8))
		snap, ok := worker.LatestSnapshot(w.Snapshots())
		Expect(ok).To(BeTrue())
		Expect(snap.Tick).To(Equal(9))
	})

	It("stops and joins on request", func() {
		w := worker.Start(ctx, newEngine(scenario.Rope), nil,
			worker.WithInterval(time.Millisecond), worker.WithLogger(quiet))
		Eventually(w.Snapshots()).Should(Receive())

		Expect(w.Stop()).To(Succeed())
		Expect(w.Done()).To(BeClosed())
		Expect(w.Stop()).To(Succeed())
	})

	It("stops cleanly when the context is cancelled", func() {
		w := worker.Start(ctx, newEngine(scenario.Pulley), nil,
			worker.WithInterval(time.Millisecond), worker.WithLogger(quiet))
		cancel()

		Eventually(w.Done()).Should(BeClosed())
		Expect(w.Err()).NotTo(HaveOccurred())
	})

	It("reports a closed command channel as a disconnect", func() {
		cmds := make(chan worker.Command)
		close(cmds)

		w := worker.Start(ctx, newEngine(scenario.Simple), cmds, worker.WithLogger(quiet))
		Eventually(w.Done()).Should(BeClosed())
		Expect(w.Err()).To(MatchError(worker.ErrDisconnected))
		Expect(w.Stop()).To(MatchError(worker.ErrDisconnected))
	})

	It("aborts with a tick error when the solve fails", func() {
		eng := engine.New(1.0/120, engine.WithLogger(quiet))
		h := eng.AddBody(r2.Vec{X: 1}, r2.Vec{}, 1)
		eng.AddConstraint(constraint.Anchor(h, r2.Vec{}, 1))
		eng.AddConstraint(constraint.Anchor(h, r2.Vec{}, 1))

		w := worker.Start(ctx, eng, nil, worker.WithLogger(quiet))
		Eventually(w.Done()).Should(BeClosed())

		var tickErr *engine.TickError
		Expect(errors.As(w.Err(), &tickErr)).To(BeTrue())
		Expect(w.Err()).To(MatchError(engine.ErrSingular))
		Expect(tickErr.Tick).To(Equal(0))
	})
})

var _ = Describe("LatestSnapshot", func() {
	It("reports nothing on an empty channel", func() {
		ch := make(chan engine.Snapshot, 1)
		_, ok := worker.LatestSnapshot(ch)
		Expect(ok).To(BeFalse())
	})

	It("keeps only the newest value", func() {
		ch := make(chan engine.Snapshot, 3)
		for i := 0; i < 3; i++ {
			ch <- engine.Snapshot{Tick: i}
		}
		snap, ok := worker.LatestSnapshot(ch)
		Expect(ok).To(BeTrue())
		Expect(snap.Tick).To(Equal(2))
		Expect(ch).To(BeEmpty())
	})
})
