package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"mio-messenger/observability"
)

// RuntimeStatsWorker periodically logs process health (RSS, CPU) together
// with the pipeline counters. It is observation only and never touches the
// message path.
type RuntimeStatsWorker struct {
	log      *slog.Logger
	counters *observability.Counters
	interval time.Duration
}

func NewRuntimeStatsWorker(log *slog.Logger, counters *observability.Counters,
	interval time.Duration) *RuntimeStatsWorker {
	return &RuntimeStatsWorker{log: log, counters: counters, interval: interval}
}

func (w *RuntimeStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rssMb := uint64(0)
			if mem, err := p.MemoryInfo(); err == nil {
				rssMb = mem.RSS / 1024 / 1024
			}
			cpu, _ := p.CPUPercent()

			w.log.Info("Runtime stats",
				"rss_mb", rssMb,
				"cpu_percent", cpu,
				"appended", w.counters.Appended.Load(),
				"published", w.counters.Published.Load(),
				"delivered", w.counters.Delivered.Load(),
				"dropped", w.counters.Dropped.Load(),
				"append_failures", w.counters.AppendFailures.Load())
		}
	}
}
