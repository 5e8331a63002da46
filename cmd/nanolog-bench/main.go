// Command nanolog-bench measures call-site latency for the nanolog hot
// path: it fires bursts of two-argument log calls with a configurable burst
// size, burst count and gap between bursts, times each call, then reports
// min/p50/p90/p99/p99.9/max latency across the run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"sort"
	"syscall"
	"time"

	"github.com/ehrlich-b/nanolog"
)

func main() {
	var (
		burstSize   = flag.Int("burst", 1000, "Number of log calls per burst")
		burstCount  = flag.Int("bursts", 100, "Number of bursts to run")
		burstGapMs  = flag.Int("gap-ms", 10, "Milliseconds to sleep between bursts")
		queueBlocks = flag.Uint("queue-blocks", 1<<16, "Per-producer ring capacity in blocks")
		consumerCPU = flag.Int("consumer-cpu", -1, "Pin the consumer goroutine to this CPU (-1 disables pinning)")
		verbose     = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	opts := nanolog.DefaultOptions()
	opts.QueueBlocks = uint32(*queueBlocks)
	opts.ConsumerCPU = *consumerCPU
	opts.Output = os.Stdout
	if *verbose {
		opts.Level = nanolog.LevelTrace
	}

	logger, err := nanolog.New(opts)
	if err != nil {
		log.Fatalf("failed to start nanolog: %v", err)
	}
	defer logger.Close()

	site := nanolog.NewSite2[int64, float64]("bench iter={} elapsed_ns={}")
	producer := logger.Attach()
	defer producer.Detach()

	fmt.Printf("running %d bursts of %d calls (queue=%d blocks, consumer-cpu=%d)\n",
		*burstCount, *burstSize, *queueBlocks, *consumerCPU)

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			filename := fmt.Sprintf("nanolog-bench-stacks-%d.txt", time.Now().Unix())
			if f, err := os.Create(filename); err == nil {
				f.Write(buf[:n])
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
				fmt.Fprintf(os.Stderr, "stack dump written to %s\n", filename)
			}
		}
	}()

	latenciesNs := make([]int64, 0, *burstSize**burstCount)
	for b := 0; b < *burstCount; b++ {
		for i := 0; i < *burstSize; i++ {
			start := time.Now()
			site.Log(producer, nanolog.LevelInfo, int64(i), float64(i)*1.5)
			latenciesNs = append(latenciesNs, time.Since(start).Nanoseconds())
		}
		if *burstGapMs > 0 {
			time.Sleep(time.Duration(*burstGapMs) * time.Millisecond)
		}
	}

	// Give the consumer a chance to drain and flush before reporting.
	time.Sleep(50 * time.Millisecond)

	reportLatencies(latenciesNs)

	snap := logger.MetricsSnapshot()
	fmt.Printf("\nmetrics: emitted=%d dropped=%d flush_ops=%d flush_bytes=%d\n",
		snap.EmittedOps, snap.DroppedOps, snap.FlushOps, snap.FlushBytes)
}

func reportLatencies(ns []int64) {
	if len(ns) == 0 {
		fmt.Println("no samples captured")
		return
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })

	pct := func(p float64) int64 {
		idx := int(p * float64(len(ns)-1))
		return ns[idx]
	}

	fmt.Printf("\ncall-site latency (ns), n=%d:\n", len(ns))
	fmt.Printf("  min    %8d\n", ns[0])
	fmt.Printf("  p50    %8d\n", pct(0.50))
	fmt.Printf("  p90    %8d\n", pct(0.90))
	fmt.Printf("  p99    %8d\n", pct(0.99))
	fmt.Printf("  p99.9  %8d\n", pct(0.999))
	fmt.Printf("  max    %8d\n", ns[len(ns)-1])
}
