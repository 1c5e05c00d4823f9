// Command lrubench runs a synthetic workload against the cache and exposes
// optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/lru/cache"
	pmet "github.com/IvanBrykalov/lru/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards   = flag.Int("shards", 1, "number of shards (1 = exact global LRU, -1 = auto)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		values   = flag.Int("values", 4, "distinct values per key (1 = every rewrite is a no-op)")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr; empty = disabled")
		debug       = flag.Bool("debug", false, "log every eviction")
	)
	flag.Parse()

	logger := &log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: false, EndWithMessage: true},
	}
	if *debug {
		logger.Level = log.DebugLevel
	}

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			logger.Info().Str("addr", *pprofAddr).Msg("pprof: serving")
			logger.Error().Err(http.ListenAndServe(*pprofAddr, nil)).Msg("pprof: stopped")
		}()
	}

	// ---- Build cache ----
	opt := cache.SharedOptions[string, string]{
		Options: cache.Options[string, string]{
			Capacity: *capacity,
			Logger:   logger,
		},
		Shards: *shards,
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	if *metricsAddr != "" {
		opt.Metrics = pmet.New(nil, "lru", "bench", nil)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info().Str("addr", *metricsAddr).Msg("metrics: serving")
			logger.Error().Err(http.ListenAndServe(*metricsAddr, nil)).Msg("metrics: stopped")
		}()
	}

	c, err := cache.NewShared[string, string](opt)
	if err != nil {
		logger.Error().Err(err).Msg("invalid cache options")
		os.Exit(2)
	}

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		_ = c.Put(k, "v0")
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	valuesN := *values
	if valuesN < 1 {
		valuesN = 1
	}
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	logger.Info().
		Int("cap", *capacity).
		Int("shards", c.Shards()).
		Int("workers", workersN).
		Int("keys", *keys).
		Dur("duration", *duration).
		Int64("seed", seedBase).
		Msg("starting workload")

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					_ = c.Put(keyByZipf(), "v"+strconv.Itoa(localR.Intn(valuesN)))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	hitsN := atomic.LoadUint64(&hits)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	logger.Info().
		Uint64("ops", ops).
		Float64("ops_per_sec", float64(ops)/elapsed.Seconds()).
		Uint64("reads", readsN).
		Uint64("writes", atomic.LoadUint64(&writes)).
		Uint64("hits", hitsN).
		Uint64("misses", atomic.LoadUint64(&misses)).
		Float64("hit_rate_pct", hitRate).
		Int("len", c.Len()).
		Dur("elapsed", elapsed).
		Msg("workload done")
}
