// Command portal-loadtest measures the Redis session backend under
// concurrent restore and sign-in traffic from many simulated devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/miniapp-agency/portal/session"
)

type device struct {
	store *session.Store
	email string
	mu    sync.Mutex
}

func main() {
	var (
		devices     = flag.Int("devices", 10000, "number of devices to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (restore + sign-in)")
		redisURL    = flag.String("redis-url", "", "redis url; if empty, PORTAL_REDIS_URL env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "session key prefix")
	)
	flag.Parse()

	if *devices <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "devices, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *redisURL
	if url == "" {
		url = os.Getenv("PORTAL_REDIS_URL")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		opts, err := redis.ParseURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad redis url: %v\n", err)
			os.Exit(2)
		}
		client = redis.NewClient(opts)
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", opts.Addr)
	}
	defer cleanup()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	states := make([]device, *devices)
	fmt.Printf("seeding %d devices...\n", *devices)
	startSeed := time.Now()
	for i := range states {
		storage := session.NewRedisStorage(client, fmt.Sprintf("%s:%d", *prefix, i), 24*time.Hour)
		states[i] = device{store: session.NewStore(storage, logger), email: fmt.Sprintf("user%d@example.com", i)}
		if err := states[i].store.Save(ctx, uuid.NewString(), profileFor(i, states[i].email)); err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restoreStats := runPhase(states, *ops, *concurrency, 7919, func(d *device) error {
		if d.store.ReadToken(ctx) == "" {
			return fmt.Errorf("token missing for %s", d.email)
		}
		if d.store.ReadProfile(ctx) == nil {
			return fmt.Errorf("profile missing for %s", d.email)
		}
		return nil
	})
	signInStats := runPhase(states, *ops, *concurrency, 6151, func(d *device) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.store.Clear(ctx); err != nil {
			return err
		}
		return d.store.Save(ctx, uuid.NewString(), profileFor(0, d.email))
	})

	fmt.Println("---- results ----")
	printStats("restore", restoreStats)
	printStats("sign-in", signInStats)
}

func runPhase(states []device, ops, concurrency int, seed int64, op func(*device) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				d := &states[r.Intn(len(states))]
				t0 := time.Now()
				err := op(d)
				elapsed := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func profileFor(i int, email string) *session.UserProfile {
	return &session.UserProfile{ID: session.UserID(strconv.Itoa(i + 1)), Email: email, Name: "Load Test"}
}
