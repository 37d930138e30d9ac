// Command misauth-loadtest measures session store throughput under
// concurrent restore and save traffic. Each simulated console gets its
// own key prefix, modelling many operator sessions sharing one Redis.
//
// Run against miniredis (default) or a real Redis via -redis-addr or
// REDIS_ADDR.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talha-007/mis-dashboard-sub000/policy"
	"github.com/talha-007/mis-dashboard-sub000/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		consoles    = flag.Int("consoles", 10000, "number of console sessions to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (restore + save)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		ttl         = flag.Duration("ttl", 24*time.Hour, "session entry TTL")
	)
	flag.Parse()

	if *consoles <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "consoles, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	var client *redis.Client
	if addr == "" {
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
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	stores := make([]session.Store, *consoles)
	fmt.Printf("seeding %d console sessions...\n", *consoles)
	startSeed := time.Now()
	for i := 0; i < *consoles; i++ {
		stores[i] = session.NewRedisStore(client, fmt.Sprintf("misauth:lt:%d:", i), *ttl)
		rec := session.Record{
			Token:     fmt.Sprintf("token-%d", i),
			Principal: principalFor(i),
		}
		if err := stores[i].Save(ctx, rec); err != nil {
			fmt.Fprintf(os.Stderr, "seed save failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restoreStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		rec, err := stores[r.Intn(len(stores))].Load(ctx)
		if err == nil && rec.Empty() {
			err = fmt.Errorf("seeded session missing")
		}
		return err
	})
	saveStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		idx := r.Intn(len(stores))
		return stores[idx].Save(ctx, session.Record{
			Token:     fmt.Sprintf("token-%d-%d", idx, i),
			Principal: principalFor(idx),
		})
	})

	fmt.Println("---- results ----")
	printStats("restore", restoreStats)
	printStats("save", saveStats)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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

func principalFor(i int) *policy.Principal {
	role := policy.RoleBankAdmin
	if i%3 == 0 {
		role = policy.RoleCustomer
	}
	return &policy.Principal{
		ID:           fmt.Sprintf("principal-%d", i),
		Role:         role,
		Permissions:  policy.NewPermissionSet("loans.view"),
		Subscription: policy.SubscriptionActive,
	}
}
