// Command wfaclient-loadtest exercises the client SDK against the
// in-process fake backend: a fleet of concurrent clients logs in,
// browses the academy catalog with random filters and pages, and then
// restores its sessions from Redis-backed token storage.
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

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	wfaclient "github.com/wfa-platform/wfaclient"
	"github.com/wfa-platform/wfaclient/session"
	"github.com/wfa-platform/wfaclient/wfatest"
)

type config struct {
	Clients   int    `yaml:"clients"`
	Ops       int    `yaml:"ops"`
	Academies int    `yaml:"academies"`
	Programs  int    `yaml:"programs"`
	RedisAddr string `yaml:"redisAddr"`
	Prefix    string `yaml:"prefix"`
}

func defaultLoadConfig() config {
	return config{
		Clients:   32,
		Ops:       5000,
		Academies: 200,
		Programs:  400,
		Prefix:    "wfa-load",
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "yaml config file; flags override it")
		clients    = flag.Int("clients", 0, "number of concurrent clients")
		ops        = flag.Int("ops", 0, "catalog fetches in the browse phase")
		redisAddr  = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	cfg := defaultLoadConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read config: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
			os.Exit(1)
		}
	}
	if *clients > 0 {
		cfg.Clients = *clients
	}
	if *ops > 0 {
		cfg.Ops = *ops
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Clients <= 0 || cfg.Ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	rdb, cleanup, err := dialRedis(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	backend := wfatest.NewServer()
	defer backend.Close()
	seedBackend(backend, cfg)

	fleet := make([]*wfaclient.Client, cfg.Clients)
	storages := make([]session.Storage, cfg.Clients)
	for i := range fleet {
		storages[i] = session.NewRedisStorage(rdb, fmt.Sprintf("%s:%d", cfg.Prefix, i), 24*time.Hour)
		fleet[i] = buildClient(backend.URL(), storages[i])
	}
	defer func() {
		for _, c := range fleet {
			c.Close()
		}
	}()

	loginStats := runLoginPhase(ctx, fleet)
	browseStats := runBrowsePhase(ctx, fleet, cfg.Ops)
	restoreStats := runRestorePhase(ctx, backend.URL(), storages)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("browse", browseStats)
	printStats("restore", restoreStats)
}

func dialRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() { _ = client.Close(); mr.Close() }, nil
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func seedBackend(backend *wfatest.Server, cfg config) {
	cities := []string{"Beirut", "Tripoli", "Saida", "Zahle", "Jounieh"}
	types := []string{"Academy", "Camp", "Clinic"}
	ageGroups := []string{"U9", "U11", "U13", "U15", "U17"}

	for i := 0; i < cfg.Clients; i++ {
		backend.SeedUser(fmt.Sprintf("load-%d@example.com", i), "load-password", "CLIENT", "Load", fmt.Sprintf("Client%d", i))
	}
	for i := 0; i < cfg.Academies; i++ {
		backend.SeedAcademy(wfaclient.Academy{
			Name:        fmt.Sprintf("Academy %04d", i),
			City:        cities[i%len(cities)],
			CountryCode: "LB",
		})
	}
	for i := 0; i < cfg.Programs; i++ {
		backend.SeedProgram(wfaclient.Program{
			Title:        fmt.Sprintf("Program %04d", i),
			Type:         types[i%len(types)],
			City:         cities[i%len(cities)],
			AgeGroupCode: ageGroups[i%len(ageGroups)],
			StartDate:    fmt.Sprintf("2026-%02d-01", i%12+1),
		})
	}
}

func buildClient(baseURL string, storage session.Storage) *wfaclient.Client {
	client, err := wfaclient.New().
		WithBaseURL(baseURL).
		WithTokenStorage(storage).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	return client
}

func runLoginPhase(ctx context.Context, fleet []*wfaclient.Client) phaseStats {
	var (
		wg        sync.WaitGroup
		failures  int64
		latencies = make([]time.Duration, len(fleet))
	)

	start := time.Now()
	for i, client := range fleet {
		wg.Add(1)
		go func(i int, client *wfaclient.Client) {
			defer wg.Done()
			t0 := time.Now()
			err := client.Login(ctx, fmt.Sprintf("load-%d@example.com", i), "load-password")
			latencies[i] = time.Since(t0)
			if err != nil {
				atomic.AddInt64(&failures, 1)
			}
		}(i, client)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runBrowsePhase(ctx context.Context, fleet []*wfaclient.Client, ops int) phaseStats {
	cities := []string{"", "Beirut", "Tripoli", "Saida", "Zahle", "Jounieh"}
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w, client := range fleet {
		wg.Add(1)
		go func(worker int, client *wfaclient.Client) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				params := wfaclient.AcademyListParams{
					City: cities[r.Intn(len(cities))],
					Page: r.Intn(10) + 1,
				}
				t0 := time.Now()
				_, err := client.ListAcademies(ctx, params)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w, client)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runRestorePhase(ctx context.Context, baseURL string, storages []session.Storage) phaseStats {
	var (
		wg        sync.WaitGroup
		failures  int64
		latencies = make([]time.Duration, len(storages))
	)

	start := time.Now()
	for i, storage := range storages {
		wg.Add(1)
		go func(i int, storage session.Storage) {
			defer wg.Done()
			client := buildClient(baseURL, storage)
			defer client.Close()

			t0 := time.Now()
			err := client.RestoreSession(ctx)
			latencies[i] = time.Since(t0)
			if err != nil || client.Session().State() != session.StateLoggedIn {
				atomic.AddInt64(&failures, 1)
			}
		}(i, storage)
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
