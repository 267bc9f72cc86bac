package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	randv2 "math/rand/v2"
	"net/http"
	"os/signal"
	"slices"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/metailurini/skipdict"
	"github.com/metailurini/skipdict/skipdictprom"
)

var seedFlag = &cli.Uint64Flag{
	Name:    "seed",
	Usage:   "seed for key generation and node levels",
	Value:   1,
	EnvVars: []string{"SKIPDICT_SEED"},
}

var countFlag = &cli.IntFlag{
	Name:    "n",
	Usage:   "number of distinct keys",
	Value:   10000,
	EnvVars: []string{"SKIPDICT_N"},
}

var poolFlag = &cli.BoolFlag{
	Name:    "pool",
	Usage:   "recycle nodes through a sync.Pool",
	EnvVars: []string{"SKIPDICT_POOL"},
}

var cmdDemo = &cli.Command{
	Name:  "demo",
	Usage: "run a short insert/overwrite/remove/pop session",
	Action: func(cctx *cli.Context) error {
		return runDemo(cctx.App.Writer)
	},
}

func runDemo(w io.Writer) error {
	m, err := skipdict.New[int64, string](nil)
	if err != nil {
		return err
	}
	defer m.Close()

	for _, kv := range []struct {
		k int64
		v string
	}{{123, "foo"}, {456, "bar"}, {123, "baz"}} {
		prev, replaced, err := m.Insert(kv.k, kv.v)
		if err != nil {
			return err
		}
		if replaced {
			fmt.Fprintf(w, "insert(%d, %q) replaced %q\n", kv.k, kv.v, prev)
		} else {
			fmt.Fprintf(w, "insert(%d, %q)\n", kv.k, kv.v)
		}
	}
	fmt.Fprintf(w, "map: %s\n", m)

	if v, ok := m.Get(123); ok {
		fmt.Fprintf(w, "get(123) = %q\n", v)
	}
	if v, ok := m.Remove(456); ok {
		fmt.Fprintf(w, "remove(456) = %q\n", v)
	}
	if k, v, ok := m.Min(); ok {
		fmt.Fprintf(w, "min = (%d, %q)\n", k, v)
	}
	if k, v, ok := m.PopMin(); ok {
		fmt.Fprintf(w, "pop_min = (%d, %q)\n", k, v)
	}
	if _, _, ok := m.Min(); !ok {
		fmt.Fprintln(w, "min = empty")
	}
	return nil
}

var cmdStress = &cli.Command{
	Name:  "stress",
	Usage: "check the map against a reference model with random keys",
	Flags: []cli.Flag{countFlag, seedFlag, poolFlag},
	Action: func(cctx *cli.Context) error {
		var opts []skipdict.Option
		if cctx.Bool("pool") {
			opts = append(opts, skipdict.WithNodePool())
		}
		return runStress(cctx.Int("n"), cctx.Uint64("seed"), opts...)
	},
}

func runStress(n int, seed uint64, opts ...skipdict.Option) error {
	log := slog.Default().With("system", "stress")
	r := randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	m, err := skipdict.New[int64, int64](nil, append([]skipdict.Option{skipdict.WithSeed(seed)}, opts...)...)
	if err != nil {
		return err
	}
	defer m.Close()

	model := make(map[int64]int64, n)
	for len(model) < n {
		k := r.Int64()
		if _, dup := model[k]; dup {
			continue
		}
		v := r.Int64()
		model[k] = v
		if _, replaced, err := m.Insert(k, v); err != nil {
			return err
		} else if replaced {
			return fmt.Errorf("insert of new key %d reported a previous value", k)
		}
	}
	if err := checkModel(m, model); err != nil {
		return fmt.Errorf("after inserts: %w", err)
	}
	log.Info("inserted", "n", n, "level", m.Stats().Level)

	keys := sortedKeys(model)
	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for _, k := range keys[:n/2] {
		v, ok := m.Remove(k)
		if !ok || v != model[k] {
			return fmt.Errorf("remove(%d) = %d, %v; want %d, true", k, v, ok, model[k])
		}
		delete(model, k)
		if m.Len() != len(model) {
			return fmt.Errorf("len %d after remove, want %d", m.Len(), len(model))
		}
	}
	if err := checkModel(m, model); err != nil {
		return fmt.Errorf("after removals: %w", err)
	}
	log.Info("removed half", "remaining", m.Len(), "level", m.Stats().Level)

	remaining := sortedKeys(model)
	for i := 0; len(remaining) > 0; i++ {
		var k, v int64
		var ok bool
		var want int64
		if i%2 == 0 {
			want, remaining = remaining[0], remaining[1:]
			k, v, ok = m.PopMin()
		} else {
			want, remaining = remaining[len(remaining)-1], remaining[:len(remaining)-1]
			k, v, ok = m.PopMax()
		}
		if !ok || k != want || v != model[want] {
			return fmt.Errorf("pop #%d = (%d, %d, %v); want (%d, %d, true)", i, k, v, ok, want, model[want])
		}
	}
	if m.Len() != 0 {
		return fmt.Errorf("len %d after draining", m.Len())
	}
	if err := m.Verify(); err != nil {
		return err
	}
	log.Info("stress passed", "n", n, "seed", seed)
	return nil
}

func checkModel(m *skipdict.Map[int64, int64], model map[int64]int64) error {
	if m.Len() != len(model) {
		return fmt.Errorf("len %d, want %d", m.Len(), len(model))
	}
	for k, want := range model {
		if got, ok := m.Get(k); !ok || got != want {
			return fmt.Errorf("get(%d) = %d, %v; want %d, true", k, got, ok, want)
		}
	}
	want := sortedKeys(model)
	got := slices.Collect(m.Keys())
	if !slices.Equal(got, want) {
		return errors.New("iteration order does not match sorted model keys")
	}
	return m.Verify()
}

func sortedKeys(model map[int64]int64) []int64 {
	keys := make([]int64, 0, len(model))
	for k := range model {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var cmdBench = &cli.Command{
	Name:  "bench",
	Usage: "time insert, lookup, removal and pop phases",
	Flags: []cli.Flag{countFlag, seedFlag},
	Action: func(cctx *cli.Context) error {
		var rows [][]string
		for _, variant := range []struct {
			name string
			opts []skipdict.Option
		}{
			{name: "heap"},
			{name: "pool", opts: []skipdict.Option{skipdict.WithNodePool()}},
		} {
			phases, err := runBench(cctx.Int("n"), cctx.Uint64("seed"), variant.opts...)
			if err != nil {
				return err
			}
			for _, p := range phases {
				rows = append(rows, []string{
					variant.name,
					p.name,
					strconv.Itoa(p.ops),
					fmt.Sprintf("%.3f", float64(p.elapsed.Microseconds())/1000.0),
					fmt.Sprintf("%.1f", float64(p.elapsed.Nanoseconds())/float64(max(p.ops, 1))),
				})
			}
		}

		table := tablewriter.NewWriter(cctx.App.Writer)
		table.SetHeader([]string{"Alloc", "Phase", "Ops", "Total(ms)", "ns/op"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		table.SetAutoWrapText(false)
		table.AppendBulk(rows)
		table.Render()
		return nil
	},
}

type benchPhase struct {
	name    string
	ops     int
	elapsed time.Duration
}

func runBench(n int, seed uint64, opts ...skipdict.Option) ([]benchPhase, error) {
	r := randv2.New(randv2.NewPCG(seed, seed))
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = r.Int64()
	}

	m, err := skipdict.New[int64, int](nil, append([]skipdict.Option{skipdict.WithSeed(seed)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var phases []benchPhase
	timed := func(name string, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return err
		}
		phases = append(phases, benchPhase{name: name, ops: n, elapsed: time.Since(start)})
		return nil
	}

	if err := timed("insert", func() error {
		for i, k := range keys {
			if _, _, err := m.Insert(k, i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	_ = timed("get", func() error {
		for _, k := range keys {
			m.Get(k)
		}
		return nil
	})
	_ = timed("max", func() error {
		for range keys {
			m.Max()
		}
		return nil
	})
	_ = timed("remove", func() error {
		for _, k := range keys[:n/2] {
			m.Remove(k)
		}
		return nil
	})
	_ = timed("pop", func() error {
		for {
			if _, _, ok := m.PopMin(); !ok {
				return nil
			}
		}
	})
	return phases, nil
}

var cmdLevels = &cli.Command{
	Name:  "levels",
	Usage: "show how many nodes sit at each level",
	Flags: []cli.Flag{
		countFlag,
		seedFlag,
		&cli.BoolFlag{
			Name:  "hashed",
			Usage: "derive levels from a hash of the key",
		},
		&cli.Float64Flag{
			Name:  "p",
			Usage: "level promotion probability",
			Value: skipdict.P,
		},
	},
	Action: func(cctx *cli.Context) error {
		n, p := cctx.Int("n"), cctx.Float64("p")
		opts := []skipdict.Option{skipdict.WithSeed(cctx.Uint64("seed")), skipdict.WithP(p)}
		if cctx.Bool("hashed") {
			opts = append(opts, skipdict.WithKeyHashedLevels())
		}
		m, err := skipdict.New[int64, struct{}](nil, opts...)
		if err != nil {
			return err
		}
		defer m.Close()

		for i := 0; i < n; i++ {
			if _, _, err := m.Insert(int64(i), struct{}{}); err != nil {
				return err
			}
		}

		table := tablewriter.NewWriter(cctx.App.Writer)
		table.SetHeader([]string{"Level", "Nodes", "Expected"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		expected := float64(n) * (1 - p)
		for i, count := range m.Levels() {
			table.Append([]string{strconv.Itoa(i + 1), strconv.Itoa(count), fmt.Sprintf("%.1f", expected)})
			expected *= p
		}
		table.SetFooter([]string{"", strconv.Itoa(m.Len()), ""})
		table.Render()
		return nil
	},
}

var cmdServe = &cli.Command{
	Name:  "serve",
	Usage: "churn a map and expose its statistics on /metrics",
	Flags: []cli.Flag{
		countFlag,
		seedFlag,
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "listen address for the metrics endpoint",
			Value:   ":9464",
			EnvVars: []string{"SKIPDICT_METRICS_ADDR"},
		},
		&cli.DurationFlag{
			Name:  "churn-interval",
			Usage: "how often a random key is replaced",
			Value: 100 * time.Millisecond,
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cctx.String("metrics-addr"), cctx.Int("n"), cctx.Uint64("seed"), cctx.Duration("churn-interval"))
	},
}

// lockedMap serializes the churn loop with metric scrapes.
type lockedMap struct {
	mu sync.Mutex
	m  *skipdict.Map[int64, int64]
}

func (l *lockedMap) Stats() skipdict.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Stats()
}

func runServe(ctx context.Context, addr string, n int, seed uint64, interval time.Duration) error {
	log := slog.Default().With("system", "serve")

	m, err := skipdict.New[int64, int64](nil, skipdict.WithSeed(seed))
	if err != nil {
		return err
	}
	defer m.Close()

	r := randv2.New(randv2.NewPCG(seed, seed))
	for i := 0; i < n; i++ {
		if _, _, err := m.Insert(r.Int64N(int64(n)*2), int64(i)); err != nil {
			return err
		}
	}
	lm := &lockedMap{m: m}

	reg := prometheus.NewRegistry()
	if err := reg.Register(skipdictprom.NewCollector("serve", lm)); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "addr", addr, "len", m.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		case <-ticker.C:
			lm.mu.Lock()
			if r.IntN(2) == 0 {
				m.PopMin()
			} else {
				m.PopMax()
			}
			_, _, err := m.Insert(r.Int64N(int64(n)*2), r.Int64())
			lm.mu.Unlock()
			if err != nil {
				return err
			}
		}
	}
}
