package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/resload"
	"github.com/unkn0wn-root/resload/hooks/prom"
	zaplog "github.com/unkn0wn-root/resload/log/zap"
)

var errSomeFailed = errors.New("some resources failed to load")

type fetchFlags struct {
	root    string
	workers int
	timeout time.Duration
	tick    time.Duration
	stats   bool
	backend backendFlags
}

func fetchCmd(g *globalFlags) *cobra.Command {
	var f fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch [paths...]",
		Short: "Load resources and report their final state",
		Long: `Request every path, poll the manager until each one is terminal and
print one line per path. Exits non-zero if any load failed.

Paths without a scheme are read from the resource root. Remote routes:
  kar://name     entry in the --archive file
  s3://key       object in --s3-bucket
  minio://key    object in --bucket on --minio-endpoint
  redis://key    string value on --redis-addr

Examples:
  resload fetch --root ./assets shaders/basic.vert tex/a.png
  resload fetch --archive base.kar --cache ristretto kar://meshes/cube.obj`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.OutOrStdout(), g, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.root, "root", "", "Resource root directory (overrides "+resload.EnvRoot+")")
	fl.IntVarP(&f.workers, "workers", "w", 0, "Concurrent loads (overrides "+resload.EnvWorkers+")")
	fl.DurationVar(&f.timeout, "timeout", time.Minute, "Give up on loads still running after this long")
	fl.DurationVar(&f.tick, "tick", 10*time.Millisecond, "Polling interval")
	fl.BoolVar(&f.stats, "stats", false, "Print load metrics after the report")

	fl.StringVar(&f.backend.archive, "archive", "", "kar archive mounted at kar://")
	fl.StringVar(&f.backend.s3Bucket, "s3-bucket", "", "S3 bucket mounted at s3:// (default AWS credentials)")
	fl.StringVar(&f.backend.s3Prefix, "s3-prefix", "", "Key prefix inside --s3-bucket")
	fl.StringVar(&f.backend.minioAddr, "minio-endpoint", "", "MinIO endpoint mounted at minio:// (MINIO_ACCESS_KEY, MINIO_SECRET_KEY)")
	fl.BoolVar(&f.backend.minioTLS, "minio-tls", false, "Use TLS for --minio-endpoint")
	fl.StringVar(&f.backend.bucket, "bucket", "assets", "Bucket on --minio-endpoint")
	fl.StringVar(&f.backend.redisAddr, "redis-addr", "", "Redis server mounted at redis://")
	fl.StringVar(&f.backend.redisPfx, "redis-prefix", "resload:res:", "Key prefix for redis:// paths")
	fl.StringVar(&f.backend.cache, "cache", "none", "Content cache: none, ristretto, bigcache or redis")
	fl.DurationVar(&f.backend.cacheTTL, "cache-ttl", 0, "Content cache TTL (0 = no expiry)")
	fl.IntVar(&f.backend.rate, "rate", 0, "Read throughput limit in bytes/s (0 = unlimited)")

	return cmd
}

func runFetch(out io.Writer, g *globalFlags, f fetchFlags, paths []string) error {
	zl, err := newLogger(g.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zaplog.New(zl)

	if f.root != "" {
		os.Setenv(resload.EnvRoot, f.root)
	}
	cfg, err := resload.ConfigFromEnv(g.envFile)
	if err != nil {
		return err
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := buildBackend(ctx, cfg, f.backend, log)
	if err != nil {
		return err
	}
	defer be.Close()

	reg := prometheus.NewRegistry()
	m, err := resload.New(resload.Options{
		Loader:  be.loader,
		Logger:  log,
		Hooks:   prom.New(prom.WithRegistry(reg)),
		Workers: cfg.Workers,
	})
	if err != nil {
		return err
	}

	descs := make([]*resload.Descriptor, len(paths))
	for i, p := range paths {
		descs[i] = resload.NewDescriptor(p)
	}
	states := poll(ctx, m, descs, f.tick, f.timeout)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Close(closeCtx); err != nil {
		zl.Warn("manager close", zap.Error(err))
	}

	failed := report(out, descs, states)
	if f.stats {
		if err := printStats(out, reg, be); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errSomeFailed, failed, len(paths))
	}
	return nil
}

// poll runs the request/collect tick loop until every descriptor is
// terminal, ctx is done or timeout elapses. Descriptors still loading map
// to a Loading state.
func poll(ctx context.Context, m *resload.Manager, descs []*resload.Descriptor, tick, timeout time.Duration) map[*resload.Descriptor]resload.State {
	states := make(map[*resload.Descriptor]resload.State, len(descs))
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		resload.RequestAll(m, descs)
		loading := resload.Collect(m, descs, func(d *resload.Descriptor, st resload.State) {
			states[d] = st
		})
		if loading == 0 {
			return states
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return states
		case <-ctx.Done():
			return states
		}
	}
}

func report(out io.Writer, descs []*resload.Descriptor, states map[*resload.Descriptor]resload.State) int {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	failed := 0
	for _, d := range descs {
		st, ok := states[d]
		if !ok {
			st = resload.Loading()
		}
		size := "-"
		if b, loaded := st.Bytes(); loaded {
			size = fmt.Sprintf("%d", len(b))
		}
		if !st.IsTerminal() || st.Err() != nil {
			failed++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Path, st.Phase(), detail(st, size))
	}
	return failed
}

func detail(st resload.State, size string) string {
	if kind, ok := st.ErrorKind(); ok {
		return kind.String()
	}
	return size
}

func printStats(out io.Writer, reg *prometheus.Registry, be *backend) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	var lines []string
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
				name += "_count"
			}
			lines = append(lines, fmt.Sprintf("%s\t%g", name, v))
		}
	}
	if be.cache != nil {
		cs := be.cache.Stats()
		lines = append(lines,
			fmt.Sprintf("cache_hits\t%d", cs.Hits),
			fmt.Sprintf("cache_misses\t%d", cs.Misses),
			fmt.Sprintf("cache_self_heals\t%d", cs.SelfHeal))
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(tw, l)
	}
	return tw.Flush()
}
