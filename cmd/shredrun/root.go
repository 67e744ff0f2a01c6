package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"vshred/internal/sched"
	"vshred/internal/script"
	"vshred/internal/units"
)

type rootFlags struct {
	config   string
	until    float64
	realtime bool
	trace    string
	progress bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "shredrun [flags] script.js...",
		Short:         "Run JavaScript shreds on a shared virtual timeline",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "config.yml", "YAML config file")
	fl.Float64VarP(&f.until, "until", "u", 0, "stop after this many seconds of virtual time (0 = run to quiescence)")
	fl.BoolVar(&f.realtime, "realtime", false, "pace virtual time against the wall clock")
	fl.StringVar(&f.trace, "trace", "", "write a CSV trace of scheduler events to this file")
	fl.BoolVar(&f.progress, "progress", false, "show a progress bar (needs --until)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and one line per scheduler event")
	return cmd
}

func run(cmd *cobra.Command, args []string, f *rootFlags) error {
	fs := afero.NewOsFs()

	// Read the configuration, then let the environment and flags override it
	cfg, cfgErr := sched.Load(fs, f.config)
	cfg.ApplyEnv(os.LookupEnv)
	if cmd.Flags().Changed("until") && f.until >= 0 {
		cfg.UntilSeconds = f.until
	}
	if f.realtime {
		cfg.Pacing = sched.PacingRealtime
	}
	if f.trace != "" {
		cfg.TraceCSV = f.trace
	}

	level := cfg.Level()
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfgErr != nil {
		logger.Warn("using default config", "err", cfgErr)
	}
	logger.Debug("loaded config", "config", cfg)

	rate := units.Rate(cfg.SampleRate)
	until := rate.Seconds(cfg.UntilSeconds)
	hole := &blackhole{}

	opts := append(cfg.Options(nil), sched.WithLogger(logger), sched.WithProducer(hole))
	if f.verbose {
		opts = append(opts, sched.WithHook(sched.NewConsoleHook(cmd.OutOrStdout())))
	}
	if cfg.TraceCSV != "" {
		file, err := fs.Create(cfg.TraceCSV)
		if err != nil {
			return err
		}
		rec, err := sched.NewCSVRecorder(file)
		if err != nil {
			return err
		}
		atexit.Register(func() { _ = rec.Close() })
		opts = append(opts, sched.WithHook(rec))
	}

	var progress *mpb.Progress
	if f.progress && until > 0 {
		progress = mpb.New(mpb.WithOutput(cmd.ErrOrStderr()))
		hole.bar = progress.AddBar(int64(until),
			mpb.PrependDecorators(decor.Name("vtime ")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d"), decor.Percentage(decor.WCSyncSpace)),
		)
	}

	s := sched.New(opts...)
	sched.SetDefault(s)
	defer s.Close()

	runner := script.NewRunner(s, fs, rate, cmd.OutOrStdout())
	if _, err := runner.LoadAll(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	err := drive(ctx, s, until)
	if progress != nil {
		hole.flush()
		if !hole.bar.Completed() {
			hole.bar.Abort(false)
		}
		progress.Wait()
	}

	logger.Info("shreduler finished",
		"now", s.Now(),
		"seconds", rate.ToSeconds(s.Now()),
		"produced", hole.count,
		"waiting", s.Events().Len(),
	)
	return err
}

func drive(ctx context.Context, s *sched.Scheduler, until sched.VTime) error {
	if until > 0 {
		return s.RunUntil(ctx, until)
	}
	return s.Run(ctx)
}
