// Command potwatch watches an Instant Pot control panel through a camera and
// publishes what its display shows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"potwatch/internal/bus"
	"potwatch/internal/config"
	"potwatch/internal/debug"
	"potwatch/internal/imageops"
	"potwatch/internal/locator"
	"potwatch/internal/monitor"
	"potwatch/internal/pipeline"
	"potwatch/internal/settings"
	"potwatch/internal/version"
)

func main() {
	configPath := flag.String("config", "potwatch.yaml", "Path to the YAML configuration file")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "Log as JSON instead of text")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	setupLogging(*logLevel, *logJSON)
	slog.Info("starting potwatch", "version", version.Version, "commit", version.GitCommit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", *configPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("potwatch failed", "error", err)
		os.Exit(1)
	}
	slog.Info("potwatch stopped")
}

func setupLogging(level string, asJSON bool) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg *config.Config) error {
	template, err := imageops.Load(cfg.Template)
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}
	defer template.Close()

	store, closeStore, err := openStore(ctx, cfg.Settings)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []pipeline.Option
	backend, err := locator.BackendByName(cfg.FeatureBackend)
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithBackend(backend))
	if cfg.DebugDir != "" {
		sink, err := debug.NewDir(cfg.DebugDir)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithSink(sink))
		slog.Info("writing debug images", "dir", sink.Path())
	}

	p, err := pipeline.FromStore(ctx, template, store, opts...)
	if err != nil {
		return err
	}

	b, err := openBus(cfg)
	if err != nil {
		p.Close()
		return err
	}
	defer b.Close()

	src, err := openSource(cfg.Source)
	if err != nil {
		p.Close()
		return err
	}
	defer src.Close()

	m := monitor.New(src, p, b,
		monitor.WithInterval(time.Duration(cfg.IntervalS*float64(time.Second))),
		monitor.WithTopicPrefix(cfg.Bus.TopicPrefix))
	defer m.Close()

	if cfg.Bus.Backend == "local" {
		// Nothing else listens in-process; log what is read instead.
		if _, err := b.Subscribe(m.Topic(), logReading); err != nil {
			return err
		}
	}

	if f, ok := store.(*settings.File); ok {
		w := watchSettings(ctx, f, cfg.Settings.PollS, func() (monitor.FrameReader, error) {
			return pipeline.FromStore(ctx, template, f, opts...)
		}, m.Reload)
		defer w.Stop()
	}

	return m.Run(ctx)
}

// watchSettings rebuilds the pipeline whenever the settings file changes on
// disk and hands the new one to reload.
func watchSettings(ctx context.Context, f *settings.File, pollS float64,
	build func() (monitor.FrameReader, error), reload func(monitor.FrameReader)) *settings.Watcher {
	w := settings.NewWatcher(f.Path(), time.Duration(pollS*float64(time.Second)))
	w.OnChange(func() {
		if err := f.Reload(); err != nil {
			slog.Warn("settings reload failed, keeping current parameters", "error", err)
			return
		}
		r, err := build()
		// Writing missing defaults touches the file; that is not a change.
		w.ResetBaseline()
		if err != nil {
			slog.Warn("pipeline rebuild failed, keeping current parameters", "error", err)
			return
		}
		slog.Info("settings changed, pipeline rebuilt", "path", f.Path())
		reload(r)
	})
	w.Start()
	slog.Info("watching settings", "path", f.Path(), "poll", pollS)
	return w
}

func logReading(topic string, payload []byte) {
	slog.Info("reading", "topic", topic, "event", string(payload))
}

func openStore(ctx context.Context, cfg config.SettingsConfig) (settings.Store, func(), error) {
	switch cfg.Backend {
	case "file":
		f, err := settings.OpenFile(cfg.Path, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	case "redis":
		r, err := settings.NewRedis(ctx, settings.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Namespace,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	default:
		return settings.NewMemory(), func() {}, nil
	}
}

func openBus(cfg *config.Config) (bus.Bus, error) {
	if cfg.Bus.Backend != "mqtt" {
		return bus.NewLocal(), nil
	}
	b, err := bus.NewMQTT(bus.MQTTOptions{
		Broker:   cfg.Bus.MQTT.Broker,
		ClientID: cfg.Bus.MQTT.ClientID,
		QoS:      cfg.Bus.MQTT.QoS,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func openSource(cfg config.SourceConfig) (monitor.FrameSource, error) {
	if cfg.Directory != "" {
		return monitor.OpenDirectory(cfg.Directory, cfg.Loop)
	}
	return monitor.OpenCamera(cfg.Camera)
}
