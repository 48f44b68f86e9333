//go:build linux

// keying-ibus is the Linux IBus input method engine.
//
// It connects to the IBus daemon over the session D-Bus and turns key
// presses into text: a quick tap types the key, holding it past the
// long-press threshold types its sibling.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/keying-ibus
//  2. Run: keying-ibus -install
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"keying/internal/config"
	"keying/internal/health"
	"keying/internal/ibus"
	"keying/internal/logging"
	"keying/internal/metrics"
)

// Version is set at build time.
var Version = "dev"

func main() {
	installFlag := flag.Bool("install", false, "Install IBus component")
	uninstallFlag := flag.Bool("uninstall", false, "Uninstall IBus component")
	configPath := flag.String("config", "", "Config file (default: search KEYING_CONFIG, ./keying.*, config dir)")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address")
	flag.Bool("ibus", false, "Started by ibus-daemon")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "keying-ibus: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *installFlag:
		if err := install(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Installed successfully. Run 'ibus restart' to load.")
		return
	case *uninstallFlag:
		if err := ibus.Uninstall(cfg.IBus.ComponentDir, cfg.IBus.EngineName); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to uninstall: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Uninstalled successfully.")
		return
	}

	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = *metricsAddr
	}

	if err := run(loader, cfg); err != nil {
		logging.Default().Error("keying-ibus stopped", "error", err)
		os.Exit(1)
	}
}

func install(cfg *config.Config, configPath string) error {
	exe, err := os.Executable()
	if err != nil {
		exe = "/usr/local/bin/keying-ibus"
	}
	if _, err := os.Stat(configPath); err == nil {
		exe += " -config " + configPath
	}
	c := ibus.NewComponent(cfg.IBus.BusName, cfg.IBus.EngineName, exe, Version)
	path, err := ibus.Install(cfg.IBus.ComponentDir, c)
	if err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func run(loader *config.Loader, cfg *config.Config) error {
	logCfg, err := cfg.LoggerConfig("keying-ibus")
	if err != nil {
		return err
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer conn.Close()

	factory := ibus.NewFactory(conn, cfg.IBus.EngineName, opts, logger)
	if err := factory.Export(); err != nil {
		return err
	}

	reply, err := conn.RequestName(cfg.IBus.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", cfg.IBus.BusName)
	}

	checker := health.NewChecker()
	checker.RegisterFunc("dbus", true, health.BusCheck(conn.Connected))
	checker.RegisterFunc("config", false, health.ConfigCheck(loader.Path(), loader.LastError))
	checker.RegisterFunc("engines", false, health.EnginesCheck(factory.Len))
	checker.SetReady(true)

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry(true)
		factory.SetObserver(metrics.NewEngineMetrics(reg))
		srv, err := reg.Listen(cfg.Metrics.Address,
			metrics.Route{Pattern: "/livez", Handler: checker.LivenessHandler()},
			metrics.Route{Pattern: "/readyz", Handler: checker.ReadinessHandler()},
			metrics.Route{Pattern: "/healthz", Handler: checker.HealthHandler()},
		)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		logger.Info("serving metrics", "addr", srv.Addr())
	}

	loader.OnChange(func(c *config.Config) {
		opts, err := c.EngineOptions()
		if err != nil {
			logger.Warn("ignoring config change", "error", err)
			return
		}
		factory.SetOptions(opts)
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	}
	defer loader.Close()

	logger.Info("keying IBus engine started",
		"bus_name", cfg.IBus.BusName,
		"engine", cfg.IBus.EngineName,
		"config", loader.Path(),
		"version", Version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigChan:
			checker.SetReady(false)
			logger.Info("shutting down", "signal", sig.String())
			return nil
		case err := <-loader.Errors():
			logger.Warn("config reload failed", "error", err)
		}
	}
}
