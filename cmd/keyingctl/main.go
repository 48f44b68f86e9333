// keyingctl is the command-line tool for the keying input engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"keying/internal/config"
	"keying/internal/logging"
	"keying/internal/replay"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "replay":
		err = cmdReplay(os.Stdout, args)
	case "config":
		err = cmdConfig(os.Stdout, args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyingctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `keyingctl - Tools for the keying input engine

Usage: keyingctl <command> [args]

Commands:
  replay [-q] [-debug] <script>...   Run event scripts and print what the engine did
  config check [path]                Validate a config file (default: the active one)
  config show [-format f] [path]     Print the effective config, env overrides applied
  config init [path]                 Write the default config if none exists
  config defaults [-format f]        Print the default config (toml, json, yaml)
  config path                        Print the config file that would be used
  help                               Show this help message`)
}

func cmdReplay(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	quiet := fs.Bool("q", false, "only report failures")
	debug := fs.Bool("debug", false, "log engine decisions to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: keyingctl replay <script>...")
	}

	log := logging.Discard()
	if *debug {
		var err error
		log, err = logging.New(&logging.Config{
			Level:     logging.LevelDebug,
			Format:    logging.FormatText,
			Output:    "stderr",
			LogText:   true,
			Component: "keyingctl",
		})
		if err != nil {
			return err
		}
	}

	runner := replay.NewRunner(log)
	failed := 0
	for _, path := range fs.Args() {
		s, err := replay.Load(path)
		if err != nil {
			return err
		}
		res, err := runner.Run(context.Background(), s)
		if err != nil {
			return err
		}
		checkErr := res.Check(s)
		if checkErr != nil {
			failed++
		}
		if *quiet && checkErr == nil {
			continue
		}
		printResult(w, res, checkErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, fs.NArg())
	}
	return nil
}

func printResult(w io.Writer, res *replay.Result, checkErr error) {
	fmt.Fprintf(w, "=== %s\n", res.Name)
	for _, line := range res.Transcript {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "committed: %q\n", res.Committed)
	if res.Composing != "" {
		fmt.Fprintf(w, "composing: %q\n", res.Composing)
	}
	fmt.Fprintf(w, "layout: %s shifted: %t\n", res.Layout, res.Shifted)
	if checkErr != nil {
		fmt.Fprintf(w, "FAIL: %v\n", checkErr)
	} else {
		fmt.Fprintln(w, "ok")
	}
}

func cmdConfig(w io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: keyingctl config check|show|init|defaults|path")
	}
	switch args[0] {
	case "check":
		path := config.FindConfigFile()
		if len(args) > 1 {
			path = args[1]
		}
		return configCheck(w, path)
	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		format := fs.String("format", "toml", "output format: toml, json or yaml")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f, err := parseFormat(*format)
		if err != nil {
			return err
		}
		path := config.FindConfigFile()
		if fs.NArg() > 0 {
			path = fs.Arg(0)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return config.Encode(w, cfg, f)
	case "init":
		path := config.ConfigPath()
		if len(args) > 1 {
			path = args[1]
		}
		_, created, err := config.LoadOrCreate(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if created {
			fmt.Fprintf(w, "created %s\n", path)
		} else {
			fmt.Fprintf(w, "%s already exists\n", path)
		}
		return nil
	case "defaults":
		fs := flag.NewFlagSet("defaults", flag.ContinueOnError)
		format := fs.String("format", "toml", "output format: toml, json or yaml")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f, err := parseFormat(*format)
		if err != nil {
			return err
		}
		return config.Encode(w, config.DefaultConfig(), f)
	case "path":
		fmt.Fprintln(w, config.FindConfigFile())
		return nil
	}
	return fmt.Errorf("unknown config command %q", args[0])
}

func parseFormat(s string) (config.Format, error) {
	f := config.Format(strings.ToLower(s))
	switch f {
	case config.FormatTOML, config.FormatJSON, config.FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

func configCheck(w io.Writer, path string) error {
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(w, "  %s: %s\n", v.Field, v.Message)
			}
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.EngineOptions(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(w, "%s: ok (threshold %dms, prediction %t)\n",
		path, cfg.Keyboard.LongPressThresholdMs, cfg.Keyboard.PredictionEnabled)
	return nil
}
