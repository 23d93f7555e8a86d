package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

const usage = `Usage: culprit [flags] <command> [args]

Commands:
  train <root>      build statistics tables from labeled training cases
  predict <root>    attribute every test case under root
  show <case-dir>   summarize the logs of one test case
  serve             run the HTTP API
  browse            browse the attribution history

Flags:
`

func main() {
	var configPath string
	var categories string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/culprit/config.yml)")
	flag.StringVar(&categories, "categories", "", "comma separated categories to retrain (default all)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("Culprit - Forensic Actor Attribution\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cats, err := parseCategories(categories)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, args, cats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg appConfig, args []string, categories []model.Category) error {
	cmd, rest := args[0], args[1:]

	logPath := cfg.LogFile
	if cmd == "browse" && logPath == "" {
		// The terminal belongs to the browser.
		logPath = defaultLogPath()
	}
	cleanupLogger := configureRuntimeLogger(logPath)
	defer cleanupLogger()

	switch cmd {
	case "train":
		if len(rest) != 1 {
			return fmt.Errorf("usage: culprit train <root>")
		}
		return runTrain(cfg, rest[0], categories)
	case "predict":
		if len(rest) != 1 {
			return fmt.Errorf("usage: culprit predict <root>")
		}
		return runPredict(cfg, rest[0])
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("usage: culprit show <case-dir>")
		}
		return runShow(rest[0])
	case "serve":
		return runServe(cfg)
	case "browse":
		return runBrowse(cfg)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
