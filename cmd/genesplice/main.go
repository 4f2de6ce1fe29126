// genesplice runs the gene splicer over synthetic rigs and reports the
// calculation modes available on this machine.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/rigsplice/internal/config"
	"github.com/Faultbox/rigsplice/internal/logger"
)

func main() {
	// Parse CLI flags first; the command follows them
	config.ParseFlags()

	command := "run"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	switch command {
	case "run":
		err = cmdRun(cfg, os.Stdout)
	case "compare":
		err = cmdCompare(cfg, os.Stdout)
	case "modes":
		cmdModes(os.Stdout)
	case "config":
		err = cmdConfig(cfg, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`genesplice - blend gene pools into a rig

Usage:
  genesplice [flags] <command>

Commands:
  run              Splice synthetic gene pools and print a summary (default)
  compare          Splice with every calculation mode and report deviations
  modes            Show CPU features and the detected calculation mode
  config [path]    Write the effective configuration as YAML
  help             Show this help

Flags:
  -config <path>          Config file (default ./config.yaml or the user config dir)
  -mode <type>            auto, scalar, sse or avx
  -max-influences <n>     Skin influences kept per vertex, 0 keeps the archetype maximum
  -pools <n>              Number of synthetic gene pools
  -seed <n>               Fixture seed
  -log-file <path>        Also write logs to a rotated file
  -debug                  Enable debug logging

Examples:
  genesplice modes
  genesplice -mode scalar -pools 3 run
  genesplice -seed 7 compare`)
}
