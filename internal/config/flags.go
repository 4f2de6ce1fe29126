package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagMode          = flag.String("mode", "", "Calculation mode: auto, scalar, sse or avx")
	flagMaxInfluences = flag.Int("max-influences", -1, "Skin influences kept per vertex (0 keeps the archetype maximum)")
	flagLogFile       = flag.String("log-file", "", "Write logs to this file as well")
	flagSeed          = flag.Uint64("seed", 0, "Fixture seed")
	flagPools         = flag.Int("pools", 0, "Number of synthetic gene pools")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMode != "" {
		cfg.Splice.CalculationMode = *flagMode
	}
	if *flagMaxInfluences >= 0 {
		cfg.Splice.MaxInfluences = *flagMaxInfluences
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagSeed != 0 {
		cfg.Fixture.Seed = *flagSeed
	}
	if *flagPools > 0 {
		cfg.Splice.Pools = *flagPools
	}
}
