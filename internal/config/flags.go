package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagFPS           = flag.Int("fps", 0, "Frames per second for key times")
	flagNoTriangulate = flag.Bool("no-triangulate", false, "Write n-gon meshes without geometry instead of triangulating")
	flagNoAnims       = flag.Bool("no-anims", false, "Do not write animations")
	flagLogFile       = flag.String("log-file", "", "Write logs to a rotating file")
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
	if *flagFPS > 0 {
		cfg.MDL.FPS = *flagFPS
	}
	if *flagNoTriangulate {
		cfg.MDL.Triangulate = false
	}
	if *flagNoAnims {
		cfg.MDL.ExportAnimations = false
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
