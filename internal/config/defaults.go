package config

const (
	defaultDataDir          = "~/.local/share/editpdf"
	defaultLogDir           = "~/.local/share/editpdf/logs"
	defaultAttemptLimit     = 3
	defaultBatchSize        = 100
	defaultConverterTimeout = 60
	defaultSchedule         = "*/15 * * * *"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	// MaxBatchSize caps how many queue entries a single drain may fetch.
	MaxBatchSize = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Conversion: Conversion{
			AttemptLimit: defaultAttemptLimit,
			BatchSize:    defaultBatchSize,
		},
		Converter: Converter{
			TimeoutSeconds: defaultConverterTimeout,
		},
		Schedule: Schedule{
			Cron: defaultSchedule,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
