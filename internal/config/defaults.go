package config

const (
	defaultLogDir    = "~/.local/share/snapsort/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// defaultSuffixes is the stock photo/video extension filter applied when the
// config file and --suffix flags supply nothing.
var defaultSuffixes = []string{".avi", ".png", ".jpg", ".jpeg", ".raw", ".mov", ".mp4"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Filters: Filters{
			Suffixes: append([]string(nil), defaultSuffixes...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
