package config

// Config holds app configuration
type Config struct {
	// Endian selects the target byte order for created archives
	// ("little" for Switch-era titles, "big" for Wii U-era ones).
	Endian string `mapstructure:"endian"`

	// Legacy enables the extra alignment restrictions used by games
	// without a load-time resource system.
	Legacy bool `mapstructure:"legacy"`

	// MinAlignment overrides the minimum data alignment (power of two).
	// Zero keeps the format default.
	MinAlignment int `mapstructure:"min_alignment"`

	OutputFile string `mapstructure:"output"`
	OutputDir  string `mapstructure:"output_dir"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
