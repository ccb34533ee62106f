package pskdemod

// Config is the mapping of recognized option name to effect described in
// spec.md §3. Defaults match spec.md §6.
type Config struct {
	SamplesPerBaud       int
	NumAvg               int
	ConstelationSize     int
	PhaseAvg             int
	DifferentialDecoding bool
	ResetState           bool
}

// DefaultConfig returns the configuration defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		SamplesPerBaud:       10,
		NumAvg:               100,
		ConstelationSize:     4,
		PhaseAvg:             50,
		DifferentialDecoding: false,
		ResetState:           false,
	}
}

// Option configures a Demodulator at construction time, in the functional
// options style grounded in the teacher's pkg/core/plugin.Option pattern.
type Option func(*Config)

// WithSamplesPerBaud sets the symbol oversampling factor.
func WithSamplesPerBaud(n int) Option {
	return func(c *Config) { c.SamplesPerBaud = n }
}

// WithNumAvg sets the number of symbols the timing recovery energy window
// spans.
func WithNumAvg(n int) Option {
	return func(c *Config) { c.NumAvg = n }
}

// WithConstellationSize sets M for M-PSK (2, 4, or 8).
func WithConstellationSize(m int) Option {
	return func(c *Config) { c.ConstelationSize = m }
}

// WithPhaseAvg sets the linear-fit phase tracker's window length.
func WithPhaseAvg(n int) Option {
	return func(c *Config) { c.PhaseAvg = n }
}

// WithDifferentialDecoding enables or disables differential decoding.
func WithDifferentialDecoding(on bool) Option {
	return func(c *Config) { c.DifferentialDecoding = on }
}

func applyOptions(c *Config, opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func validateConfig(c Config) error {
	if c.SamplesPerBaud < 1 {
		return errInvalidSamplesPerBaud
	}
	if c.NumAvg < 1 {
		return errInvalidNumAvg
	}
	if c.PhaseAvg < 1 {
		return errInvalidPhaseAvg
	}
	return nil
}
