package pskdemod

import "fmt"

// Option names recognized by Configure, matching spec.md §3's Configuration
// table. Defined as constants so callers don't have to memorize strings.
const (
	OptSamplesPerBaud       = "samplesPerBaud"
	OptNumAvg               = "numAvg"
	OptConstelationSize     = "constelationSize"
	OptPhaseAvg             = "phaseAvg"
	OptDifferentialDecoding = "differentialDecoding"
	OptResetState           = "resetState"
)

// Configure applies a single named option at runtime, implementing the
// reconfiguration protocol of spec.md §4.5/§5: the write only records the
// value and flips dirty flags under the mutex (resetState is recorded as a
// pending request that the next Push expands into all three flags); the
// actual buffer/tracker mutation happens at the top of the next Push, the
// sole safe observation point.
func (d *Demodulator) Configure(name string, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch name {
	case OptSamplesPerBaud:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", errWrongOptionType, name)
		}
		if n < 1 {
			return errInvalidSamplesPerBaud
		}
		d.cfg.SamplesPerBaud = n
		d.dirty.samplesPerBaud = n != d.timing.SamplesPerBaud() || d.cfg.NumAvg != d.timing.NumAvg()

	case OptNumAvg:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", errWrongOptionType, name)
		}
		if n < 1 {
			return errInvalidNumAvg
		}
		d.cfg.NumAvg = n
		d.dirty.samplesPerBaud = d.cfg.SamplesPerBaud != d.timing.SamplesPerBaud() || n != d.timing.NumAvg()

	case OptConstelationSize:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", errWrongOptionType, name)
		}
		d.cfg.ConstelationSize = n
		d.dirty.numSymbols = n != d.applied.ConstelationSize

	case OptPhaseAvg:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", errWrongOptionType, name)
		}
		if n < 1 {
			return errInvalidPhaseAvg
		}
		d.cfg.PhaseAvg = n
		d.dirty.phaseAvg = n != d.phase.Cap()

	case OptDifferentialDecoding:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects bool", errWrongOptionType, name)
		}
		d.cfg.DifferentialDecoding = b

	case OptResetState:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects bool", errWrongOptionType, name)
		}
		d.cfg.ResetState = b

	default:
		return fmt.Errorf("%w: %q", errUnknownOption, name)
	}

	return nil
}

// ConfigSnapshot returns a copy of the configuration currently in effect
// (i.e. as of the most recently started Push), for diagnostics and tests.
func (d *Demodulator) ConfigSnapshot() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied
}
