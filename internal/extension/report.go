package extension

import "github.com/rs/zerolog"

// UnitResult is one unit's load outcome.
type UnitResult struct {
	Unit string
	Err  error
}

// Report is the ordered per-unit outcome of one load pass. It is logged at
// startup and not retained.
type Report []UnitResult

// Failed returns how many units failed to load.
func (rep Report) Failed() int {
	n := 0
	for _, res := range rep {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Log writes one line per unit plus a summary.
func (rep Report) Log(log zerolog.Logger) {
	for _, res := range rep {
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("unit", res.Unit).Msg("extension failed to load")
			continue
		}
		log.Debug().Str("unit", res.Unit).Msg("extension loaded")
	}
	log.Info().
		Int("loaded", len(rep)-rep.Failed()).
		Int("failed", rep.Failed()).
		Msg("extension load complete")
}
