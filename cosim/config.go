package cosim

import (
	"strconv"
	"strings"
)

// Unbounded is the +max-cycles sentinel: the run has no modeled-cycle budget.
const Unbounded int64 = -1

// NeverProfile is the +profile-interval sentinel: periodic profiling is
// disabled. It happens to share the numeric value of Unbounded, but the two
// flags are interpreted independently and must stay separate.
const NeverProfile int64 = -1

// DefaultResetCycles is how long target reset is asserted before any token
// exchange is trusted.
const DefaultResetCycles = 50

// Config holds the driver-recognized runtime settings.
type Config struct {
	// MaxCycles is the modeled-cycle timeout budget. Unbounded (-1) removes
	// the budget.
	MaxCycles int64

	// ProfileInterval is the scheduler delay, in modeled cycles, between
	// model profile samples. NeverProfile (-1) disables profiling.
	ProfileInterval int64

	// ZeroOutDRAM requests a full memory clear through the transport before
	// the run starts.
	ZeroOutDRAM bool

	// ResetCycles is how long target reset is held.
	ResetCycles uint64
}

// DefaultConfig returns the configuration used when no plusarg overrides it.
func DefaultConfig() Config {
	return Config{
		MaxCycles:       Unbounded,
		ProfileInterval: NeverProfile,
		ResetCycles:     DefaultResetCycles,
	}
}

// ParseArgs extracts the driver plusargs from an argument list. Arguments are
// order independent; anything that is not a recognized plusarg is left for
// other consumers and ignored here.
func ParseArgs(args []string) Config {
	cfg := DefaultConfig()

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "+max-cycles="):
			cfg.MaxCycles = parseCycleArg(arg, "+max-cycles=")
		case strings.HasPrefix(arg, "+profile-interval="):
			cfg.ProfileInterval = parseCycleArg(arg, "+profile-interval=")
		case arg == "+zero-out-dram":
			cfg.ZeroOutDRAM = true
		}
	}

	return cfg
}

func parseCycleArg(arg, prefix string) int64 {
	v, err := strconv.ParseInt(strings.TrimPrefix(arg, prefix), 10, 64)
	if err != nil || v < 0 {
		return -1
	}

	return v
}
