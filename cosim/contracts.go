// Package cosim runs the host side of a decoupled co-simulation: it owns the
// bridge drivers and FPGA models, pumps tokens through the simulation
// wrapper, and decides when and how a run ends.
package cosim

import "github.com/sarchlab/bridgesim/naming"

// A BridgeDriver is a host-side adapter that gives a non-hardware party
// (console, disk image, network tap, trace sink) access to a decoupled
// target interface. The core consumes this contract; it never implements
// domain bridges itself.
type BridgeDriver interface {
	naming.Named

	// Init performs one-time setup. It may read target configuration.
	Init()

	// Tick synchronously drains all currently available tokens for this
	// step. It must never block or await future availability; if more data
	// is needed it returns and is ticked again on a later iteration. The
	// return value tells if any token was produced or consumed.
	Tick() (madeProgress bool)

	// Terminate returns true once this bridge judges the simulated workload
	// complete.
	Terminate() bool

	// ExitCode returns 0 if this bridge signaled no failure. Nonzero values
	// are workload specific.
	ExitCode() int

	// Finish performs one-time teardown. The driver calls it exactly once,
	// regardless of exit status.
	Finish()
}

// An FPGAModel emulates analog or timing behavior (memory latency, for
// example) that is not expressed as target-visible tokens. Its profile output
// is telemetry only and has no effect on correctness.
type FPGAModel interface {
	naming.Named

	Init()

	// Profile samples the model's counters and returns the delay, in modeled
	// cycles, until the next sample.
	Profile() (nextDelay uint64)

	Finish()
}

// A Transport is the register-mapped access path to the target. It is
// provided by the platform layer; the driver only assumes it serializes
// accesses per bridge address window. Errors on the physical path are fatal
// and surface as panics from the platform implementation.
type Transport interface {
	// TargetReset asserts target reset for the given number of cycles.
	// No token exchange is trusted before it returns.
	TargetReset(cycles uint64)

	// Step launches n modeled cycles. With blocking set, it returns only
	// after the target has consumed them.
	Step(n uint64, blocking bool)

	// Done tells if the previously launched step has fully drained on the
	// hardware side.
	Done() bool

	// LargestStepSize returns the largest step all decoupled clocks can
	// safely advance simultaneously.
	LargestStepSize() uint64

	// TargetCycle returns the number of modeled cycles elapsed.
	TargetCycle() uint64

	// HostCycle returns the number of host-transport cycles elapsed.
	HostCycle() uint64

	// ZeroOutDRAM clears the target's memory in full.
	ZeroOutDRAM()
}
