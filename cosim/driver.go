package cosim

import (
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/bridgesim/hooking"
	"github.com/sarchlab/bridgesim/naming"
	"github.com/sarchlab/bridgesim/wiring"
)

// HookPosProfileSample marks one FPGA model profile sample being taken.
var HookPosProfileSample = &hooking.HookPos{Name: "Profile Sample"}

// HookPosRunReport marks the end-of-run report being finalized.
var HookPosRunReport = &hooking.HookPos{Name: "Run Report"}

// HookPosStateChange marks a driver state transition.
var HookPosStateChange = &hooking.HookPos{Name: "Driver State Change"}

// TimeoutExitCode is the process status reported when the modeled-cycle
// budget runs out before any bridge signals completion.
const TimeoutExitCode = 124

// State is the driver's position in its lifecycle.
type State int

// The driver lifecycle. Runs end in TimedOut or Completed, and Finished is
// entered on both paths after teardown.
const (
	StateConstructing State = iota
	StateResetHold
	StateRunning
	StateTimedOut
	StateCompleted
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateResetHold:
		return "reset-hold"
	case StateRunning:
		return "running"
	case StateTimedOut:
		return "timed-out"
	case StateCompleted:
		return "completed"
	case StateFinished:
		return "finished"
	default:
		panic("unknown driver state")
	}
}

// A ProfileSample is the telemetry item attached to HookPosProfileSample.
type ProfileSample struct {
	Model     string
	Cycle     uint64
	NextDelay uint64
}

// A Report summarizes one finished run.
type Report struct {
	State       State
	Cycles      uint64
	HostCycles  uint64
	WallSeconds float64
	SpeedKHz    float64
	FMR         float64
	ExitCode    int
	ResetCycles uint64
	TimedOut    bool
}

// A Driver owns all bridge drivers and FPGA models of one run. It pumps the
// token loop, detects termination and timeout, aggregates exit status, and
// reports throughput. The driver is single threaded: nothing in it may block
// or sleep, and bridges are only ever ticked from its loop.
type Driver struct {
	naming.NamedBase
	hooking.HookableBase

	transport Transport
	wrapper   *wiring.Wrapper
	cfg       Config
	sched     *Scheduler

	bridges []BridgeDriver
	models  []FPGAModel

	state      State
	terminated bool
	finished   bool

	report Report
}

// A DriverBuilder can build simulation drivers.
type DriverBuilder struct {
	transport Transport
	wrapper   *wiring.Wrapper
	cfg       Config
	manifest  Manifest
}

// MakeDriverBuilder creates a builder with the default configuration.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{cfg: DefaultConfig()}
}

// WithTransport sets the register transport of the platform.
func (b DriverBuilder) WithTransport(t Transport) DriverBuilder {
	b.transport = t
	return b
}

// WithWrapper sets the simulation wrapper whose channels the run advances.
func (b DriverBuilder) WithWrapper(w *wiring.Wrapper) DriverBuilder {
	b.wrapper = w
	return b
}

// WithConfig sets the runtime configuration.
func (b DriverBuilder) WithConfig(cfg Config) DriverBuilder {
	b.cfg = cfg
	return b
}

// WithManifest sets the module manifest to instantiate.
func (b DriverBuilder) WithManifest(m Manifest) DriverBuilder {
	b.manifest = m
	return b
}

// Build instantiates every module in the manifest, in deterministic order,
// and registers the periodic tasks.
func (b DriverBuilder) Build(name string) *Driver {
	if b.transport == nil {
		panic("driver needs a transport")
	}

	d := &Driver{
		NamedBase: naming.MakeNamedBase(name),
		transport: b.transport,
		wrapper:   b.wrapper,
		cfg:       b.cfg,
		sched:     NewScheduler(),
		state:     StateConstructing,
	}

	d.bridges, d.models = b.manifest.instantiate(b.wrapper)

	// Profiling fires on its configured interval; a NeverProfile interval
	// registers the task disabled.
	d.sched.Register(d.profileModels, b.cfg.ProfileInterval)

	return d
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// Bridges returns the bridge handles in registration order.
func (d *Driver) Bridges() []BridgeDriver {
	return d.bridges
}

// Models returns the FPGA model handles in registration order.
func (d *Driver) Models() []FPGAModel {
	return d.models
}

// Scheduler returns the periodic task runner, so platform code can register
// additional tasks before Run.
func (d *Driver) Scheduler() *Scheduler {
	return d.sched
}

// Report returns the end-of-run summary. It is meaningful once the driver
// reached Finished.
func (d *Driver) Report() Report {
	return d.report
}

// ExitCode aggregates bridge exit codes: the first nonzero code in
// registration order wins, else 0.
func (d *Driver) ExitCode() int {
	for _, b := range d.bridges {
		if code := b.ExitCode(); code != 0 {
			return code
		}
	}

	return 0
}

// Run executes the whole lifecycle and returns the process exit status: 0 on
// clean completion, the first nonzero bridge code, or TimeoutExitCode when
// the cycle budget ran out first.
func (d *Driver) Run() int {
	for _, m := range d.models {
		m.Init()
	}

	for _, b := range d.bridges {
		b.Init()
	}

	if d.cfg.ZeroOutDRAM {
		fmt.Fprintf(os.Stderr,
			"Zeroing out target DRAM. This will take a few minutes...\n")
		d.transport.ZeroOutDRAM()
	}

	fmt.Fprintf(os.Stderr, "Commencing simulation.\n")

	startHostCycle := d.transport.HostCycle()
	startTime := time.Now()

	d.setState(StateResetHold)
	d.transport.TargetReset(d.cfg.ResetCycles)

	d.setState(StateRunning)
	for !d.completed() && !d.outOfBudget() {
		d.sched.RunDue(d.transport.TargetCycle())

		step := d.stepSize()
		d.transport.Step(step, false)
		if d.wrapper != nil {
			d.wrapper.AdvanceAll(step)
		}

		for !d.transport.Done() && !d.completed() {
			for _, b := range d.bridges {
				b.Tick()
			}
		}
	}

	endCycle := d.transport.TargetCycle()
	hostCycles := d.transport.HostCycle() - startHostCycle
	wallSeconds := time.Since(startTime).Seconds()

	if d.completed() {
		d.setState(StateCompleted)
	} else {
		d.setState(StateTimedOut)
	}

	status := d.concludeRun(endCycle, hostCycles, wallSeconds)

	d.finish()
	d.setState(StateFinished)

	return status
}

// completed ORs the termination judgment of every bridge. It is sticky: once
// any bridge reported completion, no bridge un-terminates the run.
func (d *Driver) completed() bool {
	if d.terminated {
		return true
	}

	for _, b := range d.bridges {
		if b.Terminate() {
			d.terminated = true
			break
		}
	}

	return d.terminated
}

func (d *Driver) outOfBudget() bool {
	if d.cfg.MaxCycles == Unbounded {
		return false
	}

	return d.transport.TargetCycle() >= uint64(d.cfg.MaxCycles)
}

// stepSize picks the largest step all decoupled clocks allow, clamped to the
// remaining cycle budget so a timeout lands exactly on it.
func (d *Driver) stepSize() uint64 {
	step := d.transport.LargestStepSize()

	if d.cfg.MaxCycles != Unbounded {
		remaining := uint64(d.cfg.MaxCycles) - d.transport.TargetCycle()
		if step > remaining {
			step = remaining
		}
	}

	return step
}

func (d *Driver) profileModels() int64 {
	cycle := d.transport.TargetCycle()

	for _, m := range d.models {
		nextDelay := m.Profile()

		if d.NumHooks() > 0 {
			d.InvokeHook(hooking.HookCtx{
				Domain: d,
				Pos:    HookPosProfileSample,
				Item: ProfileSample{
					Model:     m.Name(),
					Cycle:     cycle,
					NextDelay: nextDelay,
				},
			})
		}
	}

	return d.cfg.ProfileInterval
}

func (d *Driver) concludeRun(
	endCycle, hostCycles uint64,
	wallSeconds float64,
) int {
	exitCode := d.ExitCode()

	report := Report{
		State:       d.state,
		Cycles:      endCycle,
		HostCycles:  hostCycles,
		WallSeconds: wallSeconds,
		ExitCode:    exitCode,
		ResetCycles: d.cfg.ResetCycles,
		TimedOut:    d.state == StateTimedOut,
	}

	if wallSeconds > 0 {
		report.SpeedKHz = float64(endCycle) / wallSeconds / 1000.0
	}

	if endCycle > 0 {
		report.FMR = float64(hostCycles) / float64(endCycle)
	}

	d.report = report
	d.printReport(report)

	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    HookPosRunReport,
		Item:   report,
	})

	switch {
	case exitCode != 0:
		return exitCode
	case report.TimedOut:
		return TimeoutExitCode
	default:
		return 0
	}
}

func (d *Driver) printReport(r Report) {
	// A newline first, so the report never shares a line with target output.
	fmt.Fprintf(os.Stderr, "\n")

	switch {
	case r.ExitCode != 0:
		fmt.Fprintf(os.Stderr, "*** FAILED *** (code = %d) after %d cycles\n",
			r.ExitCode, r.Cycles)
	case r.TimedOut:
		fmt.Fprintf(os.Stderr, "*** FAILED *** (timeout) after %d cycles\n",
			r.Cycles)
	default:
		fmt.Fprintf(os.Stderr, "*** PASSED *** after %d cycles\n", r.Cycles)
	}

	if r.SpeedKHz > 1000.0 {
		fmt.Fprintf(os.Stderr,
			"time elapsed: %.1f s, simulation speed = %.2f MHz\n",
			r.WallSeconds, r.SpeedKHz/1000.0)
	} else {
		fmt.Fprintf(os.Stderr,
			"time elapsed: %.1f s, simulation speed = %.2f KHz\n",
			r.WallSeconds, r.SpeedKHz)
	}

	fmt.Fprintf(os.Stderr,
		"FPGA-Cycles-to-Model-Cycles Ratio (FMR): %.2f\n", r.FMR)
}

// finish tears every handle down exactly once: models first, then bridges,
// regardless of which terminal state was reached.
func (d *Driver) finish() {
	if d.finished {
		return
	}

	d.finished = true

	for _, m := range d.models {
		m.Finish()
	}

	for _, b := range d.bridges {
		b.Finish()
	}
}

func (d *Driver) setState(s State) {
	d.state = s

	if d.NumHooks() > 0 {
		d.InvokeHook(hooking.HookCtx{
			Domain: d,
			Pos:    HookPosStateChange,
			Item:   s,
		})
	}
}
