package telemetry

import (
	"github.com/rs/xid"

	"github.com/sarchlab/bridgesim/cosim"
	"github.com/sarchlab/bridgesim/hooking"
)

// ProfileRow is one stored model profile sample.
type ProfileRow struct {
	Run       string
	Model     string
	Cycle     uint64
	NextDelay uint64
}

// ReportRow is one stored end-of-run report.
type ReportRow struct {
	Run         string
	State       string
	Cycles      uint64
	HostCycles  uint64
	WallSeconds float64
	SpeedKHz    float64
	FMR         float64
	ExitCode    int
	TimedOut    bool
}

// A RunRecorder is a driver hook that persists profile samples and the final
// run report. All rows of one process share a generated run ID, so multiple
// runs can land in the same database.
type RunRecorder struct {
	rec DataRecorder
	run string
}

// NewRunRecorder creates the recorder hook and its tables. Attach it to a
// driver with AcceptHook.
func NewRunRecorder(rec DataRecorder) *RunRecorder {
	r := &RunRecorder{
		rec: rec,
		run: xid.New().String(),
	}

	rec.CreateTable("profile_samples", ProfileRow{})
	rec.CreateTable("run_reports", ReportRow{})

	return r
}

// RunID returns the generated identifier shared by all rows of this run.
func (r *RunRecorder) RunID() string {
	return r.run
}

// Func stores the hooked item. Unrelated hook positions are ignored.
func (r *RunRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cosim.HookPosProfileSample:
		s := ctx.Item.(cosim.ProfileSample)
		r.rec.InsertData("profile_samples", ProfileRow{
			Run:       r.run,
			Model:     s.Model,
			Cycle:     s.Cycle,
			NextDelay: s.NextDelay,
		})
	case cosim.HookPosRunReport:
		rep := ctx.Item.(cosim.Report)
		r.rec.InsertData("run_reports", ReportRow{
			Run:         r.run,
			State:       rep.State.String(),
			Cycles:      rep.Cycles,
			HostCycles:  rep.HostCycles,
			WallSeconds: rep.WallSeconds,
			SpeedKHz:    rep.SpeedKHz,
			FMR:         rep.FMR,
			ExitCode:    rep.ExitCode,
			TimedOut:    rep.TimedOut,
		})
		r.rec.Flush()
	}
}
