package core

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

type Stage string

const (
	StageFit      Stage = "fit"
	StageEvaluate Stage = "evaluate"
)

const (
	DefaultFitProgressInterval  = 500
	DefaultEvalProgressInterval = 200
)

// Progress receives per-sentence events from the trainer. Step is called before
// sentence done (0-based) of the stage is processed.
type Progress interface {
	Start(stage Stage, total int)
	Step(stage Stage, done int)
	Finish(stage Stage)
}

type NoProgress struct{}

func (NoProgress) Start(Stage, int) {}
func (NoProgress) Step(Stage, int)  {}
func (NoProgress) Finish(Stage)     {}

// LogProgress writes a structured log line every Interval[stage] sentences.
type LogProgress struct {
	Logger   *slog.Logger
	Interval map[Stage]int

	totals map[Stage]int
}

func NewLogProgress(logger *slog.Logger, fitEvery, evalEvery int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{
		Logger:   logger,
		Interval: map[Stage]int{StageFit: fitEvery, StageEvaluate: evalEvery},
		totals:   make(map[Stage]int),
	}
}

func (p *LogProgress) Start(stage Stage, total int) {
	p.totals[stage] = total
	p.Logger.Info("stage started", "stage", stage, "sentences", total)
}

func (p *LogProgress) Step(stage Stage, done int) {
	every := p.Interval[stage]
	if every <= 0 || done%every != 0 {
		return
	}
	p.Logger.Info("progress", "stage", stage, "done", done, "total", p.totals[stage])
}

func (p *LogProgress) Finish(stage Stage) {
	p.Logger.Info("stage finished", "stage", stage, "sentences", p.totals[stage])
}

// BarProgress renders a terminal progress bar per stage.
type BarProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func NewBarProgress(out io.Writer) *BarProgress {
	return &BarProgress{out: out}
}

func (p *BarProgress) Start(stage Stage, total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(fmt.Sprintf("⏳ %s", stage)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *BarProgress) Step(stage Stage, done int) {
	if p.bar != nil {
		_ = p.bar.Set(done + 1)
	}
}

func (p *BarProgress) Finish(stage Stage) {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func NewProgress(kind string, out io.Writer) (Progress, error) {
	switch kind {
	case "", "log":
		return NewLogProgress(slog.Default(), DefaultFitProgressInterval, DefaultEvalProgressInterval), nil
	case "bar":
		return NewBarProgress(out), nil
	case "none":
		return NoProgress{}, nil
	default:
		return nil, fmt.Errorf("unknown progress reporter %q", kind)
	}
}
