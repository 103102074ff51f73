package crfpp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"crf-trainer/internal/core/features"
)

// Algorithm values accepted by crf_learn -a.
const (
	AlgorithmL2   = "CRF-L2"
	AlgorithmL1   = "CRF-L1"
	AlgorithmMIRA = "MIRA"
)

type Options struct {
	LearnPath string `env:"CRF_LEARN_PATH" envDefault:"crf_learn"`
	TestPath  string `env:"CRF_TEST_PATH" envDefault:"crf_test"`

	Cost      float64 `env:"CRF_COST" envDefault:"0"`
	Freq      int     `env:"CRF_FREQ" envDefault:"0"`
	Threads   int     `env:"CRF_THREADS" envDefault:"0"`
	Algorithm string  `env:"CRF_ALGORITHM" envDefault:""`
	MaxIter   int     `env:"CRF_MAX_ITER" envDefault:"0"`

	// WorkDir holds the per-sentence tagger inputs. Defaults to os.TempDir.
	WorkDir string `env:"CRF_WORK_DIR" envDefault:""`
}

// CommandRunner executes an external command and returns its stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CRFPP binds Engine to the CRF++ crf_learn and crf_test executables.
type CRFPP struct {
	opts Options
	run  CommandRunner
}

var _ Engine = (*CRFPP)(nil)

func NewCRFPP(opts Options, run CommandRunner) (*CRFPP, error) {
	switch opts.Algorithm {
	case "", AlgorithmL2, AlgorithmL1, AlgorithmMIRA:
	default:
		return nil, fmt.Errorf("unknown crf_learn algorithm %q", opts.Algorithm)
	}
	if opts.LearnPath == "" {
		opts.LearnPath = "crf_learn"
	}
	if opts.TestPath == "" {
		opts.TestPath = "crf_test"
	}
	if run == nil {
		run = ExecRunner
	}
	return &CRFPP{opts: opts, run: run}, nil
}

func (c *CRFPP) learnArgs(featureFile, modelPath, templatePath string) []string {
	var args []string
	if c.opts.Cost > 0 {
		args = append(args, "-c", strconv.FormatFloat(c.opts.Cost, 'g', -1, 64))
	}
	if c.opts.Freq > 0 {
		args = append(args, "-f", strconv.Itoa(c.opts.Freq))
	}
	if c.opts.Threads > 0 {
		args = append(args, "-p", strconv.Itoa(c.opts.Threads))
	}
	if c.opts.Algorithm != "" {
		args = append(args, "-a", c.opts.Algorithm)
	}
	if c.opts.MaxIter > 0 {
		args = append(args, "-m", strconv.Itoa(c.opts.MaxIter))
	}
	return append(args, templatePath, featureFile, modelPath)
}

func (c *CRFPP) Fit(ctx context.Context, featureFile, modelPath, templatePath string) error {
	args := c.learnArgs(featureFile, modelPath, templatePath)
	cmdline := c.opts.LearnPath + " " + strings.Join(args, " ")

	slog.Info("running crf learner", "cmd", cmdline)
	_, stderr, err := c.run(ctx, c.opts.LearnPath, args...)
	if err != nil {
		return &EngineError{Op: "fit", Cmd: cmdline, Stderr: string(stderr), Err: err}
	}

	if _, err := os.Stat(modelPath); err != nil {
		return &EngineError{Op: "fit", Cmd: cmdline, Stderr: string(stderr), Err: fmt.Errorf("model file not written: %w", err)}
	}
	slog.Info("crf learner finished", "model", modelPath)
	return nil
}

func (c *CRFPP) Tag(ctx context.Context, modelPath string, rows []features.Row) ([]string, error) {
	tokens := 0
	for _, row := range rows {
		if !row.Boundary {
			tokens++
		}
	}
	if tokens == 0 {
		return nil, nil
	}

	input, err := os.CreateTemp(c.opts.WorkDir, "crf-tag-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create tagger input: %w", err)
	}
	defer os.Remove(input.Name())

	if err := features.WriteRows(input, rows, false); err != nil {
		input.Close()
		return nil, fmt.Errorf("failed to write tagger input %s: %w", input.Name(), err)
	}
	if err := input.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tagger input %s: %w", input.Name(), err)
	}

	args := []string{"-m", modelPath, input.Name()}
	cmdline := c.opts.TestPath + " " + strings.Join(args, " ")

	stdout, stderr, err := c.run(ctx, c.opts.TestPath, args...)
	if err != nil {
		return nil, &EngineError{Op: "tag", Cmd: cmdline, Stderr: string(stderr), Err: err}
	}

	labels, err := parseTaggerOutput(stdout)
	if err != nil {
		return nil, &EngineError{Op: "tag", Cmd: cmdline, Stderr: string(stderr), Err: err}
	}
	if len(labels) != tokens {
		return nil, &EngineError{Op: "tag", Cmd: cmdline, Stderr: string(stderr), Err: fmt.Errorf("tagger returned %d labels for %d tokens", len(labels), tokens)}
	}
	return labels, nil
}

// parseTaggerOutput reads crf_test output: the input columns followed by the predicted
// label, tab separated, with blank lines between sentences and '#' lines for
// verbose scores.
func parseTaggerOutput(out []byte) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		label := fields[len(fields)-1]
		if i := strings.LastIndexByte(label, '/'); i > 0 {
			// -v1 output appends "/probability" to the label.
			if _, err := strconv.ParseFloat(label[i+1:], 64); err == nil {
				label = label[:i]
			}
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading tagger output: %w", err)
	}
	return labels, nil
}
