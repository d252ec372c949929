package decrypt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MethodQPDF   = "qpdf"
	MethodPDFCPU = "pdfcpu"
)

var knownMethods = []string{MethodQPDF, MethodPDFCPU}

// qpdf exits 3 when it succeeded with warnings.
const qpdfWarningExit = 3

// Capability removes PDF encryption. Its presence is not guaranteed in
// every deployment, so callers probe Available before Decrypt.
type Capability interface {
	Name() string
	Available(ctx context.Context) bool
	Decrypt(ctx context.Context, data []byte) ([]byte, error)
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct {
	waitDelay time.Duration
}

// Run kills the process when ctx is done. WaitDelay bounds how long Wait
// blocks on pipes held open by an orphaned child.
func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = r.waitDelay
	return cmd.CombinedOutput()
}

// QPDF decrypts by shelling out to the qpdf binary.
type QPDF struct {
	path     string
	password string
	runner   Runner
	lookPath func(string) (string, error)
}

// NewQPDF creates a qpdf capability using the binary at path (resolved via PATH).
func NewQPDF(path, password string) *QPDF {
	return NewQPDFWithRunner(path, password, execRunner{waitDelay: 2 * time.Second}, exec.LookPath)
}

// NewQPDFWithRunner creates a qpdf capability with an injected runner and
// binary lookup.
func NewQPDFWithRunner(path, password string, runner Runner, lookPath func(string) (string, error)) *QPDF {
	return &QPDF{
		path:     path,
		password: password,
		runner:   runner,
		lookPath: lookPath,
	}
}

func (q *QPDF) Name() string { return MethodQPDF }

func (q *QPDF) Available(_ context.Context) bool {
	_, err := q.lookPath(q.path)
	return err == nil
}

func (q *QPDF) Decrypt(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "courier-decrypt-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")

	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	args := []string{"--decrypt"}
	if q.password != "" {
		pw := filepath.Join(dir, "password")
		if err := os.WriteFile(pw, []byte(q.password), 0o600); err != nil {
			return nil, fmt.Errorf("write password file: %w", err)
		}
		args = append(args, "--password-file="+pw)
	}
	args = append(args, in, out)

	output, err := q.runner.Run(ctx, q.path, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != qpdfWarningExit {
			return nil, fmt.Errorf("qpdf failed: %w: %s", err, strings.TrimSpace(string(output)))
		}
	}

	plain, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read qpdf output: %w", err)
	}
	return plain, nil
}

// PDFCPU decrypts in-process with pdfcpu.
type PDFCPU struct {
	password string
}

// NewPDFCPU creates an in-process pdfcpu capability.
func NewPDFCPU(password string) *PDFCPU {
	return &PDFCPU{password: password}
}

func (p *PDFCPU) Name() string { return MethodPDFCPU }

func (p *PDFCPU) Available(_ context.Context) bool { return true }

// Decrypt runs to completion once started; pdfcpu cannot be interrupted
// mid-parse. The adapter stops waiting on timeout but keeps the concurrency
// slot until this returns.
func (p *PDFCPU) Decrypt(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = p.password
	conf.OwnerPW = p.password

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu decrypt: %w", err)
	}
	return buf.Bytes(), nil
}

// NewCapabilities builds capabilities in the order listed by cfg.Methods.
func NewCapabilities(cfg *Config) ([]Capability, error) {
	caps := make([]Capability, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		switch m {
		case MethodQPDF:
			caps = append(caps, NewQPDF(cfg.QPDFPath, cfg.Password))
		case MethodPDFCPU:
			caps = append(caps, NewPDFCPU(cfg.Password))
		default:
			return nil, fmt.Errorf("unknown decryption method: %s", m)
		}
	}
	return caps, nil
}
