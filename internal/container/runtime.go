// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs conversion images under docker or podman. Every
// container is sandboxed: no network, a read-only root filesystem, and no
// implicit image pulls.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds the "info" call used to check that an engine's daemon
// or service responds.
const probeTimeout = 10 * time.Second

// engine describes one container CLI.
type engine struct {
	bin        string
	imageCheck []string
}

// engines lists the supported CLIs in order of preference.
var engines = []engine{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

// sandboxFlags are passed to every "run".
var sandboxFlags = []string{"--rm", "-i", "--network=none", "--read-only", "--pull=never"}

// Runtime runs conversion images.
type Runtime interface {
	// Name returns the engine binary, "docker" or "podman".
	Name() string

	// Available reports whether the engine is on PATH and its "info"
	// command succeeds.
	Available() bool

	// ImageExists returns nil when image is present locally.
	ImageExists(image string) error

	// Run starts image with args, streaming stdin in and the container's
	// stdout to stdout. The container is killed when ctx is cancelled.
	Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error
}

// commander runs external commands; tests substitute a fake.
type commander interface {
	lookPath(file string) (string, error)
	run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osCommander struct{}

func (osCommander) lookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osCommander) run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// cliRuntime implements Runtime on top of one engine CLI.
type cliRuntime struct {
	engine
	cmd commander
}

func (r *cliRuntime) Name() string { return r.bin }

func (r *cliRuntime) Available() bool {
	if _, err := r.cmd.lookPath(r.bin); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return r.cmd.run(ctx, r.bin, []string{"info"}, nil, io.Discard, io.Discard) == nil
}

func (r *cliRuntime) ImageExists(image string) error {
	args := append(append([]string{}, r.imageCheck...), image)
	var stderr bytes.Buffer
	if err := r.cmd.run(context.Background(), r.bin, args, nil, io.Discard, &stderr); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, withDetail(err, &stderr))
	}
	return nil
}

func (r *cliRuntime) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	runArgs := make([]string, 0, 1+len(sandboxFlags)+1+len(args))
	runArgs = append(runArgs, "run")
	runArgs = append(runArgs, sandboxFlags...)
	runArgs = append(runArgs, image)
	runArgs = append(runArgs, args...)

	var stderr bytes.Buffer
	if err := r.cmd.run(ctx, r.bin, runArgs, stdin, stdout, &stderr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s container %s stopped: %w", r.bin, image, ctxErr)
		}
		return fmt.Errorf("%s container %s failed: %w", r.bin, image, withDetail(err, &stderr))
	}
	return nil
}

// withDetail appends the last line the command wrote to stderr, if any.
func withDetail(err error, stderr *bytes.Buffer) error {
	out := strings.TrimSpace(stderr.String())
	if out == "" {
		return err
	}
	if i := strings.LastIndexByte(out, '\n'); i >= 0 {
		out = strings.TrimSpace(out[i+1:])
	}
	return fmt.Errorf("%w: %s", err, out)
}

// DetectRuntime returns the first available engine: docker, then podman.
func DetectRuntime() (Runtime, error) {
	return detect(osCommander{})
}

func detect(cmd commander) (Runtime, error) {
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		rt := &cliRuntime{engine: e, cmd: cmd}
		if rt.Available() {
			return rt, nil
		}
		names = append(names, e.bin)
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(names, ", "))
}
