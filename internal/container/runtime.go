// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a local container runtime (docker or podman)
// and streams data through short-lived containers. The conversion stage
// uses it to run poppler's pdftotext without a host install.
// Implements: prd005-conversion (R3.1-R3.4); docs/ARCHITECTURE § Conversion.
package container

import (
	"fmt"
	"io"
	"os/exec"
)

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Run executes cmd inside a container of the given image, piping
	// stdin and stdout through it.
	Run(image string, cmd []string, stdin io.Reader, stdout io.Writer) error
}

// commandRunner abstracts command execution for testing.
type commandRunner interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) error
	RunStreamed(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// execRunner is the production commandRunner backed by os/exec.
type execRunner struct{}

func (execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (execRunner) RunStreamed(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// cliRuntime drives a container engine through its CLI. Docker and podman
// take the same run arguments; only the image-existence subcommand differs.
type cliRuntime struct {
	bin         string
	inspectArgs []string
	runner      commandRunner
}

func (r *cliRuntime) Name() string { return r.bin }

func (r *cliRuntime) Available() bool {
	if _, err := r.runner.LookPath(r.bin); err != nil {
		return false
	}
	// The binary can be on PATH with no reachable daemon; "info" catches that.
	return r.runner.Run(r.bin, "info") == nil
}

func (r *cliRuntime) ImageExists(image string) error {
	args := append(append([]string{}, r.inspectArgs...), image)
	if err := r.runner.Run(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *cliRuntime) Run(image string, cmd []string, stdin io.Reader, stdout io.Writer) error {
	args := append([]string{"run", "--rm", "-i", image}, cmd...)
	if err := r.runner.RunStreamed(r.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// knownRuntimes lists the supported engines in detection order.
func knownRuntimes(runner commandRunner) []*cliRuntime {
	return []*cliRuntime{
		{bin: "docker", inspectArgs: []string{"image", "inspect"}, runner: runner},
		{bin: "podman", inspectArgs: []string{"image", "exists"}, runner: runner},
	}
}

var defaultRunner = execRunner{}

// DetectRuntime returns the first operational container runtime, preferring
// docker over podman. Returns an error when neither is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultRunner)
}

func detectRuntime(runner commandRunner) (Runtime, error) {
	candidates := knownRuntimes(runner)
	for _, rt := range candidates {
		if rt.Available() {
			return rt, nil
		}
	}

	names := make([]string, len(candidates))
	for i, rt := range candidates {
		names[i] = rt.bin
	}
	return nil, fmt.Errorf("no container runtime available: tried %v", names)
}
