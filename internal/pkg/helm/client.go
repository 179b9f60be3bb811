/*
Copyright 2026 The Manifest Builder contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package helm wraps the helm binary and chart retrieval.
package helm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner runs an external command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- args are constructed internally
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Timeouts bound every helm invocation.
type Timeouts struct {
	Probe    time.Duration
	Template time.Duration
	Pull     time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:    5 * time.Second,
		Template: 60 * time.Second,
		Pull:     120 * time.Second,
	}
}

// Client runs helm commands. Failed commands are never retried.
type Client struct {
	binary   string
	runner   Runner
	timeouts Timeouts
	log      *zap.SugaredLogger

	probeOnce sync.Once
	probeErr  error
}

// NewClient returns a client for the helm binary. A nil runner runs real subprocesses.
func NewClient(log *zap.SugaredLogger, binary string, runner Runner, timeouts Timeouts) *Client {
	if binary == "" {
		binary = "helm"
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	return &Client{
		binary:   binary,
		runner:   runner,
		timeouts: timeouts,
		log:      log,
	}
}

// TemplateRequest describes a `helm template` call.
type TemplateRequest struct {
	ReleaseName string
	// Chart is a local chart directory or a reference helm can resolve itself.
	Chart     string
	Namespace string
	// ValuesFiles are applied in order.
	ValuesFiles []string
	// Version is passed for charts helm resolves itself. It is ignored by helm for local charts.
	Version string
}

func (r TemplateRequest) args() []string {
	args := []string{"template", r.ReleaseName, r.Chart, "--namespace", r.Namespace}
	for _, f := range r.ValuesFiles {
		args = append(args, "-f", f)
	}
	if r.Version != "" {
		args = append(args, "--version", r.Version)
	}
	return args
}

// PullRequest describes a `helm pull --untar` call.
type PullRequest struct {
	// Chart is the chart name within Repo. It is not used for OCI repositories.
	Chart string
	// Repo is an HTTP(S) repository URL or the oci:// reference of the chart.
	Repo    string
	Version string
	// Dest is the directory the chart is unpacked into.
	Dest string
}

func (r PullRequest) args() []string {
	var args []string
	if isOCI(r.Repo) {
		args = []string{"pull", r.Repo}
	} else {
		args = []string{"pull", r.Chart, "--repo", r.Repo}
	}

	args = append(args, "--untar", "--untardir", r.Dest)
	if r.Version != "" {
		args = append(args, "--version", r.Version)
	}
	return args
}

// Available checks once that the helm binary can be executed.
func (c *Client) Available(ctx context.Context) error {
	c.probeOnce.Do(func() {
		out, err := c.run(ctx, c.timeouts.Probe, "version", "--short")
		if err != nil {
			var toolErr *ToolError
			if errors.As(err, &toolErr) && errors.Is(toolErr.Err, exec.ErrNotFound) {
				err = fmt.Errorf("%s is not installed or not available in PATH, see https://helm.sh/docs/intro/install/: %w", c.binary, err)
			}
			c.probeErr = err
			return
		}
		c.log.Debugw("Found helm", "version", string(bytes.TrimSpace(out)))
	})

	return c.probeErr
}

// Template renders a chart and returns the multi-document YAML output.
func (c *Client) Template(ctx context.Context, req TemplateRequest) ([]byte, error) {
	if err := c.Available(ctx); err != nil {
		return nil, err
	}

	c.log.Debugw("Rendering chart", "release", req.ReleaseName, "chart", req.Chart, "namespace", req.Namespace)
	return c.run(ctx, c.timeouts.Template, req.args()...)
}

// Pull downloads and unpacks a chart.
func (c *Client) Pull(ctx context.Context, req PullRequest) error {
	if err := c.Available(ctx); err != nil {
		return err
	}

	c.log.Debugw("Pulling chart", "chart", req.Chart, "repo", req.Repo, "version", req.Version)
	_, err := c.run(ctx, c.timeouts.Pull, req.args()...)
	return err
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout, stderr, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		toolErr := &ToolError{
			Tool:   c.binary,
			Args:   args,
			Stderr: string(stderr),
			Err:    err,
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			toolErr.Timeout = timeout
		}
		return nil, toolErr
	}

	return stdout, nil
}
