package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"github.com/terra-clan/interview-coach/internal/models"
)

// Toolchain describes how one language is run inside a container. Script
// is a POSIX shell script; the program source is in /tmp/src and stdin is
// already redirected.
type Toolchain struct {
	Image  string
	File   string
	Script string
}

// DefaultToolchains are the images used when none are configured
var DefaultToolchains = map[string]Toolchain{
	"python":     {Image: "python:3.12-alpine", File: "main.py", Script: "python3 /tmp/src/main.py"},
	"javascript": {Image: "node:20-alpine", File: "main.js", Script: "node /tmp/src/main.js"},
	"java":       {Image: "eclipse-temurin:21-jdk-alpine", File: "Main.java", Script: "java /tmp/src/Main.java"},
	"cpp":        {Image: "gcc:13", File: "main.cpp", Script: "g++ -O2 -o /tmp/src/a.out /tmp/src/main.cpp && /tmp/src/a.out"},
	"scala":      {Image: "virtuslab/scala-cli:latest", File: "main.scala", Script: "scala-cli run --server=false -q /tmp/src/main.scala"},
}

// DockerConfig configures the container runner
type DockerConfig struct {
	Host        string
	PullPolicy  string // always, if-not-present, never
	Timeout     time.Duration
	MemoryBytes int64
	PidsLimit   int64
	NanoCPUs    int64
	Toolchains  map[string]Toolchain
}

// DockerRunner implements Executor with one throwaway container per run
type DockerRunner struct {
	docker *client.Client
	config DockerConfig
}

// NewDockerRunner connects to the Docker daemon
func NewDockerRunner(cfg DockerConfig) (*DockerRunner, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MemoryBytes <= 0 {
		cfg.MemoryBytes = 256 * 1024 * 1024
	}
	if cfg.PidsLimit <= 0 {
		cfg.PidsLimit = 64
	}
	if cfg.NanoCPUs <= 0 {
		cfg.NanoCPUs = 1_000_000_000
	}
	if len(cfg.Toolchains) == 0 {
		cfg.Toolchains = DefaultToolchains
	}
	if cfg.PullPolicy == "" {
		cfg.PullPolicy = "if-not-present"
	}

	return &DockerRunner{docker: cli, config: cfg}, nil
}

func (r *DockerRunner) Name() string { return BackendDocker }

// Ping checks Docker connectivity
func (r *DockerRunner) Ping(ctx context.Context) error {
	if _, err := r.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	return nil
}

// Close releases the Docker client
func (r *DockerRunner) Close() error {
	return r.docker.Close()
}

// Execute creates a container without network access, runs the program and
// removes the container
func (r *DockerRunner) Execute(ctx context.Context, code, language, stdin string) (*models.ExecutionResult, error) {
	tc, ok := r.config.Toolchains[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	if err := r.pullImage(ctx, tc.Image); err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", tc.Image, err)
	}

	name := "interview-run-" + uuid.New().String()[:12]
	resp, err := r.docker.ContainerCreate(ctx,
		&container.Config{
			Image:  tc.Image,
			Cmd:    []string{"sh", "-c", runScript(tc)},
			Env:    runEnv(code, stdin),
			Labels: map[string]string{"interview.managed": "true", "interview.language": language},
		},
		&container.HostConfig{
			NetworkMode: "none",
			Resources: container.Resources{
				Memory:    r.config.MemoryBytes,
				PidsLimit: &r.config.PidsLimit,
				NanoCPUs:  r.config.NanoCPUs,
			},
			RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyDisabled},
		},
		&network.NetworkingConfig{}, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.docker.ContainerRemove(rmCtx, resp.ID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("failed to remove run container", "container", resp.ID, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := r.docker.ContainerStart(runCtx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := r.docker.ContainerWait(runCtx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return &models.ExecutionResult{Error: fmt.Sprintf("Execution timed out after %s", r.config.Timeout)}, nil
		}
		return nil, fmt.Errorf("failed waiting for container: %w", err)
	case status := <-statusCh:
		exitCode = status.StatusCode
	}
	elapsed := time.Since(start)

	stdout, stderr, err := r.logs(ctx, resp.ID)
	if err != nil {
		return nil, err
	}

	slog.Debug("container run finished", "language", language, "exit_code", exitCode, "duration", elapsed)

	result := &models.ExecutionResult{
		Output:     stdout,
		CPUTimeSec: elapsed.Seconds(),
	}
	if exitCode != 0 {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = fmt.Sprintf("process exited with status %d", exitCode)
		}
		result.Error = msg
	}
	return result, nil
}

func (r *DockerRunner) logs(ctx context.Context, id string) (string, string, error) {
	rc, err := r.docker.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return "", "", fmt.Errorf("failed to read logs: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

func (r *DockerRunner) pullImage(ctx context.Context, image string) error {
	if r.config.PullPolicy == "never" {
		return nil
	}

	_, _, err := r.docker.ImageInspectWithRaw(ctx, image)
	if err == nil && r.config.PullPolicy == "if-not-present" {
		return nil
	}

	slog.Info("pulling image", "image", image)
	out, err := r.docker.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer out.Close()

	_, _ = io.Copy(io.Discard, out)
	return nil
}

// runScript decodes the injected source and stdin, then runs the toolchain
func runScript(tc Toolchain) string {
	return fmt.Sprintf(
		`mkdir -p /tmp/src && printf '%%s' "$RUN_CODE" | base64 -d > /tmp/src/%s && printf '%%s' "$RUN_STDIN" | base64 -d > /tmp/src/stdin && (%s) < /tmp/src/stdin`,
		tc.File, tc.Script,
	)
}

func runEnv(code, stdin string) []string {
	return []string{
		"RUN_CODE=" + base64.StdEncoding.EncodeToString([]byte(code)),
		"RUN_STDIN=" + base64.StdEncoding.EncodeToString([]byte(stdin)),
	}
}
