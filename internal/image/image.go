// Package image checks the container engine and builds the classifier
// image from a local build context.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/rs/zerolog/log"
)

// Defaults for Build.
const (
	DefaultContextDir = "./src"
	DefaultTag        = "query_intent:latest"
	Dockerfile        = "Dockerfile"
)

// ErrMissingFile is returned when the build context lacks a required entry.
var ErrMissingFile = errors.New("missing required file")

// Engine is the subset of the Docker client used here.
type Engine interface {
	Ping(ctx context.Context) (types.Ping, error)
	ServerVersion(ctx context.Context) (types.Version, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	Close() error
}

// Builder builds images through Engine.
type Builder struct {
	Engine Engine
	// Required lists entries that must exist in the context directory.
	// Dockerfile is always required.
	Required []string
	// Output receives the build progress. Nil discards it.
	Output io.Writer
}

// NewBuilder connects to the engine configured by the DOCKER_* environment.
func NewBuilder(required []string, out io.Writer) (*Builder, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Builder{Engine: cli, Required: required, Output: out}, nil
}

// Close releases the engine client.
func (b *Builder) Close() error { return b.Engine.Close() }

// Check pings the engine and returns its version string.
func (b *Builder) Check(ctx context.Context) (string, error) {
	if _, err := b.Engine.Ping(ctx); err != nil {
		return "", fmt.Errorf("docker engine not reachable: %w", err)
	}
	v, err := b.Engine.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("docker version: %w", err)
	}
	return fmt.Sprintf("%s (API %s, %s/%s)", v.Version, v.APIVersion, v.Os, v.Arch), nil
}

// Verify reports the first required entry missing from dir.
func (b *Builder) Verify(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build context %s is not a directory", dir)
	}
	for _, name := range append([]string{Dockerfile}, b.Required...) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
	}
	return nil
}

// Build verifies dir, sends it as the build context and streams the
// engine's progress messages to Output. A failed build step is returned as
// an error.
func (b *Builder) Build(ctx context.Context, dir, tag string) error {
	if err := b.Verify(dir); err != nil {
		return err
	}
	bc, err := buildContext(dir)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	defer bc.Close()

	resp, err := b.Engine.ImageBuild(ctx, bc, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: Dockerfile,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	defer resp.Body.Close()

	out := b.Output
	if out == nil {
		out = io.Discard
	}
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, nil); err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	log.Info().Str("tag", tag).Str("context", dir).Msg("image built")
	return nil
}
