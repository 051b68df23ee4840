package image

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moby/go-archive"
	"github.com/moby/go-archive/compression"
	"github.com/moby/patternmatcher/ignorefile"
)

// DockerIgnore is the file listing context entries not sent to the engine.
const DockerIgnore = ".dockerignore"

// contextExcludes reads dir/.dockerignore. The Dockerfile and the ignore
// file itself are always sent, as the engine needs both.
func contextExcludes(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, DockerIgnore))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	excludes, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DockerIgnore, err)
	}
	if len(excludes) == 0 {
		return nil, nil
	}
	return append(excludes, "!"+Dockerfile, "!"+DockerIgnore), nil
}

// buildContext returns dir as a gzip-compressed tar with paths relative to
// dir. Symlinks are archived as links and .dockerignore patterns apply.
func buildContext(dir string) (io.ReadCloser, error) {
	excludes, err := contextExcludes(dir)
	if err != nil {
		return nil, err
	}
	return archive.TarWithOptions(dir, &archive.TarOptions{
		ExcludePatterns: excludes,
		Compression:     compression.Gzip,
	})
}
