/*
Copyright 2026 The llm-d Authors

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

// Package fs stores interpolated frames as PNG files under a base directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

// ErrFileExists is returned when attempting to store a frame that already exists.
var ErrFileExists = errors.New("file already exists")

// FrameMetadata describes a stored frame file.
type FrameMetadata struct {
	Location string
	Size     int64
	ModTime  time.Time
}

// Client stores frames below a base directory.
type Client struct {
	basePath string
}

// New creates the base directory if needed and returns a client rooted there.
func New(basePath string) (*Client, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Client{basePath: filepath.Clean(absPath)}, nil
}

// BasePath returns the absolute base directory.
func (c *Client) BasePath() string {
	return c.basePath
}

// resolvePath sanitizes and resolves a location to a full path, preventing path traversal.
func (c *Client) resolvePath(location string) (string, error) {
	fullPath := filepath.Join(c.basePath, filepath.Clean(location))
	if !strings.HasPrefix(fullPath, c.basePath+string(os.PathSeparator)) &&
		fullPath != filepath.Clean(c.basePath) {
		return "", fmt.Errorf("invalid path: %w", os.ErrInvalid)
	}
	return fullPath, nil
}

// Store encodes f as PNG at location. The file appears atomically; readers never
// see a partial frame.
func (c *Client) Store(ctx context.Context, location string, f *frame.Frame) (*FrameMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := c.resolvePath(location)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(fullPath); err == nil {
		return nil, ErrFileExists
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		// Clean up on error.
		_ = os.Remove(tmpPath)
	}()

	if err := Encode(tmpFile, f); err != nil {
		_ = tmpFile.Close()
		return nil, err
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	return stat(fullPath)
}

// Retrieve decodes the frame stored at location.
func (c *Client) Retrieve(ctx context.Context, location string) (*frame.Frame, *FrameMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fullPath, err := c.resolvePath(location)
	if err != nil {
		return nil, nil, err
	}

	f, err := LoadFile(fullPath)
	if err != nil {
		return nil, nil, err
	}
	md, err := stat(fullPath)
	if err != nil {
		return nil, nil, err
	}
	return f, md, nil
}

// List lists files matching the pattern in name order.
func (c *Client) List(ctx context.Context, location string) ([]FrameMetadata, error) {
	fullPattern, err := c.resolvePath(location)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	sort.Strings(matches)

	var files []FrameMetadata
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue // Skip files that can't be stat'd.
		}
		if info.IsDir() {
			continue // Skip directories.
		}
		files = append(files, FrameMetadata{
			Location: match,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	return files, nil
}

// Delete deletes a frame file.
func (c *Client) Delete(ctx context.Context, location string) error {
	fullPath, err := c.resolvePath(location)
	if err != nil {
		return err
	}

	return os.Remove(fullPath)
}

func stat(path string) (*FrameMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &FrameMetadata{
		Location: path,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}
