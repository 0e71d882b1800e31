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

// Package frame defines the opaque pixel buffer exchanged between callers and engines.
package frame

import (
	"fmt"
)

// RGBChannels is the channel count of a packed 8-bit RGB frame.
const RGBChannels = 3

// Frame is a packed, interleaved 8-bit buffer. Pixel layout and byte order are
// negotiated by the caller; the scheduler only relies on the dimensions.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Data     []byte
}

// New allocates a zeroed frame of the given shape.
func New(width, height, channels int) (*Frame, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid frame shape %dx%dx%d", width, height, channels)
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]byte, width*height*channels),
	}, nil
}

// FromRGB wraps an existing packed RGB buffer without copying it.
func FromRGB(width, height int, data []byte) (*Frame, error) {
	f := &Frame{Width: width, Height: height, Channels: RGBChannels, Data: data}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that the buffer length matches the declared shape.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("frame is nil")
	}
	if f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid frame shape %dx%dx%d", f.Width, f.Height, f.Channels)
	}
	if want := f.Width * f.Height * f.Channels; len(f.Data) != want {
		return fmt.Errorf("frame buffer has %d bytes, shape %dx%dx%d needs %d",
			len(f.Data), f.Width, f.Height, f.Channels, want)
	}
	return nil
}

// SameShape reports whether both frames have identical dimensions.
func (f *Frame) SameShape(o *Frame) bool {
	if f == nil || o == nil {
		return false
	}
	return f.Width == o.Width && f.Height == o.Height && f.Channels == o.Channels
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Frame{Width: f.Width, Height: f.Height, Channels: f.Channels, Data: data}
}

func (f *Frame) String() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%dx%dx%d", f.Width, f.Height, f.Channels)
}
