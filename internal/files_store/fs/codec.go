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

package fs

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

// LoadFile decodes a PNG or JPEG file into a packed RGB frame.
func LoadFile(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a PNG or JPEG image into a packed RGB frame. Alpha is dropped.
func Decode(r io.Reader) (*frame.Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	f, err := frame.New(b.Dx(), b.Dy(), frame.RGBChannels)
	if err != nil {
		return nil, err
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			f.Data[i], f.Data[i+1], f.Data[i+2] = c.R, c.G, c.B
			i += frame.RGBChannels
		}
	}
	return f, nil
}

// Encode writes an RGB frame as an opaque PNG.
func Encode(w io.Writer, f *frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Channels != frame.RGBChannels {
		return fmt.Errorf("cannot encode a %d channel frame", f.Channels)
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for p := 0; p < f.Width*f.Height; p++ {
		src := f.Data[p*3 : p*3+3]
		dst := img.Pix[p*4 : p*4+4]
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xff
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}
