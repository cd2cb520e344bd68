// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package frame

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlnoga/rgtools/internal/rg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Reads a PNG, JPEG, TIFF or BMP image file into an integer frame
func Load(fileName string) (*Frame, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	f, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	f.FileName = fileName
	return f, nil
}

// Decodes an image in any registered format into an integer frame. Grayscale images
// give gray frames, everything else RGB. 16-bit images keep their depth
func Decode(r io.Reader) (*Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// Converts a Go image into an integer frame
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	family, bits := RGB, 8
	switch img.ColorModel() {
	case color.GrayModel:
		family = Gray
	case color.Gray16Model:
		family, bits = Gray, 16
	case color.RGBA64Model, color.NRGBA64Model:
		bits = 16
	}
	f := New(width, height, family, rg.Format{Integer: true, Bits: bits})
	shift := uint(16 - bits)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if family == Gray {
				g := color.Gray16Model.Convert(c).(color.Gray16)
				f.Planes[0][i] = float32(g.Y >> shift)
				continue
			}
			r, g, bl, _ := c.RGBA()
			f.Planes[0][i] = float32(r >> shift)
			f.Planes[1][i] = float32(g >> shift)
			f.Planes[2][i] = float32(bl >> shift)
		}
	}
	return f
}

// Converts the frame into a Go image. Frames are converted to RGB unless gray, and to
// 8 or 16 bit integer samples, whichever is closer to the frame's depth
func (f *Frame) ToImage(workers int) (image.Image, error) {
	src := f
	var err error
	if f.Family != Gray && f.Family != RGB {
		if src, err = src.ToFamily(RGB, workers); err != nil {
			return nil, err
		}
	}
	bits := 16
	if f.Format.Integer && f.Format.Bits <= 8 {
		bits = 8
	}
	if !src.Format.Integer || src.Format.Bits != bits {
		if src, err = src.ToInteger(bits, workers); err != nil {
			return nil, err
		}
	}
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch {
	case src.Family == Gray && bits == 8:
		img := image.NewGray(rect)
		for i, v := range src.Planes[0] {
			img.Pix[i] = uint8(v)
		}
		return img, nil
	case src.Family == Gray:
		img := image.NewGray16(rect)
		for i, v := range src.Planes[0] {
			img.SetGray16(i%f.Width, i/f.Width, color.Gray16{Y: uint16(v)})
		}
		return img, nil
	case bits == 8:
		img := image.NewRGBA(rect)
		for i := range src.Planes[0] {
			img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = uint8(src.Planes[0][i]), uint8(src.Planes[1][i]), uint8(src.Planes[2][i]), 255
		}
		return img, nil
	}
	img := image.NewRGBA64(rect)
	for i := range src.Planes[0] {
		c := color.RGBA64{R: uint16(src.Planes[0][i]), G: uint16(src.Planes[1][i]), B: uint16(src.Planes[2][i]), A: 65535}
		img.SetRGBA64(i%f.Width, i/f.Width, c)
	}
	return img, nil
}

// Writes the frame to a file, choosing the encoder by extension: .png, .tif/.tiff, .jpg/.jpeg or .bmp
func (f *Frame) Save(fileName string, workers int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := f.Encode(writer, filepath.Ext(fileName), workers); err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	return writer.Flush()
}

// Encodes the frame in the format named by the file extension
func (f *Frame) Encode(w io.Writer, ext string, workers int) error {
	img, err := f.ToImage(workers)
	if err != nil {
		return err
	}
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case ".bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unknown image file extension '%s'", ext)
}
