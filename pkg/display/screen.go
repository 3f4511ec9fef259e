// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package display implements the 64x32 monochrome framebuffer.
package display

import (
	"image"
	"image/color"
	"strings"
	"sync"
)

const (
	WIDTH  = 64
	HEIGHT = 32
)

// Screen is written by the machine goroutine and read by frontends.
type Screen struct {
	mu     sync.RWMutex
	pixels [HEIGHT][WIDTH]bool
	dirty  bool
}

func New() *Screen {
	return &Screen{dirty: true}
}

func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pixels = [HEIGHT][WIDTH]bool{}
	s.dirty = true
}

// DrawSprite XORs each sprite row onto the framebuffer starting at (x, y).
// Coordinates wrap per pixel. Returns true if any lit pixel was turned off.
func (s *Screen) DrawSprite(x, y byte, sprite []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	collision := false

	for row, bits := range sprite {
		py := (int(y) + row) % HEIGHT

		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			px := (int(x) + col) % WIDTH

			if s.pixels[py][px] {
				collision = true
			}

			s.pixels[py][px] = !s.pixels[py][px]
		}
	}

	s.dirty = true
	return collision
}

// Pixel reports whether (x, y) is lit. Out of range coordinates wrap.
func (s *Screen) Pixel(x, y int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pixels[mod(y, HEIGHT)][mod(x, WIDTH)]
}

func (s *Screen) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

func (s *Screen) ClearDirty() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// RGBA renders the framebuffer at one image pixel per screen pixel.
func (s *Screen) RGBA(on, off color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, WIDTH, HEIGHT))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for y := 0; y < HEIGHT; y++ {
		for x := 0; x < WIDTH; x++ {
			if s.pixels[y][x] {
				img.Set(x, y, on)
			} else {
				img.Set(x, y, off)
			}
		}
	}

	return img
}

// String packs two rows into each line using half block characters.
func (s *Screen) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.Grow((WIDTH*3 + 1) * HEIGHT / 2)

	for y := 0; y < HEIGHT; y += 2 {
		for x := 0; x < WIDTH; x++ {
			top := s.pixels[y][x]
			bottom := s.pixels[y+1][x]

			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
