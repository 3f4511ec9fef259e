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

package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	BEEP_SAMPLE_RATE = 44100
	BEEP_FREQUENCY   = 440
	BEEP_VOLUME      = 0.15
)

// beeper plays a square wave while the sound timer is running. The player
// never stops; silence is streamed as zero samples.
type beeper struct {
	ctx    *oto.Context
	player *oto.Player
	on     atomic.Bool
	phase  int
}

func newBeeper() (*beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   BEEP_SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	b := &beeper{ctx: ctx}
	b.player = ctx.NewPlayer(b)
	b.player.Play()

	return b, nil
}

func (b *beeper) Set(on bool) {
	b.on.Store(on)
}

// Read is called by the audio driver.
func (b *beeper) Read(p []byte) (int, error) {
	const period = BEEP_SAMPLE_RATE / BEEP_FREQUENCY

	on := b.on.Load()
	samples := len(p) / 4

	for i := 0; i < samples; i++ {
		var sample float32

		if on {
			if b.phase < period/2 {
				sample = BEEP_VOLUME
			} else {
				sample = -BEEP_VOLUME
			}
		}

		b.phase = (b.phase + 1) % period

		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	return samples * 4, nil
}

func (b *beeper) Close() {
	b.on.Store(false)
	b.player.Pause()
}
