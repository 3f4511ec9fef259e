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

// Package keyboard implements the 16-key hexadecimal keypad.
//
// The original keypad is laid out as
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
//
// and DEFAULT_MAP places it on the left block of a QWERTY keyboard.
package keyboard

import (
	"context"
	"errors"
	"sync"
)

const KEY_COUNT = 16

// DEFAULT_MAP is indexed by keypad key; the rune at index k maps to key k.
const DEFAULT_MAP = "x123qweasdzc4rfv"

var ErrInvalidMap = errors.New("key map must contain exactly 16 keys")

type Keypad struct {
	mu      sync.Mutex
	keys    [KEY_COUNT]bool
	mapping []rune
	waiters []chan byte
}

func New() *Keypad {
	k := &Keypad{}
	k.mapping = []rune(DEFAULT_MAP)
	return k
}

// SetMap replaces the host key map.
func (k *Keypad) SetMap(mapping string) error {
	runes := []rune(mapping)
	if len(runes) != KEY_COUNT {
		return ErrInvalidMap
	}

	k.mu.Lock()
	k.mapping = runes
	k.mu.Unlock()

	return nil
}

// Translate maps a host key to a keypad key.
func (k *Keypad) Translate(r rune) (byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, m := range k.mapping {
		if m == r {
			return byte(i), true
		}
	}

	return 0, false
}

func (k *Keypad) Down(key byte) {
	if key >= KEY_COUNT {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[key] = true

	for _, w := range k.waiters {
		w <- key
	}
	k.waiters = nil
}

func (k *Keypad) Up(key byte) {
	if key >= KEY_COUNT {
		return
	}

	k.mu.Lock()
	k.keys[key] = false
	k.mu.Unlock()
}

func (k *Keypad) IsDown(key byte) bool {
	if key >= KEY_COUNT {
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	return k.keys[key]
}

// Press translates r and marks the key down. Unmapped runes are ignored.
func (k *Keypad) Press(r rune) bool {
	key, ok := k.Translate(r)
	if ok {
		k.Down(key)
	}
	return ok
}

func (k *Keypad) Release(r rune) bool {
	key, ok := k.Translate(r)
	if ok {
		k.Up(key)
	}
	return ok
}

// ReleaseAll clears every key. Terminals never report key-up events.
func (k *Keypad) ReleaseAll() {
	k.mu.Lock()
	k.keys = [KEY_COUNT]bool{}
	k.mu.Unlock()
}

// AwaitKey blocks until the next key down event or until ctx is done. Keys
// already held when the call starts do not count.
func (k *Keypad) AwaitKey(ctx context.Context) (byte, error) {
	ch := make(chan byte, 1)

	k.mu.Lock()
	k.waiters = append(k.waiters, ch)
	k.mu.Unlock()

	select {
	case key := <-ch:
		return key, nil

	case <-ctx.Done():
		k.mu.Lock()
		defer k.mu.Unlock()

		for i, w := range k.waiters {
			if w == ch {
				k.waiters = append(k.waiters[:i], k.waiters[i+1:]...)
				break
			}
		}

		// A press may have raced the cancellation
		select {
		case key := <-ch:
			return key, nil
		default:
			return 0, ctx.Err()
		}
	}
}
