// Package sound synthesizes the foreground alert chime and plays it through
// an external player command.
package sound

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/colonyops/ordernotify/pkg/executil"
)

// ErrNoPlayer is returned when no player command is configured.
var ErrNoPlayer = errors.New("no sound player configured")

const (
	SampleRate = 44100

	firstFreq  = 880.0  // A5
	secondFreq = 1100.0 // C#6
	switchAt   = 0.12
	duration   = 0.7
	startGain  = 0.35
	endGain    = 0.001
)

// Chime renders the two-tone alert as mono float samples in [-1, 1].
func Chime() []float64 {
	n := int(duration * SampleRate)
	out := make([]float64, n)

	phase := 0.0
	for i := range out {
		t := float64(i) / SampleRate
		freq := firstFreq
		if t >= switchAt {
			freq = secondFreq
		}
		gain := startGain * math.Pow(endGain/startGain, t/duration)
		out[i] = gain * math.Sin(phase)
		phase += 2 * math.Pi * freq / SampleRate
	}
	return out
}

// WAV encodes samples as a 16-bit PCM mono RIFF file.
func WAV(samples []float64, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	w(uint32(36 + dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(channels))
	w(uint32(rate))
	w(uint32(rate * blockAlign))
	w(uint16(blockAlign))
	w(uint16(bitsPerSample))
	buf.WriteString("data")
	w(uint32(dataLen))

	for _, s := range samples {
		s = max(-1, min(1, s))
		w(int16(math.Round(s * math.MaxInt16)))
	}
	return buf.Bytes()
}

// Player plays sounds. Implementations must not block longer than the
// sound itself.
type Player interface {
	Play(ctx context.Context) error
}

// CommandPlayer pipes the chime as WAV to a player command such as
// "aplay -q -" or "paplay".
type CommandPlayer struct {
	Exec    executil.Executor
	Command string
}

// Play synthesizes the chime and writes it to the player's stdin.
func (p *CommandPlayer) Play(ctx context.Context) error {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return ErrNoPlayer
	}

	wav := WAV(Chime(), SampleRate)
	if _, err := p.Exec.RunStdin(ctx, bytes.NewReader(wav), fields[0], fields[1:]...); err != nil {
		return fmt.Errorf("play chime: %w", err)
	}
	return nil
}

// Silent is a Player that does nothing. It is used when sound is disabled.
type Silent struct{}

func (Silent) Play(context.Context) error { return nil }
