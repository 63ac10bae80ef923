package main

import (
	"io"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const audioSampleRate = 44100

// sampleStream is an io.Reader that ebiten/v2/audio.Player pulls 16-bit
// stereo PCM from. Enqueue pushes the mono float32 samples drained each
// frame from Emu.StepFrame; Read duplicates each sample to both channels
// and pads with silence once the queue runs dry rather than blocking,
// since a stalled Read would stall the whole audio callback.
type sampleStream struct {
	mu     sync.Mutex
	queue  []float32
}

func newSampleStream() *sampleStream {
	return &sampleStream{}
}

// Enqueue appends newly generated samples to the playback queue.
func (s *sampleStream) Enqueue(samples []float32) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, samples...)
	s.mu.Unlock()
}

// Read implements io.Reader, filling p with 16-bit little-endian stereo
// PCM frames (4 bytes each).
func (s *sampleStream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	s.mu.Lock()
	n := frames
	if n > len(s.queue) {
		n = len(s.queue)
	}
	taken := s.queue[:n]
	s.queue = s.queue[n:]
	s.mu.Unlock()

	i := 0
	for _, f := range taken {
		v := int16(f * 32767)
		lo, hi := byte(v), byte(v>>8)
		p[i], p[i+1], p[i+2], p[i+3] = lo, hi, lo, hi
		i += 4
	}
	for ; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// newAudioPlayer wires an ebiten audio context to an infinite stream fed
// by sampleStream, and starts playback immediately.
func newAudioPlayer(ctx *audio.Context) (*audio.Player, *sampleStream, error) {
	stream := newSampleStream()
	player, err := ctx.NewPlayer(io.Reader(stream))
	if err != nil {
		return nil, nil, err
	}
	player.Play()
	return player, stream, nil
}
