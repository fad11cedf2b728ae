package types

import (
	"fmt"
	"strings"
	"time"
)

// AudioInfo represents technical audio properties.
//
// Duration and Bitrate are derived from the payload size, sample count and
// sample rate; a zero sample rate or sample count yields zero for both
// rather than an error.
type AudioInfo struct {
	Codec            string
	Duration         time.Duration
	Samples          uint64
	PayloadSize      int64
	SampleRate       int
	BitDepth         int
	Channels         int
	Bitrate          int     // bits per second
	CompressionRatio float64 // payload size / PCM size, 0 when unknown
}

// Derive fills Duration and Bitrate from Samples, SampleRate and PayloadSize.
func (a *AudioInfo) Derive() {
	a.Duration = 0
	a.Bitrate = 0
	if a.SampleRate <= 0 || a.Samples == 0 {
		return
	}
	a.Duration = time.Duration(float64(a.Samples) / float64(a.SampleRate) * float64(time.Second))
	a.Bitrate = BitrateOf(a.PayloadSize, a.Duration)
}

// BitrateOf returns payload bits per second over d, or 0 when d is zero.
func BitrateOf(payload int64, d time.Duration) int {
	if d <= 0 || payload <= 0 {
		return 0
	}
	return int(float64(payload*8) / d.Seconds())
}

// String returns a human-readable representation of the audio info.
// Example output: "TTA 44.1kHz 16-bit stereo 700kbps".
func (a AudioInfo) String() string {
	parts := []string{a.Codec}
	if a.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(a.SampleRate)/1000))
	}
	if a.BitDepth > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", a.BitDepth))
	}
	if ch := channelDescription(a.Channels); ch != "" {
		parts = append(parts, ch)
	}
	if a.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("%dkbps", a.Bitrate/1000))
	}
	return strings.Join(parts, " ")
}

// channelDescription returns a human-readable channel description.
func channelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 6:
		return "5.1"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
