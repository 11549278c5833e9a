package dump

import (
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/manmuqingshan/PAF/power"
)

// WAVPowerDumper renders the synthesized power figures as mono 16 bit
// PCM audio, all traces concatenated into one channel. The samples are
// scaled so the loudest one sits at 90% of full scale, which makes
// simulated traces easy to inspect in ordinary audio tooling.
type WAVPowerDumper struct {
	baseDumper
	filename   string
	sampleRate int
	samples    []float64
}

var _ power.PowerDumper = (*WAVPowerDumper)(nil)

// NewWAVPowerDumper returns a sink saving to filename on Close.
func NewWAVPowerDumper(filename string, sampleRate int) *WAVPowerDumper {
	return &WAVPowerDumper{
		filename:   filename,
		sampleRate: sampleRate,
	}
}

// Dump records the sample's total power figure.
func (d *WAVPowerDumper) Dump(s power.Sample) {
	d.samples = append(d.samples, s.Total)
}

// Close scales the collected samples and writes the WAV file.
func (d *WAVPowerDumper) Close() error {
	f, err := os.Create(d.filename)
	if err != nil {
		return err
	}

	peak := 0.0
	for _, v := range d.samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	scale := 0.0
	if peak > 0 {
		scale = 0.9 * math.MaxInt16 / peak
	}

	data := make([]int, len(d.samples))
	for n, v := range d.samples {
		data[n] = int(math.Round(v * scale))
	}

	enc := wav.NewEncoder(f, d.sampleRate, 16, 1, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: d.sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if ferr := f.Close(); err == nil {
		err = ferr
	}
	return err
}
