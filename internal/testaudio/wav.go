// ABOUTME: Test fixtures for audio decoding
// ABOUTME: Writes synthetic plain and extensible WAV files with known sample content
package testaudio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV describes a fixture file.
type WAV struct {
	SampleRate  int
	BitDepth    int
	Channels    int
	AudioFormat int // 1 = integer PCM, 3 = IEEE float
	Data        []int
}

// Write encodes w into a file under t.TempDir and returns its path.
func (w WAV) Write(t testing.TB, name string) string {
	t.Helper()

	format := w.AudioFormat
	if format == 0 {
		format = 1
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, w.SampleRate, w.BitDepth, w.Channels, format)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           w.Data,
		SourceBitDepth: w.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write fixture samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize fixture: %v", err)
	}
	return path
}

// Ramp returns 16-bit interleaved frames where every channel of frame i
// holds i modulo 32768. Channel c is offset by c so channels stay distinct.
func Ramp(frames, channels int) []int {
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			data[i*channels+c] = (i + c) % 32768
		}
	}
	return data
}

// Sine returns 16-bit interleaved frames of a sine tone at freq Hz.
func Sine(frames, channels, sampleRate int, freq float64) []int {
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 16000)
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}
	return data
}

// Float32Bits encodes float samples the way a 32-bit IEEE float WAV stores them.
func Float32Bits(samples ...float32) []int {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(int32(math.Float32bits(s)))
	}
	return data
}

// ExtensibleWAV encodes a WAVE_FORMAT_EXTENSIBLE stream by hand; go-audio's
// encoder only writes the plain fmt chunk. subFormat is the format code
// carried in the SubFormat GUID (1 = PCM, 3 = IEEE float).
func ExtensibleWAV(w WAV, channelMask uint32, subFormat uint16) []byte {
	bytesPerSample := w.BitDepth / 8

	var data bytes.Buffer
	for _, v := range w.Data {
		var sample [4]byte
		binary.LittleEndian.PutUint32(sample[:], uint32(int32(v)))
		if bytesPerSample == 1 {
			sample[0] = byte(v)
		}
		data.Write(sample[:bytesPerSample])
	}

	guid := [16]byte{0, 0, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
	binary.LittleEndian.PutUint16(guid[:2], subFormat)

	fmtChunk := struct {
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		CbSize        uint16
		ValidBits     uint16
		ChannelMask   uint32
		SubFormat     [16]byte
	}{
		Format:        0xFFFE,
		Channels:      uint16(w.Channels),
		SampleRate:    uint32(w.SampleRate),
		ByteRate:      uint32(w.SampleRate * w.Channels * bytesPerSample),
		BlockAlign:    uint16(w.Channels * bytesPerSample),
		BitsPerSample: uint16(w.BitDepth),
		CbSize:        22,
		ValidBits:     uint16(w.BitDepth),
		ChannelMask:   channelMask,
		SubFormat:     guid,
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+8+40+8+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(40))
	binary.Write(&out, binary.LittleEndian, fmtChunk)
	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}
