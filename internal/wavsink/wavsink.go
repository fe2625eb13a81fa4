// Package wavsink writes a channel's squelch-gated audio to mono 16-bit
// PCM WAV files, one per transmission, under ./out/<freq>/, with an
// optional timestamp watermark prefixed to the first block of samples.
package wavsink

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

const sampleRate = 12500 // AUDIO_RATE

// filenamePattern renders "DD-MM-YYYY_HH-MM-ffffff.wav" the same way the
// original recorder named its files, via strftime rather than a bespoke
// time.Format layout string.
const filenamePattern = "%d-%m-%Y_%H-%M-%f.wav"

// Sink owns one output directory (keyed by channel frequency) and lazily
// opens a new WAV file for each transmission.
type Sink struct {
	dir             string
	insertTimestamp bool

	file        *os.File
	dataBytes   uint32
	wroteHeader bool
}

// New builds a sink writing into baseDir/<freqHz>/.
func New(baseDir string, freqHz int64, insertTimestamp bool) *Sink {
	return &Sink{
		dir:             filepath.Join(baseDir, fmt.Sprintf("%d", freqHz)),
		insertTimestamp: insertTimestamp,
	}
}

// Open lazily creates a new timestamped WAV file if one isn't already
// open. Per the squelch-close Open Question decision, a sink never
// reopens a previous file -- every transmission gets its own.
func (s *Sink) Open(now time.Time) error {
	if s.file != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("wavsink: creating %s: %w", s.dir, err)
	}

	name, err := strftime.Format(filenamePattern, now, strftime.WithMicroseconds('f'))
	if err != nil {
		return fmt.Errorf("wavsink: formatting filename: %w", err)
	}
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("wavsink: creating file: %w", err)
	}

	s.file = f
	s.dataBytes = 0
	s.wroteHeader = false
	return s.writePlaceholderHeader()
}

// writePlaceholderHeader writes a WAV header with zeroed size fields,
// patched in by Close once the final data length is known.
func (s *Sink) writePlaceholderHeader() error {
	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], sampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(hdr[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16) // bits per sample
	copy(hdr[36:40], "data")

	if _, err := s.file.Write(hdr); err != nil {
		return fmt.Errorf("wavsink: writing header: %w", err)
	}
	s.wroteHeader = true
	return nil
}

// WriteSamples appends PCM16 samples (already clipped and scaled to
// int16 range) to the currently open file. If the sink was built with
// insertTimestamp and this is the first write after Open, a timestamp
// watermark is prefixed, backdated from timestampAt by this block's own
// playback duration so the watermark reflects when the block started,
// not when it finished being written.
func (s *Sink) WriteSamples(samples []int16, timestampAt time.Time) error {
	if s.file == nil {
		return fmt.Errorf("wavsink: WriteSamples called with no open file")
	}

	var watermark []int16
	if s.insertTimestamp && s.dataBytes == 0 {
		offset := time.Duration(len(samples)) * time.Second / sampleRate
		watermark = GenTimestamp(timestampAt.Add(-offset))
	}

	buf := make([]byte, (len(watermark)+len(samples))*2)
	off := 0
	for _, s16 := range watermark {
		binary.LittleEndian.PutUint16(buf[off:], uint16(s16))
		off += 2
	}
	for _, s16 := range samples {
		binary.LittleEndian.PutUint16(buf[off:], uint16(s16))
		off += 2
	}

	n, err := s.file.Write(buf)
	if err != nil {
		return fmt.Errorf("wavsink: writing samples: %w", err)
	}
	s.dataBytes += uint32(n)
	return nil
}

// Close patches the RIFF/data size fields and drops the file handle. The
// next Open call always creates a brand new file.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	defer func() {
		s.file.Close()
		s.file = nil
	}()

	if _, err := s.file.Seek(4, 0); err != nil {
		return err
	}
	var riffSize [4]byte
	binary.LittleEndian.PutUint32(riffSize[:], 36+s.dataBytes)
	if _, err := s.file.Write(riffSize[:]); err != nil {
		return err
	}

	if _, err := s.file.Seek(40, 0); err != nil {
		return err
	}
	var dataSize [4]byte
	binary.LittleEndian.PutUint32(dataSize[:], s.dataBytes)
	if _, err := s.file.Write(dataSize[:]); err != nil {
		return err
	}

	return nil
}

// IsOpen reports whether a file is currently open for writing.
func (s *Sink) IsOpen() bool { return s.file != nil }
