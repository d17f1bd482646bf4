// internal/content/compression.go
package content

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// CompressionOptions configures compression behavior
type CompressionOptions struct {
	// Minimum size in bytes before compressing
	MinSize int
	// Compression level (1=fastest, 4=best)
	Level int
}

// DefaultCompressionOptions provides sensible defaults
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		MinSize: 512,
		Level:   2,
	}
}

// compressionManager wraps one encoder and one decoder. EncodeAll and
// DecodeAll are safe for concurrent use.
type compressionManager struct {
	opts CompressionOptions
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func newCompressionManager(opts CompressionOptions) (*compressionManager, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &compressionManager{opts: opts, enc: enc, dec: dec}, nil
}

var (
	decoderOnce sync.Once
	decoderMgr  *compressionManager
	decoderErr  error
)

// sharedDecoder serves stores that write raw objects but meet compressed
// ones written under an earlier setting.
func sharedDecoder() (*compressionManager, error) {
	decoderOnce.Do(func() {
		var dec *zstd.Decoder
		dec, decoderErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if decoderErr == nil {
			decoderMgr = &compressionManager{dec: dec}
		}
	})
	return decoderMgr, decoderErr
}

// compress returns content unchanged when it is small or does not shrink.
func (cm *compressionManager) compress(content []byte) ([]byte, error) {
	if len(content) < cm.opts.MinSize {
		return content, nil
	}

	out := cm.enc.EncodeAll(content, make([]byte, 0, len(content)/2))
	if len(out) >= len(content) {
		return content, nil
	}
	return out, nil
}

func (cm *compressionManager) decompress(content []byte) ([]byte, error) {
	if !isCompressed(content) {
		return content, nil
	}
	return cm.dec.DecodeAll(content, nil)
}

func (cm *compressionManager) close() {
	if cm.enc != nil {
		cm.enc.Close()
	}
	if cm.dec != nil {
		cm.dec.Close()
	}
}

func isCompressed(content []byte) bool {
	return len(content) > 4 && bytes.Equal(content[:4], zstdMagic)
}
