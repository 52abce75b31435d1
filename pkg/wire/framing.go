package wire

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/cuemby/leech/pkg/log"
)

// patchMagic is the zstd frame magic number (little-endian). Its presence at
// the start of a patch blob marks the payload as compressed.
var patchMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// FramePatch encodes p and, when enabled, compresses the result as a zstd
// frame. Level follows the zstd convention; values below 1 select the
// encoder default.
func FramePatch(p *Patch, enable bool, level int) ([]byte, error) {
	raw := EncodePatch(p)
	if !enable {
		log.Logger.Debug().Int("bytes", len(raw)).Msg("Patch encoded (compression disabled)")
		return raw, nil
	}

	var opts []zstd.EOption
	if level >= 1 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()

	compressed := enc.EncodeAll(raw, make([]byte, 0, len(raw)))
	log.Logger.Debug().
		Int("raw", len(raw)).
		Int("compressed", len(compressed)).
		Msg("Patch encoded")
	return compressed, nil
}

// UnframePatch decodes a patch blob, auto-detecting zstd compression by the
// frame magic.
func UnframePatch(data []byte) (*Patch, error) {
	if bytes.HasPrefix(data, patchMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()

		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress patch: %w", err)
		}
		data = raw
	}
	return DecodePatch(data)
}
