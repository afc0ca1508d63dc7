package filelock

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compress encodes data with the named codec. "" and "none" return data unchanged.
func Compress(data []byte, codec string) ([]byte, error) {
	switch codec {
	case "", "none":
		return data, nil
	case "zstd":
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}
}

// Decompress reverses Compress
func Decompress(data []byte, codec string) ([]byte, error) {
	switch codec {
	case "", "none":
		return data, nil
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}
}
