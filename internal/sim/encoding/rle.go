package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of ids into base64(varint pairs).
// The pairs are (id, run_len) repeated.
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(ids) {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b && run < 1<<31; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. max bounds the decoded length; 0 means no bound.
func DecodeRLE(b64 string, max int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFFFF {
			return nil, fmt.Errorf("id too large: %d", b)
		}
		if max > 0 && uint64(len(out))+run > uint64(max) {
			return nil, fmt.Errorf("decoded length exceeds %d", max)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(b))
		}
	}
	return out, nil
}

// EncodeMask run-length encodes a bitmask as 0/1 ids.
func EncodeMask(bits []bool) string {
	ids := make([]uint16, len(bits))
	for i, b := range bits {
		if b {
			ids[i] = 1
		}
	}
	return EncodeRLE(ids)
}

// DecodeMask reverses EncodeMask; n is the expected cell count.
func DecodeMask(b64 string, n int) ([]bool, error) {
	ids, err := DecodeRLE(b64, n)
	if err != nil {
		return nil, err
	}
	if len(ids) != n {
		return nil, fmt.Errorf("mask length %d, want %d", len(ids), n)
	}
	out := make([]bool, n)
	for i, v := range ids {
		switch v {
		case 0:
		case 1:
			out[i] = true
		default:
			return nil, fmt.Errorf("mask value %d at %d", v, i)
		}
	}
	return out, nil
}
