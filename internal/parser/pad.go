package parser

// PaddingBytes is the minimum number of unused bytes the parser requires
// after the logical end of the input, mirroring the donor SIMD parser's
// over-read contract (its AVX2 kernels always read in fixed-width lanes,
// so the last partial lane must not run off the end of the allocation).
// Our scalar scanner does not strictly need this, but callers -- in
// particular the NDJSON window manager -- are written against this
// contract so that swapping in a real SIMD backend later needs no changes
// above this package.
const PaddingBytes = 64

// PadBuffer returns buf if it already has at least PaddingBytes of spare
// capacity past len(buf), otherwise copies it into a new buffer with that
// capacity guaranteed. The returned slice always has length len(buf).
func PadBuffer(buf []byte) []byte {
	if cap(buf)-len(buf) >= PaddingBytes {
		return buf
	}
	padded := make([]byte, len(buf), len(buf)+PaddingBytes)
	copy(padded, buf)
	return padded
}
