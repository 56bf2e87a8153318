package protocol

// EncodeSigned8 packs a small signed value (e.g. a move/turn sign, or
// a score with a -1 "remove" sentinel) into a single wire byte using
// two's complement, matching how the header's single-byte param
// fields carry signed quantities.
func EncodeSigned8(v int) uint8 {
	return uint8(int8(v))
}

// DecodeSigned8 unpacks a wire byte produced by EncodeSigned8 back
// into a signed int.
func DecodeSigned8(b uint8) int {
	return int(int8(b))
}
