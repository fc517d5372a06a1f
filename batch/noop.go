package batch

// NoOpCodec passes a batch payload through unchanged. It is useful for
// testing and for links where the channel is already bandwidth-matched to
// the bundle size and the CPU cost of compression is not worth paying.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// Compress returns data unchanged.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
