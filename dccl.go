// Package dccl is a compact message serialization library for
// bandwidth-constrained channels (acoustic underwater modems, satellite
// store-and-forward links, LoRa): it encodes Go structs tagged with a
// `dccl:"..."` option bag into a bit-packed wire format far smaller than a
// general-purpose tagged serializer would produce, by using each field's
// declared bounds, resolution, and repeat counts to choose its exact bit
// width instead of framing every value with a type tag and length.
//
// # Basic usage
//
//	type Telemetry struct {
//	    Meta  struct{} `dccl:"id=10"`
//	    Depth float64  `dccl:"min=0,max=6000,resolution=0.1"`
//	    Status string  `dccl:"max_length=8"`
//	}
//
//	c, err := dccl.New()
//	c.Load(Telemetry{})
//
//	wire, err := c.Encode(Telemetry{Depth: 123.4, Status: "ok"})
//
//	var out Telemetry
//	_, err = c.Decode(wire, &out)
//
// This package is a thin facade over the driver package's Codec, the
// engine's full programmatic surface (load/unload, encrypted encode,
// schema introspection, the bounded-buffer encode overload). Use driver
// directly for anything beyond the common case above.
package dccl

import "github.com/dcclgo/dccl/driver"

// Codec is driver.Codec, the engine's top-level encode/decode/schema-load
// surface.
type Codec = driver.Codec

// Option configures a Codec at construction time.
type Option = driver.Option

// New constructs a ready-to-use Codec. See driver.New for the full set of
// available Options.
func New(opts ...Option) (*Codec, error) {
	return driver.New(opts...)
}

// WithStrict sets strict mode: encode raises an error on any bound
// violation instead of silently clamping or sentinel-encoding.
func WithStrict(strict bool) Option {
	return driver.WithStrict(strict)
}

// WithIDCodec installs a non-default message-identifier codec.
func WithIDCodec(idc driver.IDCodec) Option {
	return driver.WithIDCodec(idc)
}

// WithCryptoPassphrase enables body encryption for every message type
// except those whose IDs appear in skipIDs.
func WithCryptoPassphrase(passphrase string, skipIDs ...uint32) Option {
	return driver.WithCryptoPassphrase(passphrase, skipIDs...)
}
