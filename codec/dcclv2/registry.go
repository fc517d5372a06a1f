// Package dcclv2 wires up the wire-format-2 codec registry: no repeated-
// field length prefix (every repeated field always emits exactly
// MaxRepeat elements), no var-bytes codec, no oneof.
package dcclv2

import (
	"log/slog"

	"github.com/dcclgo/dccl/arith"
	"github.com/dcclgo/dccl/codec"
	"github.com/dcclgo/dccl/schema"
)

const Version = 2

// NewRegistry returns a codec.Registry with every built-in primitive and
// the recursive message codec registered under "dccl.default2", plus each
// primitive's own canonical name for explicit field-level overrides.
func NewRegistry(logger *slog.Logger) *codec.Registry {
	reg := codec.NewRegistry(logger)

	reg.RegisterFactory(schema.KindBool, "dccl.bool", func() codec.FieldCodec { return codec.NewBoolCodec() })
	reg.RegisterFactory(schema.KindBool, "dccl.default2", func() codec.FieldCodec { return codec.NewBoolCodec() })

	for _, k := range codec.NumericKinds {
		reg.RegisterFactory(k, "dccl.numeric", func() codec.FieldCodec { return codec.NewNumericCodec() })
		reg.RegisterFactory(k, "dccl.default2", func() codec.FieldCodec { return codec.NewNumericCodec() })
		reg.RegisterFactory(k, "dccl.presence", func() codec.FieldCodec { return codec.NewPresenceBitCodec() })
		reg.RegisterFactory(k, "dccl.time", func() codec.FieldCodec { return codec.NewTimeCodec() })
		reg.RegisterFactory(k, "dccl.arithmetic", func() codec.FieldCodec { return arith.NewCodec() })
	}

	reg.RegisterFactory(schema.KindEnum, "dccl.enum", func() codec.FieldCodec { return codec.NewEnumCodec() })
	reg.RegisterFactory(schema.KindEnum, "dccl.arithmetic", func() codec.FieldCodec { return arith.NewCodec() })
	reg.RegisterFactory(schema.KindEnum, "dccl.default2", func() codec.FieldCodec { return codec.NewEnumCodec() })

	reg.RegisterFactory(schema.KindString, "dccl.string", func() codec.FieldCodec { return codec.NewStringCodec() })
	reg.RegisterFactory(schema.KindString, "dccl.default2", func() codec.FieldCodec { return codec.NewStringCodec() })
	reg.RegisterFactory(schema.KindString, "dccl.static", func() codec.FieldCodec { return codec.NewStaticCodec() })

	reg.RegisterFactory(schema.KindBytes, "dccl.bytes", func() codec.FieldCodec { return codec.NewBytesCodec() })
	reg.RegisterFactory(schema.KindBytes, "dccl.default2", func() codec.FieldCodec { return codec.NewBytesCodec() })

	reg.RegisterFactory(schema.KindMessage, "dccl.default2", func() codec.FieldCodec {
		return codec.NewMessageCodec(Version, reg)
	})

	return reg
}
