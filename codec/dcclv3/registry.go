// Package dcclv3 wires up the wire-format-3 codec registry: repeated
// fields gain a ceil_log2(max_repeat-min_repeat+1)-bit count prefix, and a
// variable-length bytes codec becomes available. No oneof.
package dcclv3

import (
	"log/slog"

	"github.com/dcclgo/dccl/arith"
	"github.com/dcclgo/dccl/codec"
	"github.com/dcclgo/dccl/schema"
)

const Version = 3

// NewRegistry returns a codec.Registry with every built-in primitive and
// the recursive message codec registered under "dccl.default3".
func NewRegistry(logger *slog.Logger) *codec.Registry {
	reg := codec.NewRegistry(logger)

	reg.RegisterFactory(schema.KindBool, "dccl.bool", func() codec.FieldCodec { return codec.NewBoolCodec() })
	reg.RegisterFactory(schema.KindBool, "dccl.default3", func() codec.FieldCodec { return codec.NewBoolCodec() })

	for _, k := range codec.NumericKinds {
		reg.RegisterFactory(k, "dccl.numeric", func() codec.FieldCodec { return codec.NewNumericCodec() })
		reg.RegisterFactory(k, "dccl.default3", func() codec.FieldCodec { return codec.NewNumericCodec() })
		reg.RegisterFactory(k, "dccl.presence", func() codec.FieldCodec { return codec.NewPresenceBitCodec() })
		reg.RegisterFactory(k, "dccl.time", func() codec.FieldCodec { return codec.NewTimeCodec() })
		reg.RegisterFactory(k, "dccl.arithmetic", func() codec.FieldCodec { return arith.NewCodec() })
	}

	reg.RegisterFactory(schema.KindEnum, "dccl.enum", func() codec.FieldCodec { return codec.NewEnumCodec() })
	reg.RegisterFactory(schema.KindEnum, "dccl.arithmetic", func() codec.FieldCodec { return arith.NewCodec() })
	reg.RegisterFactory(schema.KindEnum, "dccl.default3", func() codec.FieldCodec { return codec.NewEnumCodec() })

	reg.RegisterFactory(schema.KindString, "dccl.string", func() codec.FieldCodec { return codec.NewStringCodec() })
	reg.RegisterFactory(schema.KindString, "dccl.default3", func() codec.FieldCodec { return codec.NewStringCodec() })
	reg.RegisterFactory(schema.KindString, "dccl.static", func() codec.FieldCodec { return codec.NewStaticCodec() })

	reg.RegisterFactory(schema.KindBytes, "dccl.bytes", func() codec.FieldCodec { return codec.NewBytesCodec() })
	reg.RegisterFactory(schema.KindBytes, "dccl.var_bytes", func() codec.FieldCodec { return codec.NewVarBytesCodec() })
	reg.RegisterFactory(schema.KindBytes, "dccl.default3", func() codec.FieldCodec { return codec.NewVarBytesCodec() })

	reg.RegisterFactory(schema.KindMessage, "dccl.default3", func() codec.FieldCodec {
		return codec.NewMessageCodec(Version, reg)
	})

	return reg
}
