package driver

import (
	"log/slog"

	"github.com/dcclgo/dccl/condition"
	"github.com/dcclgo/dccl/crypto"
	"github.com/dcclgo/dccl/idcodec"
	"github.com/dcclgo/dccl/internal/options"
)

// Option configures a Codec at construction time, following this module's
// generic functional-option convention (internal/options.Option[T]).
type Option = options.Option[*Codec]

func applyOptions(c *Codec, opts []Option) error {
	return options.Apply(c, opts...)
}

func defaultIDCodec() IDCodec { return idcodec.New() }

// WithStrict sets strict mode: encode raises errs.ErrOutOfRange on any
// bound violation instead of silently clamping or sentinel-encoding.
func WithStrict(strict bool) Option {
	return options.NoError[*Codec](func(c *Codec) { c.strict = strict })
}

// WithIDCodec installs a non-default message-identifier codec (C10).
func WithIDCodec(idc IDCodec) Option {
	return options.NoError[*Codec](func(c *Codec) { c.idCodec = idc })
}

// WithLogger installs the *slog.Logger the registries use for
// deprecated-codec-name warnings; Codec itself logs nothing else. A nil
// logger is equivalent to not passing this option.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError[*Codec](func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithConditions installs the condition.Evaluator used for a field's
// required_if/omit_if/only_if/min_if/max_if predicates. Defaults to
// condition.StaticEvaluator, which treats every predicate as absent.
func WithConditions(eval condition.Evaluator) Option {
	return options.NoError[*Codec](func(c *Codec) { c.conditions = eval })
}

// WithCryptoPassphrase enables body encryption: every encoded message's
// body is encrypted under a key derived from passphrase via SHA-256,
// except messages whose IDs appear in skipIDs, which are encoded and
// decoded in the clear (matching DCCL's "crypto skip list" behavior for
// message types like pings that must stay interoperable with unkeyed
// listeners).
func WithCryptoPassphrase(passphrase string, skipIDs ...uint32) Option {
	return options.NoError[*Codec](func(c *Codec) {
		c.cipher = crypto.NewBodyCipher(passphrase)
		for _, id := range skipIDs {
			c.skipCrypto[id] = true
		}
	})
}
