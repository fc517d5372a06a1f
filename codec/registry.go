package codec

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dcclgo/dccl/errs"
	"github.com/dcclgo/dccl/schema"
)

type regKey struct {
	kind schema.Kind
	name string
}

// Registry implements spec.md §4.3's CodecRegistry: a (field_type,
// codec_name)-keyed table of codec factories, with resolution order
// field-level codec -> message codec -> codec_group -> "dccl.default{V}",
// type-name mangling for embedded-message specialization, and
// unsuffixed<->version-suffixed name retry.
type Registry struct {
	mu         sync.RWMutex
	factories  map[regKey]Factory
	deprecated map[string]string
	logger     *slog.Logger
}

// NewRegistry returns an empty Registry. logger may be nil, in which case
// deprecated-name warnings are discarded.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		factories:  make(map[regKey]Factory),
		deprecated: make(map[string]string),
		logger:     logger,
	}
}

// RegisterFactory binds name (scoped to kind) to factory, the Go
// equivalent of the original engine's "load_library" dynamic registration.
func (r *Registry) RegisterFactory(kind schema.Kind, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[regKey{kind, name}] = factory
}

// UnregisterFactory removes a previously registered factory ("unload_library").
func (r *Registry) UnregisterFactory(kind schema.Kind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, regKey{kind, name})
}

// DeprecateName records that oldName should resolve to newName, logging a
// warning whenever oldName is actually requested.
func (r *Registry) DeprecateName(oldName, newName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deprecated[oldName] = newName
}

// Resolve picks the codec for fd per spec.md §4.3's resolution order:
// field-level codec, the enclosing message's codec, the enclosing
// codec_group, then "dccl.default{V}". messageCodecName and codecGroup are
// the enclosing message's own codec/codec_group options; version is the
// codec version inherited from the root message.
func (r *Registry) Resolve(fd *schema.FieldDescriptor, messageCodecName, codecGroup string, version int) (FieldCodec, error) {
	var candidates []string

	if fd.Options.Codec != "" {
		candidates = append(candidates, fd.Options.Codec)
	}
	if messageCodecName != "" {
		candidates = append(candidates, messageCodecName)
	}
	if fd.Options.CodecGroup != "" {
		candidates = append(candidates, fd.Options.CodecGroup)
	} else if codecGroup != "" {
		candidates = append(candidates, codecGroup)
	}
	candidates = append(candidates, fmt.Sprintf("dccl.default%d", version))

	for _, name := range candidates {
		if fd.Kind == schema.KindMessage && fd.Message != nil {
			mangled := fmt.Sprintf("%s[%s]", name, fd.Message.GoType.String())
			if c, ok := r.lookup(fd.Kind, mangled, version); ok {
				return c, nil
			}
		}
		if c, ok := r.lookup(fd.Kind, name, version); ok {
			return c, nil
		}
	}

	return nil, errs.WithField(errs.ErrSchemaError, "codec resolution failed", fd.Name)
}

func endsWithDigit(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c >= '0' && c <= '9'
}

func (r *Registry) lookup(kind schema.Kind, name string, version int) (FieldCodec, bool) {
	r.mu.RLock()
	if canonical, deprecated := r.deprecated[name]; deprecated {
		r.logger.Warn("codec name is deprecated", "name", name, "use", canonical)
		name = canonical
	}

	if f, ok := r.factories[regKey{kind, name}]; ok {
		r.mu.RUnlock()
		return f(), true
	}

	var suffixed string
	if !endsWithDigit(name) {
		suffixed = fmt.Sprintf("%s%d", name, version)
		if f, ok := r.factories[regKey{kind, suffixed}]; ok {
			r.mu.RUnlock()
			return f(), true
		}
	}
	if suffix := fmt.Sprint(version); len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
		if f, ok := r.factories[regKey{kind, strings.TrimSuffix(name, suffix)}]; ok {
			r.mu.RUnlock()
			return f(), true
		}
	}
	r.mu.RUnlock()

	return nil, false
}
