package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// Options is the field/message option bag of spec.md §3, populated from a
// `dccl:"key=value,..."` struct tag.
type Options struct {
	Min, Max       float64
	HasMinMax      bool
	Resolution     float64 // positive; 1 if unset
	MaxLength      int     // bytes/string max_length
	MaxRepeat      int
	MinRepeat      int
	StaticValue    string
	HasStatic      bool
	NumDays        int
	InHead         *bool // nil = inherit from parent part
	Omit           bool
	Codec          string
	CodecGroup     string
	CodecVersion   int
	RequiredIfExpr string // spec.md §4.9 dynamic condition: forces the field required when true
	OmitIfExpr     string // spec.md §4.9 dynamic condition: omits the field when true
	OnlyIfExpr     string // spec.md §4.9 dynamic condition: omits the field when false
	MinIfExpr      string // spec.md §4.9 dynamic condition: overrides Min when it evaluates numeric
	MaxIfExpr      string // spec.md §4.9 dynamic condition: overrides Max when it evaluates numeric
	ID             int
	HasID          bool
	MaxBytes       int
	EnumValues     []string
	ForceRequired  bool
	OneofGroup     string // codec version >= 4 only
}

// HasDynamicConditions reports whether any of the five §4.9 predicates are
// set on this field.
func (o Options) HasDynamicConditions() bool {
	return o.RequiredIfExpr != "" || o.OmitIfExpr != "" || o.OnlyIfExpr != "" || o.MinIfExpr != "" || o.MaxIfExpr != ""
}

// parseMessageOptions reads the message-level option bag from a struct's
// own `dccl:"..."` tag, conventionally attached to a marker field named
// Meta, if present.
func parseMessageOptions(t reflect.Type) Options {
	if mf, ok := t.FieldByName("Meta"); ok {
		if tag, ok := mf.Tag.Lookup("dccl"); ok {
			return ParseOptions(tag)
		}
	}
	return Options{}
}

// ParseOptions parses a `dccl:"key=value,flag,..."` tag body into an
// Options value.
func ParseOptions(tag string) Options {
	var o Options
	o.CodecVersion = 0

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, val, hasVal := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "min":
			o.Min, _ = strconv.ParseFloat(val, 64)
			o.HasMinMax = true
		case "max":
			o.Max, _ = strconv.ParseFloat(val, 64)
			o.HasMinMax = true
		case "resolution":
			o.Resolution, _ = strconv.ParseFloat(val, 64)
		case "precision":
			p, _ := strconv.Atoi(val)
			o.Resolution = 1
			for i := 0; i < p; i++ {
				o.Resolution /= 10
			}
		case "max_length":
			o.MaxLength, _ = strconv.Atoi(val)
		case "max_repeat":
			o.MaxRepeat, _ = strconv.Atoi(val)
		case "min_repeat":
			o.MinRepeat, _ = strconv.Atoi(val)
		case "static_value":
			o.StaticValue = val
			o.HasStatic = true
		case "num_days":
			o.NumDays, _ = strconv.Atoi(val)
		case "in_head":
			b := !hasVal || val == "true" || val == "1"
			o.InHead = &b
		case "omit":
			o.Omit = !hasVal || val == "true" || val == "1"
		case "codec":
			o.Codec = val
		case "codec_group":
			o.CodecGroup = val
		case "codec_version":
			o.CodecVersion, _ = strconv.Atoi(val)
		case "required_if":
			o.RequiredIfExpr = val
		case "omit_if":
			o.OmitIfExpr = val
		case "only_if":
			o.OnlyIfExpr = val
		case "min_if":
			o.MinIfExpr = val
		case "max_if":
			o.MaxIfExpr = val
		case "id":
			o.ID, _ = strconv.Atoi(val)
			o.HasID = true
		case "max_bytes":
			o.MaxBytes, _ = strconv.Atoi(val)
		case "enum":
			o.EnumValues = strings.Split(val, "|")
		case "force_required":
			o.ForceRequired = !hasVal || val == "true" || val == "1"
		case "oneof":
			o.OneofGroup = val
		}
	}

	if o.Resolution == 0 {
		o.Resolution = 1
	}

	return o
}

// EffectiveResolution returns the field's effective resolution: an
// explicit precision/resolution if given, else 1.
func (o Options) EffectiveResolution() float64 {
	if o.Resolution == 0 {
		return 1
	}
	return o.Resolution
}
