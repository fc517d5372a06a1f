package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type innerMsg struct {
	Flag bool `dccl:"codec_version=2"`
}

type testMsg struct {
	Count   int32     `dccl:"min=0,max=100"`
	Label   string    `dccl:"max_length=16"`
	Tags    []int32   `dccl:"min=0,max=10"`
	Nested  innerMsg  `dccl:"in_head"`
	Hidden  string    `dccl:"omit"`
	Ignored string
}

func TestBuildDescriptor(t *testing.T) {
	d := Of(testMsg{})
	require.Len(t, d.Fields, 4) // Count, Label, Tags, Nested (Hidden omitted, Ignored untagged)

	byName := map[string]*FieldDescriptor{}
	for _, fd := range d.Fields {
		byName[fd.Name] = fd
	}

	require.Equal(t, KindInt32, byName["Count"].Kind)
	require.Equal(t, Required, byName["Count"].Cardinality)
	require.Equal(t, float64(100), byName["Count"].Options.Max)

	require.Equal(t, KindString, byName["Label"].Kind)
	require.Equal(t, 16, byName["Label"].Options.MaxLength)

	require.Equal(t, Repeated, byName["Tags"].Cardinality)
	require.Equal(t, KindInt32, byName["Tags"].Kind)

	require.Equal(t, KindMessage, byName["Nested"].Kind)
	require.NotNil(t, byName["Nested"].Message)
	require.True(t, *byName["Nested"].Options.InHead)
}

type idMsg struct {
	Meta  struct{} `dccl:"id=42,max_bytes=32"`
	Value int32    `dccl:"min=0,max=10"`
}

func TestMessageOptionsMetaFieldExcludedFromFields(t *testing.T) {
	d := Of(idMsg{})
	require.Len(t, d.Fields, 1)
	require.Equal(t, "Value", d.Fields[0].Name)
	require.True(t, d.Options.HasID)
	require.Equal(t, 42, d.Options.ID)
	require.Equal(t, 32, d.Options.MaxBytes)
}

func TestAccessorGetSet(t *testing.T) {
	d := Of(testMsg{})
	var fd *FieldDescriptor
	for _, f := range d.Fields {
		if f.Name == "Count" {
			fd = f
		}
	}
	require.NotNil(t, fd)

	msg := &testMsg{}
	acc := AccessorFor(fd)
	acc.Set(reflect.ValueOf(msg), int32(42))
	require.Equal(t, int32(42), acc.Get(reflect.ValueOf(msg)))
}
