package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOptionsDynamicConditionsAreIndependent(t *testing.T) {
	o := ParseOptions("min=0,max=10,required_if=this.Mode == 1,omit_if=this.Mode == 2,only_if=this.Mode != 0,min_if=this.Lo,max_if=this.Hi")

	require.True(t, o.HasDynamicConditions())
	require.Equal(t, "this.Mode == 1", o.RequiredIfExpr)
	require.Equal(t, "this.Mode == 2", o.OmitIfExpr)
	require.Equal(t, "this.Mode != 0", o.OnlyIfExpr)
	require.Equal(t, "this.Lo", o.MinIfExpr)
	require.Equal(t, "this.Hi", o.MaxIfExpr)
}

func TestParseOptionsNoDynamicConditions(t *testing.T) {
	o := ParseOptions("min=0,max=10")
	require.False(t, o.HasDynamicConditions())
}
