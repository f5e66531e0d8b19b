package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var nilMap map[string]int
	var nilPtr *int

	require.Panics(t, func() { NotNil(nil) })
	require.Panics(t, func() { NotNil(nilMap) })
	require.Panics(t, func() { NotNil(nilPtr) })

	value := 3
	require.NotPanics(t, func() { NotNil(&value) })
	require.NotPanics(t, func() { NotNil("") })
}

func TestNotEmptyStr(t *testing.T) {
	require.Panics(t, func() { NotEmptyStr("") })
	require.NotPanics(t, func() { NotEmptyStr("character") })
}
