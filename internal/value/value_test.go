package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litekv/litekv/internal/value"
)

func TestTagStringNames(t *testing.T) {
	require.Equal(t, "int", value.TagInt.String())
	require.Equal(t, "string", value.TagStr.String())
	require.Equal(t, "list", value.TagList.String())
	require.Equal(t, "hash", value.TagHash.String())
	require.Equal(t, "set", value.TagSet.String())
}

func TestCoerceToStringFromInt(t *testing.T) {
	v := value.NewInt(-42)
	value.CoerceToString(v)
	require.Equal(t, value.TagStr, v.Tag)
	require.Equal(t, "-42", v.Str.String())
	require.Equal(t, int64(0), v.Int)
}

func TestCoerceToStringIsNoopOnStr(t *testing.T) {
	v := value.NewStr([]byte("hello"))
	value.CoerceToString(v)
	require.Equal(t, value.TagStr, v.Tag)
	require.Equal(t, "hello", v.Str.String())
}

func TestTouchUpdatesLastVisit(t *testing.T) {
	v := value.NewInt(1)
	v.Touch(12345)
	require.Equal(t, int64(12345), v.LastVisitMs)
}

func TestNewConstructorsSetExpectedTag(t *testing.T) {
	require.Equal(t, value.TagList, value.NewList().Tag)
	require.Equal(t, value.TagHash, value.NewHash().Tag)
	require.Equal(t, value.TagSet, value.NewSet().Tag)
}
