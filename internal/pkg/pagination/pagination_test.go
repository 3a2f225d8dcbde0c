package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New(2, 10, 25)
	require.Equal(t, 3, p.Pages)
	require.Equal(t, 10, p.Offset)
	require.True(t, p.HasNext)
	require.True(t, p.HasPrev)

	p = New(0, 0, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultLimit, p.Limit)
	require.Equal(t, 1, p.Pages)
	require.False(t, p.HasNext)
}

func TestFromRequest(t *testing.T) {
	r := FromRequest("3", "500")
	require.Equal(t, 3, r.Page)
	require.Equal(t, MaxLimit, r.Limit)
	require.Equal(t, int64(200), r.Skip())

	r = FromRequest("abc", "")
	require.Equal(t, 1, r.Page)
	require.Equal(t, DefaultLimit, r.Limit)
	require.Equal(t, int64(0), r.Skip())
}
