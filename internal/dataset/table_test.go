package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppend_NormalizesValues(t *testing.T) {
	tbl := New("sales", "a", "b", "c", "d")
	require.NoError(t, tbl.Append([]byte("x"), 3, float32(1.5), nil))
	require.Equal(t, []any{"x", int64(3), float64(1.5), nil}, tbl.Rows[0])

	err := tbl.Append("only one")
	require.Error(t, err)
	require.Equal(t, 1, tbl.Len())
}

func TestKinds(t *testing.T) {
	tbl := New("sales", "n", "f", "s", "when", "empty", "mixed")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tbl.Append(int64(1), int64(1), "a", now, nil, int64(1)))
	require.NoError(t, tbl.Append(int64(2), 2.5, nil, now, nil, "x"))

	require.Equal(t, []Kind{KindInteger, KindReal, KindText, KindTime, KindText, KindText}, tbl.Kinds())
}

func TestIndex(t *testing.T) {
	tbl := New("sales", "event_date", "city")
	require.Equal(t, 1, tbl.Index("city"))
	require.Equal(t, -1, tbl.Index("pincode"))
	require.True(t, tbl.Has("event_date"))
}
