package versioned_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/pkg/versioned"
)

func TestTokenOf_TruncatesToMicroseconds(t *testing.T) {
	local := time.FixedZone("X", 3*3600)
	tok := versioned.TokenOf(time.Date(2024, 1, 1, 12, 0, 0, 1_234_567, local))

	require.Equal(t, time.UTC, tok.Time().Location())
	require.Equal(t, 1_234_000, tok.Time().Nanosecond())
	require.True(t, versioned.TokenOf(time.Time{}).IsZero())
}

func TestNext(t *testing.T) {
	base := versioned.TokenOf(t0)

	require.True(t, versioned.Next(t0, versioned.Token{}).Equal(base))
	require.True(t, versioned.Next(t0.Add(time.Second), base).Equal(versioned.TokenOf(t0.Add(time.Second))))

	stalled := versioned.Next(t0, base)
	require.True(t, stalled.After(base))
	require.Equal(t, versioned.Resolution, stalled.Time().Sub(base.Time()))

	backwards := versioned.Next(t0.Add(-time.Hour), base)
	require.True(t, backwards.After(base))
}

func TestOutcome_Err(t *testing.T) {
	require.NoError(t, versioned.Result{Outcome: versioned.Inserted}.Err())
	require.NoError(t, versioned.Result{Outcome: versioned.Updated}.Err())
	require.ErrorIs(t, versioned.Result{Outcome: versioned.Conflict}.Err(), versioned.ErrConflict)

	err := versioned.Result{Outcome: versioned.Rejected, Reason: versioned.ErrNameTaken}.Err()
	require.ErrorIs(t, err, versioned.ErrRejected)
	require.ErrorIs(t, err, versioned.ErrNameTaken)
	require.NotErrorIs(t, err, versioned.ErrConflict)
}

func TestToken_JSON(t *testing.T) {
	type doc struct {
		Version versioned.Token `json:"version"`
	}
	in := doc{Version: versioned.TokenOf(t0.Add(1500 * time.Microsecond))}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"2024-03-01T09:00:00.0015Z"}`, string(b))

	var out doc
	require.NoError(t, json.Unmarshal(b, &out))
	require.True(t, out.Version.Equal(in.Version))

	require.NoError(t, json.Unmarshal([]byte(`{"version":""}`), &out))
	require.True(t, out.Version.IsZero())
}
