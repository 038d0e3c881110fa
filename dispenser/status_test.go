package dispenser

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestStatusDecodesState(t *testing.T) {
	var s Status
	require.NoError(t, json.Unmarshal([]byte(`{"state":"dispensing","busy":true}`), &s))
	require.Equal(t, Dispensing, s.State)

	payload, err := json.Marshal(Status{State: Idle})
	require.NoError(t, err)
	require.Contains(t, string(payload), `"state":"idle"`)

	err = json.Unmarshal([]byte(`{"state":"pouring"}`), &s)
	require.Error(t, err)
}
