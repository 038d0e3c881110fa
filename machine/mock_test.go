package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockMachineRecordsCalls(t *testing.T) {
	m := NewMockMachine(&MockMachineConfig{Channels: 3})
	require.NoError(t, m.Start())
	require.True(t, m.Started())

	m.SetChannel(1, true)
	m.SetChannel(2, true)
	require.True(t, m.On(1))
	require.True(t, m.AnyOn())

	AllOff(m)
	require.False(t, m.AnyOn())

	require.Equal(t, []Call{
		{Channel: 1, On: true},
		{Channel: 2, On: true},
		{Channel: 0, On: false},
		{Channel: 1, On: false},
		{Channel: 2, On: false},
	}, m.Calls())

	require.NoError(t, m.Stop())
	require.False(t, m.Started())
}

func TestMockMachineIgnoresUnknownChannels(t *testing.T) {
	m := NewMockMachine(&MockMachineConfig{Channels: 1})

	m.SetChannel(4, true)

	require.False(t, m.AnyOn())
	require.False(t, m.On(4))
	require.Len(t, m.Calls(), 1)
}

func TestDispenserMachineLevels(t *testing.T) {
	low := NewDispenserMachine(&DispenserMachineConfig{})
	require.Equal(t, len(DefaultPins), low.Channels())
	require.Equal(t, true, bool(low.level(false)), "active low relays are off at high level")
	require.Equal(t, false, bool(low.level(true)))

	high := NewDispenserMachine(&DispenserMachineConfig{Pins: []int{5}, ActiveHigh: true})
	require.Equal(t, 1, high.Channels())
	require.Equal(t, false, bool(high.level(false)))
	require.Equal(t, true, bool(high.level(true)))
}
