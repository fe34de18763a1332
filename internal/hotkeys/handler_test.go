package hotkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIgnoreMasks(t *testing.T) {
	const caps, num, scroll = 2, 16, 128

	require.Equal(t, []uint16{0, caps}, ignoreMasks(caps, 0, 0))
	require.Equal(t, []uint16{0, caps, num, caps | num}, ignoreMasks(caps, num, 0))
	require.Equal(t, []uint16{0, caps, num, caps | num}, ignoreMasks(caps, num, num))
	require.Len(t, ignoreMasks(caps, num, scroll), 8)
}

type nopToggler struct{}

func (nopToggler) Toggle(context.Context) error { return nil }

func TestRegisterToggle_WithoutX11(t *testing.T) {
	h := NewHandler(nil, nopToggler{}, nil)

	require.NoError(t, h.RegisterToggle(context.Background(), ""), "empty sequence disables the hotkey")
	require.Error(t, h.RegisterToggle(context.Background(), "Control-Shift-s"))
}
