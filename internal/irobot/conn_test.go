package irobot

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// fakePort records writes and serves reads from a preloaded buffer.
type fakePort struct {
	written bytes.Buffer
	reply   bytes.Buffer
	closed  bool
}

func (f *fakePort) Read(p []byte) (int, error)  { return f.reply.Read(p) }
func (f *fakePort) Write(p []byte) (int, error) { return f.written.Write(p) }
func (f *fakePort) Close() error                { f.closed = true; return nil }

func TestConn_Start(t *testing.T) {
	port := &fakePort{}
	c := NewConn(port)

	require.NoError(t, c.Start(context.Background(), ModeFull))
	assert.Equal(t, []byte{128, 132}, port.written.Bytes())
}

func TestConn_PollGroup6(t *testing.T) {
	port := &fakePort{}
	want := sensors.Snapshot{BumpLeft: true, Wall: true, Distance: -42, Angle: 7, Voltage: 15600}
	port.reply.Write(sensors.EncodeGroup6(want))
	c := NewConn(port)

	got, err := c.PollGroup6(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []byte{142, 6}, port.written.Bytes())
}

func TestConn_PollShortRead(t *testing.T) {
	port := &fakePort{}
	port.reply.Write(make([]byte, 10))
	c := NewConn(port)

	_, err := c.Poll(context.Background())
	assert.Error(t, err)
}

func TestConn_DriveDirect(t *testing.T) {
	cases := []struct {
		name        string
		left, right int16
		want        []byte
	}{
		{"forward", 200, 200, []byte{145, 0x00, 0xc8, 0x00, 0xc8}},
		{"right word first", -100, 100, []byte{145, 0x00, 0x64, 0xff, 0x9c}},
		{"clamped", 900, -900, []byte{145, 0xfe, 0x0c, 0x01, 0xf4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			port := &fakePort{}
			c := NewConn(port)
			require.NoError(t, c.DriveDirect(context.Background(), tc.left, tc.right))
			assert.Equal(t, tc.want, port.written.Bytes())
		})
	}
}

func TestConn_Close(t *testing.T) {
	port := &fakePort{}
	c := NewConn(port)

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
	assert.Equal(t, []byte{145, 0, 0, 0, 0}, port.written.Bytes(), "close stops the wheels first")

	err := c.DriveDirect(context.Background(), 1, 1)
	assert.True(t, errors.Is(err, ErrClosed))
	require.NoError(t, c.Close())
}

func TestConn_CancelledContext(t *testing.T) {
	port := &fakePort{}
	c := NewConn(port)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Stop(ctx), context.Canceled)
	assert.Zero(t, port.written.Len())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("full")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSafe, m)

	_, err = ParseMode("passive")
	assert.Error(t, err)
}
