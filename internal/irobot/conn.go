// Package irobot drives an iRobot Create over its Open Interface serial link.
package irobot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region opcodes
const (
	opStart        = 128
	opSensors      = 142
	opDriveDirect  = 145
	DefaultBaud    = 57600
	MaxWheelSpeed  = 500 // mm/s, Open Interface limit
	defaultTimeout = 500 * time.Millisecond
)

// Mode is the Open Interface operating mode entered after Start.
type Mode byte

const (
	ModeSafe Mode = 131
	ModeFull Mode = 132
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "safe":
		return ModeSafe, nil
	case "full":
		return ModeFull, nil
	}
	return 0, fmt.Errorf("irobot: unknown mode %q", s)
}

var ErrClosed = errors.New("irobot: connection closed")

// #endregion opcodes

// #region conn
// Conn is one Open Interface session. Methods are safe for concurrent use; each
// command is written and, for queries, answered before the next one starts.
type Conn struct {
	mu     sync.Mutex
	rw     io.ReadWriteCloser
	closed bool
}

// NewConn wraps an already-open link.
func NewConn(rw io.ReadWriteCloser) *Conn {
	return &Conn{rw: rw}
}

// Open opens a serial port at 8N1 with the given baud rate.
func Open(port string, baud int) (*Conn, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	if err := p.SetReadTimeout(defaultTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return NewConn(p), nil
}

// #endregion conn

// #region commands
// Start wakes the Open Interface and enters mode.
func (c *Conn) Start(ctx context.Context, mode Mode) error {
	if err := c.write(ctx, []byte{opStart}); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := c.write(ctx, []byte{byte(mode)}); err != nil {
		return fmt.Errorf("enter %s mode: %w", mode, err)
	}
	return nil
}

// PollGroup6 queries sensor group 6 and decodes the full 52-byte reply.
func (c *Conn) PollGroup6(ctx context.Context) (sensors.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sensors.Snapshot{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sensors.Snapshot{}, ErrClosed
	}

	if _, err := c.rw.Write([]byte{opSensors, sensors.Group6PacketID}); err != nil {
		return sensors.Snapshot{}, fmt.Errorf("query sensors: %w", err)
	}
	buf := make([]byte, sensors.Group6Size)
	if _, err := io.ReadFull(c.rw, buf); err != nil {
		return sensors.Snapshot{}, fmt.Errorf("read group 6: %w", err)
	}
	return sensors.DecodeGroup6(buf)
}

// Poll is PollGroup6; it lets a Conn serve as the loop's sensor source.
func (c *Conn) Poll(ctx context.Context) (sensors.Snapshot, error) {
	return c.PollGroup6(ctx)
}

// DriveDirect sets each wheel's velocity in mm/s, clamped to the interface limit.
func (c *Conn) DriveDirect(ctx context.Context, left, right int16) error {
	cmd := make([]byte, 5)
	cmd[0] = opDriveDirect
	binary.BigEndian.PutUint16(cmd[1:], uint16(clamp(right)))
	binary.BigEndian.PutUint16(cmd[3:], uint16(clamp(left)))
	if err := c.write(ctx, cmd); err != nil {
		return fmt.Errorf("drive direct: %w", err)
	}
	return nil
}

// Stop zeroes both wheels.
func (c *Conn) Stop(ctx context.Context) error {
	return c.DriveDirect(ctx, 0, 0)
}

// Close stops the wheels and releases the port.
func (c *Conn) Close() error {
	stopErr := c.Stop(context.Background())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rw.Close(); err != nil {
		return fmt.Errorf("close serial: %w", err)
	}
	if stopErr != nil && !errors.Is(stopErr, ErrClosed) {
		return stopErr
	}
	return nil
}

func (c *Conn) write(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.rw.Write(b)
	return err
}

func clamp(v int16) int16 {
	if v > MaxWheelSpeed {
		return MaxWheelSpeed
	}
	if v < -MaxWheelSpeed {
		return -MaxWheelSpeed
	}
	return v
}

// #endregion commands
