package simulation

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region frame
// Frame is one simulator cycle as a JSON line. Packet is the raw 56-byte stream
// frame, base64 in JSON.
type Frame struct {
	NetDistance int32     `json:"net_distance"`
	NetAngle    int32     `json:"net_angle"`
	Packet      []byte    `json:"packet"`
	Accel       []float64 `json:"accel"`
}

// NewFrame builds a frame from decoded values, for tests and fixture generators.
func NewFrame(odo sensors.Odometry, s sensors.Snapshot, accel sensors.Accelerometer) Frame {
	return Frame{
		NetDistance: odo.NetDistance,
		NetAngle:    odo.NetAngle,
		Packet:      sensors.EncodeStreamFrame(s),
		Accel:       accel.Axes(),
	}
}

// Reply is written back for every frame.
type Reply struct {
	Seq   int             `json:"seq"`
	State string          `json:"state"`
	Speed nav.WheelSpeeds `json:"speed"`
	Error string          `json:"error,omitempty"`
}

// #endregion frame

// #region bridge
// Observer sees every successfully evaluated frame.
type Observer func(seq int, in nav.Inputs, res nav.StepResult)

// Bridge reads Frame lines from r, steps the adapter, and writes one Reply line per
// frame to w. A malformed frame yields a Reply with Error set and zero speeds; the
// bridge keeps going. It returns when r is exhausted or ctx is cancelled.
func Bridge(ctx context.Context, a *Adapter, r io.Reader, w io.Writer, observe Observer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	enc := json.NewEncoder(w)

	seq := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		reply := Reply{Seq: seq}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			reply.Error = fmt.Sprintf("decode frame: %v", err)
		} else if res, err := a.StepFrame(f); err != nil {
			reply.Error = err.Error()
		} else {
			reply.Speed = res.Speeds
			if observe != nil {
				in, _ := a.Last()
				observe(seq, in, res)
			}
		}
		reply.State = a.chart.StateName()

		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
		seq++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read frames: %w", err)
	}
	return nil
}

// #endregion bridge
