package sensors

import "fmt"

// #region snapshot
// Snapshot is one fully decoded iRobot Create sensor group 6 reading (packets 7-42).
// Every field is valid on every cycle; partial packets are rejected by the codec.
type Snapshot struct {
	BumpRight       bool `json:"bump_right"`
	BumpLeft        bool `json:"bump_left"`
	WheeldropRight  bool `json:"wheeldrop_right"`
	WheeldropLeft   bool `json:"wheeldrop_left"`
	WheeldropCaster bool `json:"wheeldrop_caster"`

	Wall            bool `json:"wall"`
	CliffLeft       bool `json:"cliff_left"`
	CliffFrontLeft  bool `json:"cliff_front_left"`
	CliffFrontRight bool `json:"cliff_front_right"`
	CliffRight      bool `json:"cliff_right"`
	VirtualWall     bool `json:"virtual_wall"`

	Overcurrents uint8 `json:"overcurrents"`
	IRByte       uint8 `json:"ir_byte"`

	Play    bool `json:"play"`    // pause button
	Advance bool `json:"advance"` // exits the live loop

	Distance int16 `json:"distance"` // mm since the previous poll
	Angle    int16 `json:"angle"`    // deg since the previous poll

	ChargingState      uint8  `json:"charging_state"`
	Voltage            uint16 `json:"voltage"` // mV
	Current            int16  `json:"current"` // mA
	BatteryTemperature int8   `json:"battery_temperature"`
	BatteryCharge      uint16 `json:"battery_charge"`   // mAh
	BatteryCapacity    uint16 `json:"battery_capacity"` // mAh

	WallSignal            uint16 `json:"wall_signal"`
	CliffLeftSignal       uint16 `json:"cliff_left_signal"`
	CliffFrontLeftSignal  uint16 `json:"cliff_front_left_signal"`
	CliffFrontRightSignal uint16 `json:"cliff_front_right_signal"`
	CliffRightSignal      uint16 `json:"cliff_right_signal"`

	CargoBayDigitalInputs uint8  `json:"cargo_bay_digital_inputs"`
	CargoBayAnalogSignal  uint16 `json:"cargo_bay_analog_signal"`
	ChargingSources       uint8  `json:"charging_sources"`
	OIMode                uint8  `json:"oi_mode"`
	SongNumber            uint8  `json:"song_number"`
	SongPlaying           bool   `json:"song_playing"`
	StreamPackets         uint8  `json:"stream_packets"`

	RequestedVelocity      int16 `json:"requested_velocity"`
	RequestedRadius        int16 `json:"requested_radius"`
	RequestedRightVelocity int16 `json:"requested_right_velocity"`
	RequestedLeftVelocity  int16 `json:"requested_left_velocity"`
}

// Obstacle reports whether any bump, wheel-drop or cliff flag is asserted.
// The caster wheel-drop is not an obstacle.
func (s Snapshot) Obstacle() bool {
	return s.BumpLeft || s.BumpRight ||
		s.WheeldropLeft || s.WheeldropRight ||
		s.CliffLeft || s.CliffFrontLeft || s.CliffFrontRight || s.CliffRight
}

// ObstacleLeft reports whether any left-side obstacle flag is asserted.
func (s Snapshot) ObstacleLeft() bool {
	return s.BumpLeft || s.WheeldropLeft || s.CliffLeft || s.CliffFrontLeft
}

// Bump reports whether either bumper is pressed.
func (s Snapshot) Bump() bool {
	return s.BumpLeft || s.BumpRight
}

// #endregion snapshot

// #region odometry
// Odometry is the accumulated motion of the robot since process start.
type Odometry struct {
	NetDistance int32 `json:"net_distance"` // mm, signed
	NetAngle    int32 `json:"net_angle"`    // deg, signed, no wraparound
}

// #endregion odometry

// #region accelerometer
// Accelerometer is a filtered 3-axis sample, in g.
type Accelerometer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AccelerometerFromAxes builds a sample from a raw axis slice.
// Anything other than exactly three axes is a caller contract violation.
func AccelerometerFromAxes(axes []float64) (Accelerometer, error) {
	if len(axes) != 3 {
		return Accelerometer{}, fmt.Errorf("accelerometer: expected 3 axes, got %d", len(axes))
	}
	return Accelerometer{X: axes[0], Y: axes[1], Z: axes[2]}, nil
}

// Axes returns the sample as an x, y, z slice.
func (a Accelerometer) Axes() []float64 {
	return []float64{a.X, a.Y, a.Z}
}

// #endregion accelerometer
