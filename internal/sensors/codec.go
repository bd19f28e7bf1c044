package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// #region constants
const (
	// Group6Size is the payload length of sensor packet group 6.
	Group6Size = 52

	// Group6PacketID is the Open Interface packet ID for group 6.
	Group6PacketID = 6

	// StreamHeader starts every sensor stream frame.
	StreamHeader = 19

	// StreamFrameSize is header + n-bytes + packet ID + payload + checksum.
	StreamFrameSize = Group6Size + 4
)

const (
	bitBumpRight       = 1 << 0
	bitBumpLeft        = 1 << 1
	bitWheeldropRight  = 1 << 2
	bitWheeldropLeft   = 1 << 3
	bitWheeldropCaster = 1 << 4

	bitButtonPlay    = 1 << 0
	bitButtonAdvance = 1 << 2
)

// #endregion constants

// #region errors
var (
	ErrPayloadSize = errors.New("sensors: group 6 payload size mismatch")
	ErrFrameSize   = errors.New("sensors: stream frame size mismatch")
	ErrFrameHeader = errors.New("sensors: bad stream frame header")
	ErrPacketID    = errors.New("sensors: unexpected packet id")
	ErrChecksum    = errors.New("sensors: stream frame checksum mismatch")
)

// #endregion errors

// #region decode
// DecodeGroup6 decodes a 52-byte group 6 payload. 16-bit fields are big-endian.
func DecodeGroup6(data []byte) (Snapshot, error) {
	if len(data) != Group6Size {
		return Snapshot{}, fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(data), Group6Size)
	}
	be := binary.BigEndian
	bumps := data[0]
	buttons := data[11]

	return Snapshot{
		BumpRight:       bumps&bitBumpRight != 0,
		BumpLeft:        bumps&bitBumpLeft != 0,
		WheeldropRight:  bumps&bitWheeldropRight != 0,
		WheeldropLeft:   bumps&bitWheeldropLeft != 0,
		WheeldropCaster: bumps&bitWheeldropCaster != 0,

		Wall:            data[1] != 0,
		CliffLeft:       data[2] != 0,
		CliffFrontLeft:  data[3] != 0,
		CliffFrontRight: data[4] != 0,
		CliffRight:      data[5] != 0,
		VirtualWall:     data[6] != 0,
		Overcurrents:    data[7],
		// data[8], data[9] unused on the Create
		IRByte: data[10],

		Play:    buttons&bitButtonPlay != 0,
		Advance: buttons&bitButtonAdvance != 0,

		Distance: int16(be.Uint16(data[12:])),
		Angle:    int16(be.Uint16(data[14:])),

		ChargingState:      data[16],
		Voltage:            be.Uint16(data[17:]),
		Current:            int16(be.Uint16(data[19:])),
		BatteryTemperature: int8(data[21]),
		BatteryCharge:      be.Uint16(data[22:]),
		BatteryCapacity:    be.Uint16(data[24:]),

		WallSignal:            be.Uint16(data[26:]),
		CliffLeftSignal:       be.Uint16(data[28:]),
		CliffFrontLeftSignal:  be.Uint16(data[30:]),
		CliffFrontRightSignal: be.Uint16(data[32:]),
		CliffRightSignal:      be.Uint16(data[34:]),

		CargoBayDigitalInputs: data[36],
		CargoBayAnalogSignal:  be.Uint16(data[37:]),
		ChargingSources:       data[39],
		OIMode:                data[40],
		SongNumber:            data[41],
		SongPlaying:           data[42] != 0,
		StreamPackets:         data[43],

		RequestedVelocity:      int16(be.Uint16(data[44:])),
		RequestedRadius:        int16(be.Uint16(data[46:])),
		RequestedRightVelocity: int16(be.Uint16(data[48:])),
		RequestedLeftVelocity:  int16(be.Uint16(data[50:])),
	}, nil
}

// ParseStreamFrame validates and decodes one [19][53][6][payload][checksum] frame.
func ParseStreamFrame(frame []byte) (Snapshot, error) {
	if len(frame) != StreamFrameSize {
		return Snapshot{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), StreamFrameSize)
	}
	if frame[0] != StreamHeader || int(frame[1]) != Group6Size+1 {
		return Snapshot{}, fmt.Errorf("%w: % x", ErrFrameHeader, frame[:2])
	}
	if frame[2] != Group6PacketID {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrPacketID, frame[2])
	}
	var sum byte
	for _, b := range frame {
		sum += b
	}
	if sum != 0 {
		return Snapshot{}, fmt.Errorf("%w: residue %d", ErrChecksum, sum)
	}
	return DecodeGroup6(frame[3 : 3+Group6Size])
}

// #endregion decode

// #region encode
// EncodeGroup6 is the inverse of DecodeGroup6. Used by simulators and fixtures.
func EncodeGroup6(s Snapshot) []byte {
	be := binary.BigEndian
	data := make([]byte, Group6Size)

	var bumps byte
	if s.BumpRight {
		bumps |= bitBumpRight
	}
	if s.BumpLeft {
		bumps |= bitBumpLeft
	}
	if s.WheeldropRight {
		bumps |= bitWheeldropRight
	}
	if s.WheeldropLeft {
		bumps |= bitWheeldropLeft
	}
	if s.WheeldropCaster {
		bumps |= bitWheeldropCaster
	}
	data[0] = bumps
	data[1] = boolByte(s.Wall)
	data[2] = boolByte(s.CliffLeft)
	data[3] = boolByte(s.CliffFrontLeft)
	data[4] = boolByte(s.CliffFrontRight)
	data[5] = boolByte(s.CliffRight)
	data[6] = boolByte(s.VirtualWall)
	data[7] = s.Overcurrents
	data[10] = s.IRByte

	var buttons byte
	if s.Play {
		buttons |= bitButtonPlay
	}
	if s.Advance {
		buttons |= bitButtonAdvance
	}
	data[11] = buttons

	be.PutUint16(data[12:], uint16(s.Distance))
	be.PutUint16(data[14:], uint16(s.Angle))
	data[16] = s.ChargingState
	be.PutUint16(data[17:], s.Voltage)
	be.PutUint16(data[19:], uint16(s.Current))
	data[21] = byte(s.BatteryTemperature)
	be.PutUint16(data[22:], s.BatteryCharge)
	be.PutUint16(data[24:], s.BatteryCapacity)
	be.PutUint16(data[26:], s.WallSignal)
	be.PutUint16(data[28:], s.CliffLeftSignal)
	be.PutUint16(data[30:], s.CliffFrontLeftSignal)
	be.PutUint16(data[32:], s.CliffFrontRightSignal)
	be.PutUint16(data[34:], s.CliffRightSignal)
	data[36] = s.CargoBayDigitalInputs
	be.PutUint16(data[37:], s.CargoBayAnalogSignal)
	data[39] = s.ChargingSources
	data[40] = s.OIMode
	data[41] = s.SongNumber
	data[42] = boolByte(s.SongPlaying)
	data[43] = s.StreamPackets
	be.PutUint16(data[44:], uint16(s.RequestedVelocity))
	be.PutUint16(data[46:], uint16(s.RequestedRadius))
	be.PutUint16(data[48:], uint16(s.RequestedRightVelocity))
	be.PutUint16(data[50:], uint16(s.RequestedLeftVelocity))
	return data
}

// EncodeStreamFrame wraps a snapshot in a checksummed stream frame.
func EncodeStreamFrame(s Snapshot) []byte {
	frame := make([]byte, 0, StreamFrameSize)
	frame = append(frame, StreamHeader, Group6Size+1, Group6PacketID)
	frame = append(frame, EncodeGroup6(s)...)
	var sum byte
	for _, b := range frame {
		sum += b
	}
	return append(frame, -sum)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// #endregion encode
