// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Graphic errors
var (
	ErrGraphicField    = errors.New("referee: graphic field out of range")
	ErrGraphicLength   = errors.New("referee: graphic must be 15 bytes")
	ErrStringTooLong   = errors.New("referee: character data exceeds 30 bytes")
	ErrNoClient        = errors.New("referee: robot has no operator client")
	ErrDataCmdRange    = errors.New("referee: data cmd id outside robot-to-robot range")
	ErrUnknownReceiver = errors.New("referee: receiver is not a robot on the field")
)

// GraphicOperate tells the client what to do with a figure
type GraphicOperate uint8

// Graphic operations
const (
	OperateNone GraphicOperate = iota
	OperateAdd
	OperateModify
	OperateDelete
)

func (o GraphicOperate) String() string {
	switch o {
	case OperateNone:
		return "NONE"
	case OperateAdd:
		return "ADD"
	case OperateModify:
		return "MODIFY"
	case OperateDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("OPERATE(%d)", uint8(o))
	}
}

// GraphicType is the shape of a figure
type GraphicType uint8

// Graphic types
const (
	TypeLine GraphicType = iota
	TypeRectangle
	TypeCircle
	TypeEllipse
	TypeArc
	TypeFloat
	TypeInt
	TypeCharacter
)

// GraphicColor is a client palette entry. ColorMain is the team colour.
type GraphicColor uint8

// Graphic colours
const (
	ColorMain GraphicColor = iota
	ColorYellow
	ColorGreen
	ColorOrange
	ColorAmaranth
	ColorPink
	ColorCyan
	ColorBlack
	ColorWhite
)

func (c GraphicColor) String() string {
	names := [...]string{"MAIN", "YELLOW", "GREEN", "ORANGE", "AMARANTH", "PINK", "CYAN", "BLACK", "WHITE"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("COLOR(%d)", uint8(c))
}

// Graphic is one figure as laid out on the wire: a 3 byte name followed by
// three little-endian bit-packed words.
//
//	word0: operate:3 type:3 layer:4 color:4 start_angle:9 end_angle:9
//	word1: width:10 start_x:11 start_y:11
//	word2: radius:10 end_x:11 end_y:11
//
// For character figures StartAngle is the font size and EndAngle the string
// length.
type Graphic struct {
	Name       [3]byte
	Operate    GraphicOperate
	Type       GraphicType
	Layer      uint8
	Color      GraphicColor
	StartAngle uint16
	EndAngle   uint16
	Width      uint16
	StartX     uint16
	StartY     uint16
	Radius     uint16
	EndX       uint16
	EndY       uint16
}

// GraphicName returns the figure name used for a picture id
func GraphicName(pictureID uint8) [3]byte {
	return [3]byte{0, 0, pictureID}
}

type bitField struct {
	name  string
	value uint32
	width uint
}

func packFields(fields ...bitField) (uint32, error) {
	var word uint32
	var shift uint
	for _, f := range fields {
		if f.value >= 1<<f.width {
			return 0, fmt.Errorf("%w: %s=%d exceeds %d bits", ErrGraphicField, f.name, f.value, f.width)
		}
		word |= f.value << shift
		shift += f.width
	}
	return word, nil
}

func field(word uint32, shift, width uint) uint32 {
	return (word >> shift) & (1<<width - 1)
}

// AppendBinary appends the 15 byte wire form of g to b
func (g Graphic) AppendBinary(b []byte) ([]byte, error) {
	w0, err := packFields(
		bitField{"operate", uint32(g.Operate), 3},
		bitField{"type", uint32(g.Type), 3},
		bitField{"layer", uint32(g.Layer), 4},
		bitField{"color", uint32(g.Color), 4},
		bitField{"start_angle", uint32(g.StartAngle), 9},
		bitField{"end_angle", uint32(g.EndAngle), 9},
	)
	if err != nil {
		return b, err
	}
	w1, err := packFields(
		bitField{"width", uint32(g.Width), 10},
		bitField{"start_x", uint32(g.StartX), 11},
		bitField{"start_y", uint32(g.StartY), 11},
	)
	if err != nil {
		return b, err
	}
	w2, err := packFields(
		bitField{"radius", uint32(g.Radius), 10},
		bitField{"end_x", uint32(g.EndX), 11},
		bitField{"end_y", uint32(g.EndY), 11},
	)
	if err != nil {
		return b, err
	}

	b = append(b, g.Name[:]...)
	b = binary.LittleEndian.AppendUint32(b, w0)
	b = binary.LittleEndian.AppendUint32(b, w1)
	b = binary.LittleEndian.AppendUint32(b, w2)
	return b, nil
}

// MarshalBinary implements encoding.BinaryMarshaler
func (g Graphic) MarshalBinary() ([]byte, error) {
	return g.AppendBinary(make([]byte, 0, GraphicLength))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (g *Graphic) UnmarshalBinary(data []byte) error {
	if len(data) != GraphicLength {
		return fmt.Errorf("%w: got %d", ErrGraphicLength, len(data))
	}
	copy(g.Name[:], data[:3])
	w0 := binary.LittleEndian.Uint32(data[3:])
	w1 := binary.LittleEndian.Uint32(data[7:])
	w2 := binary.LittleEndian.Uint32(data[11:])

	g.Operate = GraphicOperate(field(w0, 0, 3))
	g.Type = GraphicType(field(w0, 3, 3))
	g.Layer = uint8(field(w0, 6, 4))
	g.Color = GraphicColor(field(w0, 10, 4))
	g.StartAngle = uint16(field(w0, 14, 9))
	g.EndAngle = uint16(field(w0, 23, 9))
	g.Width = uint16(field(w1, 0, 10))
	g.StartX = uint16(field(w1, 10, 11))
	g.StartY = uint16(field(w1, 21, 11))
	g.Radius = uint16(field(w2, 0, 10))
	g.EndX = uint16(field(w2, 10, 11))
	g.EndY = uint16(field(w2, 21, 11))
	return nil
}

// AppendInteractiveHeader appends the data_cmd_id, sender and receiver words
// that open every 0x0301 payload
func AppendInteractiveHeader(b []byte, dataCmdID, sender, receiver uint16) []byte {
	b = binary.LittleEndian.AppendUint16(b, dataCmdID)
	b = binary.LittleEndian.AppendUint16(b, sender)
	b = binary.LittleEndian.AppendUint16(b, receiver)
	return b
}
