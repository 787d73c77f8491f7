// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"bytes"
	"errors"
	"testing"
)

func TestGraphic_MarshalBinary_Layout(t *testing.T) {
	g := Graphic{
		Name:    GraphicName(PictureArmor0),
		Operate: OperateAdd,
		Type:    TypeCircle,
		Color:   ColorAmaranth,
		Width:   3,
		StartX:  960,
		StartY:  540,
		Radius:  20,
	}

	data, err := g.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	expected := []byte{
		0x00, 0x00, 0x01, // name
		0x11, 0x10, 0x00, 0x00, // add | circle<<3 | amaranth<<10
		0x03, 0x00, 0x8F, 0x43, // width 3, x 960, y 540
		0x14, 0x00, 0x00, 0x00, // radius 20
	}
	if !bytes.Equal(data, expected) {
		t.Errorf("got      % X\nexpected % X", data, expected)
	}
}

func TestGraphic_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		g    Graphic
	}{
		{"zero", Graphic{}},
		{"max fields", Graphic{
			Name:       [3]byte{'a', 'b', 'c'},
			Operate:    OperateDelete,
			Type:       TypeCharacter,
			Layer:      9,
			Color:      ColorWhite,
			StartAngle: 511,
			EndAngle:   511,
			Width:      1023,
			StartX:     2047,
			StartY:     2047,
			Radius:     1023,
			EndX:       2047,
			EndY:       2047,
		}},
		{"text", Graphic{
			Name:       GraphicName(PictureChassis),
			Operate:    OperateModify,
			Type:       TypeCharacter,
			Color:      ColorOrange,
			StartAngle: 20,
			EndAngle:   14,
			Width:      2,
			StartX:     100,
			StartY:     800,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.g.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			if len(data) != GraphicLength {
				t.Fatalf("length = %d, expected %d", len(data), GraphicLength)
			}
			var got Graphic
			if err := got.UnmarshalBinary(data); err != nil {
				t.Fatalf("UnmarshalBinary failed: %v", err)
			}
			if got != tt.g {
				t.Errorf("got %+v\nexpected %+v", got, tt.g)
			}
		})
	}
}

func TestGraphic_FieldOverflow(t *testing.T) {
	tests := []struct {
		name string
		g    Graphic
	}{
		{"x beyond 11 bits", Graphic{StartX: 2048}},
		{"radius beyond 10 bits", Graphic{Radius: 1024}},
		{"color beyond 4 bits", Graphic{Color: 16}},
		{"angle beyond 9 bits", Graphic{EndAngle: 512}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.g.MarshalBinary(); !errors.Is(err, ErrGraphicField) {
				t.Errorf("expected ErrGraphicField, got %v", err)
			}
		})
	}
}

func TestGraphic_UnmarshalWrongLength(t *testing.T) {
	var g Graphic
	if err := g.UnmarshalBinary(make([]byte, 14)); !errors.Is(err, ErrGraphicLength) {
		t.Errorf("expected ErrGraphicLength, got %v", err)
	}
}

func TestAppendInteractiveHeader(t *testing.T) {
	got := AppendInteractiveHeader(nil, DataCmdDrawGraphic1, uint16(BlueHero), 0x0165)
	expected := []byte{0x01, 0x01, 0x65, 0x00, 0x65, 0x01}
	if !bytes.Equal(got, expected) {
		t.Errorf("got % X, expected % X", got, expected)
	}
}
