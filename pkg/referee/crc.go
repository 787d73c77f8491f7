// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"encoding/binary"
	"math/bits"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

// Header check: Dallas/Maxim polynomial, reflected, seeded with 0xFF.
var crc8Table = crc8.MakeTable(crc8.Params{
	Poly:   0x31,
	Init:   CRC8Seed,
	RefIn:  true,
	RefOut: true,
	XorOut: 0x00,
	Name:   "CRC-8/REFEREE",
})

// Frame check: CRC-16/MCRF4XX.
var crc16Table = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC8 computes the header checksum of data starting from seed.
// The seed is given in the same (reflected) form as the result, so the
// output of one call can seed the next.
func CRC8(data []byte, seed uint8) uint8 {
	crc := bits.Reverse8(seed)
	crc = crc8.Update(crc, data, crc8Table)
	return crc8.Complete(crc, crc8Table)
}

// VerifyCRC8 reports whether the last byte of b is the CRC8 of the bytes
// before it.
func VerifyCRC8(b []byte) bool {
	if len(b) < 1 {
		return false
	}
	n := len(b) - 1
	return CRC8(b[:n], CRC8Seed) == b[n]
}

// AppendCRC8 overwrites the last byte of b with the CRC8 of the bytes before it.
func AppendCRC8(b []byte) {
	if len(b) < 1 {
		return
	}
	n := len(b) - 1
	b[n] = CRC8(b[:n], CRC8Seed)
}

// CRC16 computes the frame checksum of data starting from seed.
func CRC16(data []byte, seed uint16) uint16 {
	crc := bits.Reverse16(seed)
	crc = crc16.Update(crc, data, crc16Table)
	return crc16.Complete(crc, crc16Table)
}

// VerifyCRC16 reports whether the last two bytes of b hold, little-endian,
// the CRC16 of the bytes before them.
func VerifyCRC16(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	n := len(b) - 2
	return CRC16(b[:n], CRC16Seed) == binary.LittleEndian.Uint16(b[n:])
}

// AppendCRC16 overwrites the last two bytes of b with the little-endian CRC16
// of the bytes before them.
func AppendCRC16(b []byte) {
	if len(b) < 2 {
		return
	}
	n := len(b) - 2
	binary.LittleEndian.PutUint16(b[n:], CRC16(b[:n], CRC16Seed))
}
