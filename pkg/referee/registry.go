// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"errors"
	"fmt"
)

// ErrPayloadLength is returned when a known cmd id carries a payload of the
// wrong size
var ErrPayloadLength = errors.New("referee: payload length mismatch")

// DecodeFunc turns a length-checked payload into a Record
type DecodeFunc func(payload []byte) Record

// Kind describes one entry of the cmd id table
type Kind struct {
	CmdID   uint16
	Name    string
	Size    int // exact size, or minimum size when MaxSize is set
	MaxSize int
	Decode  DecodeFunc
}

// Fixed reports whether the kind has an exact payload size
func (k Kind) Fixed() bool {
	return k.MaxSize == 0
}

func (k Kind) accepts(n int) bool {
	if k.Fixed() {
		return n == k.Size
	}
	return n >= k.Size && n <= k.MaxSize
}

// Registry maps cmd ids to record kinds
type Registry struct {
	kinds map[uint16]Kind
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[uint16]Kind)}
}

// DefaultRegistry returns a registry holding every telemetry kind the
// referee system sends
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range defaultKinds {
		r.Register(k)
	}
	return r
}

// Register adds or replaces a kind
func (r *Registry) Register(k Kind) {
	r.kinds[k.CmdID] = k
}

// Lookup returns the kind registered for cmdID
func (r *Registry) Lookup(cmdID uint16) (Kind, bool) {
	k, ok := r.kinds[cmdID]
	return k, ok
}

// Len returns the number of registered kinds
func (r *Registry) Len() int {
	return len(r.kinds)
}

// Decode dispatches a validated payload. Unknown ids decode to Unrecognized
// with no error; a known id with the wrong payload size fails with
// ErrPayloadLength.
func (r *Registry) Decode(cmdID uint16, payload []byte) (Record, error) {
	k, ok := r.kinds[cmdID]
	if !ok {
		p := make([]byte, len(payload))
		copy(p, payload)
		return Unrecognized{ID: cmdID, Payload: p}, nil
	}
	if !k.accepts(len(payload)) {
		if k.Fixed() {
			return nil, fmt.Errorf("%w: %s (0x%04X) got %d bytes, expected %d",
				ErrPayloadLength, k.Name, cmdID, len(payload), k.Size)
		}
		return nil, fmt.Errorf("%w: %s (0x%04X) got %d bytes, expected %d-%d",
			ErrPayloadLength, k.Name, cmdID, len(payload), k.Size, k.MaxSize)
	}
	return k.Decode(payload), nil
}

var defaultKinds = []Kind{
	{CmdID: CmdGameStatus, Name: "GAME_STATUS", Size: 11, Decode: decodeGameStatus},
	{CmdID: CmdGameResult, Name: "GAME_RESULT", Size: 1, Decode: decodeGameResult},
	{CmdID: CmdGameRobotHP, Name: "GAME_ROBOT_HP", Size: 32, Decode: decodeGameRobotHP},
	{CmdID: CmdDartStatus, Name: "DART_STATUS", Size: 3, Decode: decodeDartStatus},
	{CmdID: CmdICRABuffDebuffStatus, Name: "ICRA_BUFF_DEBUFF_ZONE_STATUS", Size: 11, Decode: decodeICRABuffDebuffZoneStatus},
	{CmdID: CmdEventData, Name: "EVENT_DATA", Size: 4, Decode: decodeEventData},
	{CmdID: CmdSupplyProjectileAction, Name: "SUPPLY_PROJECTILE_ACTION", Size: 4, Decode: decodeSupplyProjectileAction},
	{CmdID: CmdRefereeWarning, Name: "REFEREE_WARNING", Size: 2, Decode: decodeRefereeWarning},
	{CmdID: CmdDartRemainingTime, Name: "DART_REMAINING_TIME", Size: 1, Decode: decodeDartRemainingTime},
	{CmdID: CmdGameRobotStatus, Name: "GAME_ROBOT_STATUS", Size: 27, Decode: decodeGameRobotStatus},
	{CmdID: CmdPowerHeatData, Name: "POWER_HEAT_DATA", Size: 16, Decode: decodePowerHeatData},
	{CmdID: CmdGameRobotPos, Name: "GAME_ROBOT_POS", Size: 16, Decode: decodeGameRobotPos},
	{CmdID: CmdBuff, Name: "BUFF", Size: 1, Decode: decodeBuff},
	{CmdID: CmdAerialRobotEnergy, Name: "AERIAL_ROBOT_ENERGY", Size: 1, Decode: decodeAerialRobotEnergy},
	{CmdID: CmdRobotHurt, Name: "ROBOT_HURT", Size: 1, Decode: decodeRobotHurt},
	{CmdID: CmdShootData, Name: "SHOOT_DATA", Size: 7, Decode: decodeShootData},
	{CmdID: CmdBulletRemaining, Name: "BULLET_REMAINING", Size: 6, Decode: decodeBulletRemaining},
	{CmdID: CmdRFIDStatus, Name: "RFID_STATUS", Size: 4, Decode: decodeRFIDStatus},
	{CmdID: CmdDartClientCmd, Name: "DART_CLIENT_CMD", Size: 6, Decode: decodeDartClientCmd},
	{CmdID: CmdInteractiveData, Name: "INTERACTIVE_DATA", Size: InteractiveHeaderLength, MaxSize: MaxPayloadSize, Decode: decodeInteractiveData},
	{CmdID: CmdCustomControllerData, Name: "CUSTOM_CONTROLLER_DATA", Size: 1, MaxSize: CustomControllerMax, Decode: decodeCustomControllerData},
	{CmdID: CmdMapCommand, Name: "MAP_COMMAND", Size: 15, Decode: decodeMapCommand},
}
