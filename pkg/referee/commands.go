// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"fmt"
	"math"
	"time"
)

// Picture ids of the operator status panel
const (
	PictureArmor0 uint8 = iota + 1
	PictureArmor1
	PictureArmor2
	PictureArmor3
	PictureCapacitor
	PictureChassis
	PictureGimbal
	PictureShooter
	PictureTarget
)

// Screen geometry of the operator client (1920x1080)
const (
	ScreenCenterX = 960
	ScreenCenterY = 540

	armorRingRadius = 150
	armorRadius     = 20
	circleWidth     = 3

	fontSize  = 20
	textWidth = 2

	// ArmorHitHighlight is how long a damaged plate stays highlighted
	ArmorHitHighlight = 500 * time.Millisecond
)

var (
	capacitorPos = [2]int{910, 100}
	chassisPos   = [2]int{100, 800}
	gimbalPos    = [2]int{100, 750}
	shooterPos   = [2]int{100, 700}
	targetPos    = [2]int{100, 650}
)

// Commander builds outbound command frames for one robot. It only produces
// bytes and never touches the telemetry snapshot.
type Commander struct {
	enc   *Encoder
	ident Identity
}

// NewCommander creates a commander sending as ident. A nil encoder gets a
// fresh one.
func NewCommander(enc *Encoder, ident Identity) *Commander {
	if enc == nil {
		enc = NewEncoder()
	}
	return &Commander{enc: enc, ident: ident}
}

// SetIdentity updates the sender, normally after the referee reports the
// robot id
func (c *Commander) SetIdentity(ident Identity) {
	c.ident = ident
}

// Identity returns the current sender identity
func (c *Commander) Identity() Identity {
	return c.ident
}

func (c *Commander) sendGraphic(dataCmdID uint16, g Graphic, extra []byte) ([]byte, error) {
	if c.ident.ClientID == 0 {
		return nil, fmt.Errorf("%w: robot id %d", ErrNoClient, c.ident.RobotID)
	}
	payload := AppendInteractiveHeader(make([]byte, 0, InteractiveHeaderLength+GraphicLength+len(extra)),
		dataCmdID, uint16(c.ident.RobotID), c.ident.ClientID)
	payload, err := g.AppendBinary(payload)
	if err != nil {
		return nil, err
	}
	payload = append(payload, extra...)
	return c.enc.Encode(CmdInteractiveData, payload)
}

// DrawCircle draws, moves or removes a circle on the operator client
func (c *Commander) DrawCircle(centerX, centerY, radius int, pictureID uint8, color GraphicColor, op GraphicOperate) ([]byte, error) {
	if centerX < 0 || centerY < 0 || radius < 0 {
		return nil, fmt.Errorf("%w: circle (%d,%d) r=%d", ErrGraphicField, centerX, centerY, radius)
	}
	g := Graphic{
		Name:    GraphicName(pictureID),
		Operate: op,
		Type:    TypeCircle,
		Color:   color,
		Width:   circleWidth,
		StartX:  uint16(centerX),
		StartY:  uint16(centerY),
		Radius:  uint16(radius),
	}
	return c.sendGraphic(DataCmdDrawGraphic1, g, nil)
}

// DrawString draws, updates or removes a text label. text is limited to 30
// bytes.
func (c *Commander) DrawString(x, y int, pictureID uint8, text string, color GraphicColor, op GraphicOperate) ([]byte, error) {
	if len(text) > CharacterDataLength {
		return nil, fmt.Errorf("%w: %q", ErrStringTooLong, text)
	}
	if x < 0 || y < 0 {
		return nil, fmt.Errorf("%w: string at (%d,%d)", ErrGraphicField, x, y)
	}
	g := Graphic{
		Name:       GraphicName(pictureID),
		Operate:    op,
		Type:       TypeCharacter,
		Color:      color,
		StartAngle: fontSize,
		EndAngle:   uint16(len(text)),
		Width:      textWidth,
		StartX:     uint16(x),
		StartY:     uint16(y),
	}
	data := make([]byte, CharacterDataLength)
	copy(data, text)
	return c.sendGraphic(DataCmdDrawCharacter, g, data)
}

// SendInteractiveData sends one byte to another robot of the same side over
// a robot-to-robot data channel (0x0200-0x02FF)
func (c *Commander) SendInteractiveData(dataCmdID uint16, receiver RobotID, data byte) ([]byte, error) {
	if dataCmdID < DataCmdRobotMin || dataCmdID > DataCmdRobotMax {
		return nil, fmt.Errorf("%w: 0x%04X", ErrDataCmdRange, dataCmdID)
	}
	if AllianceOf(receiver) == AllianceUnknown {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReceiver, receiver)
	}
	payload := AppendInteractiveHeader(make([]byte, 0, InteractiveHeaderLength+1),
		dataCmdID, uint16(c.ident.RobotID), uint16(receiver))
	payload = append(payload, data)
	return c.enc.Encode(CmdInteractiveData, payload)
}

// ArmorColor is yellow, or amaranth while a plate was hit in the last 500ms
func ArmorColor(lastHit, now time.Time) GraphicColor {
	if !lastHit.IsZero() && now.Sub(lastHit) < ArmorHitHighlight {
		return ColorAmaranth
	}
	return ColorYellow
}

// ArmorInfo draws the four armor plates as circles around the screen centre,
// rotated by the gimbal yaw relative to the chassis (radians)
func (c *Commander) ArmorInfo(yaw float64, armorHit [4]time.Time, now time.Time, op GraphicOperate) ([][]byte, error) {
	frames := make([][]byte, 0, len(armorHit))
	for i := range armorHit {
		angle := yaw + float64(i)*math.Pi/2
		x := ScreenCenterX + int(math.Round(armorRingRadius*math.Cos(angle)))
		y := ScreenCenterY + int(math.Round(armorRingRadius*math.Sin(angle)))
		f, err := c.DrawCircle(x, y, armorRadius, PictureArmor0+uint8(i), ArmorColor(armorHit[i], now), op)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// CapacitorInfo shows the super capacitor charge in percent
func (c *Commander) CapacitorInfo(percent float64, op GraphicOperate) ([]byte, error) {
	color := ColorGreen
	if percent < 30 {
		color = ColorOrange
	}
	text := fmt.Sprintf("cap: %3.0f%%", math.Max(0, math.Min(100, percent)))
	return c.DrawString(capacitorPos[0], capacitorPos[1], PictureCapacitor, text, color, op)
}

// ChassisInfo shows the chassis mode; orange while the power limit is lifted
func (c *Commander) ChassisInfo(mode uint8, unlimited bool, op GraphicOperate) ([]byte, error) {
	color := ColorYellow
	if unlimited {
		color = ColorOrange
	}
	return c.DrawString(chassisPos[0], chassisPos[1], PictureChassis, "chassis: "+ChassisModeName(mode), color, op)
}

// GimbalInfo shows the gimbal mode
func (c *Commander) GimbalInfo(mode uint8, op GraphicOperate) ([]byte, error) {
	return c.DrawString(gimbalPos[0], gimbalPos[1], PictureGimbal, "gimbal: "+GimbalModeName(mode), ColorYellow, op)
}

// ShooterInfo shows the shooter mode; orange in burst
func (c *Commander) ShooterInfo(mode uint8, burst bool, op GraphicOperate) ([]byte, error) {
	color := ColorYellow
	if burst {
		color = ColorOrange
	}
	return c.DrawString(shooterPos[0], shooterPos[1], PictureShooter, "shooter: "+ShooterModeName(mode), color, op)
}

// AttackTargetInfo shows whether auto-aim targets the base or armor plates
func (c *Commander) AttackTargetInfo(attackBase bool, op GraphicOperate) ([]byte, error) {
	text, color := "target: armor", ColorYellow
	if attackBase {
		text, color = "target: base", ColorOrange
	}
	return c.DrawString(targetPos[0], targetPos[1], PictureTarget, text, color, op)
}

// PanelState is everything the status panel shows
type PanelState struct {
	Yaw         float64
	ArmorHit    [4]time.Time
	Now         time.Time
	Capacitor   float64
	ChassisMode uint8
	Unlimited   bool
	GimbalMode  uint8
	ShooterMode uint8
	Burst       bool
	AttackBase  bool
}

// StatusPanel builds every panel primitive, one checksummed frame each
func (c *Commander) StatusPanel(st PanelState, op GraphicOperate) ([][]byte, error) {
	frames, err := c.ArmorInfo(st.Yaw, st.ArmorHit, st.Now, op)
	if err != nil {
		return nil, err
	}

	builders := []func() ([]byte, error){
		func() ([]byte, error) { return c.CapacitorInfo(st.Capacitor, op) },
		func() ([]byte, error) { return c.ChassisInfo(st.ChassisMode, st.Unlimited, op) },
		func() ([]byte, error) { return c.GimbalInfo(st.GimbalMode, op) },
		func() ([]byte, error) { return c.ShooterInfo(st.ShooterMode, st.Burst, op) },
		func() ([]byte, error) { return c.AttackTargetInfo(st.AttackBase, op) },
	}
	for _, build := range builders {
		f, err := build()
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// ChassisModeName returns the label of a chassis mode
func ChassisModeName(mode uint8) string {
	switch mode {
	case ChassisRaw:
		return "raw"
	case ChassisFollow:
		return "follow"
	case ChassisGyro:
		return "gyro"
	case ChassisTwist:
		return "twist"
	default:
		return "unknown"
	}
}

// GimbalModeName returns the label of a gimbal mode
func GimbalModeName(mode uint8) string {
	switch mode {
	case GimbalRate:
		return "rate"
	case GimbalTrack:
		return "track"
	case GimbalDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ShooterModeName returns the label of a shooter mode
func ShooterModeName(mode uint8) string {
	switch mode {
	case ShooterStop:
		return "stop"
	case ShooterReady:
		return "ready"
	case ShooterPush:
		return "push"
	default:
		return "unknown"
	}
}
