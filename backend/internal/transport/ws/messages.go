package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/domain/entity"
	"cloth-sim/backend/internal/core/port/in/simulation"
)

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// ParseMessage разбирает входящее сообщение в соответствующий тип
func ParseMessage(data []byte) (interface{}, error) {
	var baseMessage struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &baseMessage); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	var msg interface{}
	switch baseMessage.Type {
	case MessageTypeCommand:
		msg = &CommandMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	case MessageTypePong:
		msg = &PongMessage{}
	case MessageTypeAck:
		msg = &AckMessage{}
	case MessageTypeInfo:
		msg = &InfoMessage{}
	case MessageTypeFrame:
		msg = &FrameMessage{}
	case MessageTypeConfig:
		msg = &ConfigMessage{}
	default:
		return nil, fmt.Errorf("unknown message type %q: %w", baseMessage.Type, ErrInvalidMessage)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("error parsing %s message: %w", baseMessage.Type, err)
	}
	return msg, nil
}

func vec3Message(v mgl64.Vec3) Vec3Message {
	return Vec3Message{X: float32(v.X()), Y: float32(v.Y()), Z: float32(v.Z())}
}

// NewFrameMessage создает сообщение кадра
func NewFrameMessage(frame simulation.FrameResult) *FrameMessage {
	return &FrameMessage{
		Type:         MessageTypeFrame,
		Frame:        frame.Frame,
		Vertices:     entity.Flatten(frame.Vertices),
		Collider:     vec3Message(frame.Collider),
		FanRotation:  frame.FanRotation,
		HeadRotation: frame.HeadRotation,
		ProxyVisible: frame.ProxyVisible,
		Proxy:        vec3Message(frame.ProxyPosition),
		ServerTime:   GetCurrentServerTime(),
	}
}

// NewParamsMessage переводит параметры в JSON-представление
func NewParamsMessage(p config.Params) ParamsMessage {
	return ParamsMessage{
		Nx:             p.Nx,
		Ny:             p.Ny,
		Mass:           p.Mass,
		ClothSize:      p.ClothSize,
		SphereSize:     p.SphereSize,
		ColliderScale:  p.ColliderScale,
		MovementRadius: p.MovementRadius,
		TimeStep:       p.TimeStep,
		FanPower:       p.FanPower,
		IsSwinging:     p.IsSwinging,
		HelperVisible:  p.HelperVisible,
	}
}

// NewConfigMessage создает сообщение с текущими параметрами
func NewConfigMessage(p config.Params) *ConfigMessage {
	return &ConfigMessage{
		Type:       MessageTypeConfig,
		Params:     NewParamsMessage(p),
		ServerTime: GetCurrentServerTime(),
	}
}

// Apply накладывает изменения на параметры
func (pp ParamsPatch) Apply(p config.Params) config.Params {
	if pp.Nx != nil {
		p.Nx = *pp.Nx
	}
	if pp.Ny != nil {
		p.Ny = *pp.Ny
	}
	if pp.Mass != nil {
		p.Mass = *pp.Mass
	}
	if pp.ClothSize != nil {
		p.ClothSize = *pp.ClothSize
	}
	if pp.SphereSize != nil {
		p.SphereSize = *pp.SphereSize
	}
	if pp.ColliderScale != nil {
		p.ColliderScale = *pp.ColliderScale
	}
	if pp.MovementRadius != nil {
		p.MovementRadius = *pp.MovementRadius
	}
	if pp.TimeStep != nil {
		p.TimeStep = *pp.TimeStep
	}
	if pp.FanPower != nil {
		p.FanPower = *pp.FanPower
	}
	if pp.IsSwinging != nil {
		p.IsSwinging = *pp.IsSwinging
	}
	if pp.HelperVisible != nil {
		p.HelperVisible = *pp.HelperVisible
	}
	return p
}

// NewPongMessage создает ответ на пинг
func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewPingMessage создает серверный пинг
func NewPingMessage() *PingMessage {
	return &PingMessage{
		Type:       MessageTypePing,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewAckMessage создает подтверждение команды; err != nil дает статус "error"
func NewAckMessage(cmd string, clientTime int64, err error) *AckMessage {
	ack := &AckMessage{
		Type:       MessageTypeAck,
		Cmd:        cmd,
		Status:     "ok",
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
	if err != nil {
		ack.Status = "error"
		ack.Error = err.Error()
	}
	return ack
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{
		Type:    MessageTypeInfo,
		Message: message,
	}
}

// NewCommandMessage создает команду клиента
func NewCommandMessage(cmd string, data interface{}) (*CommandMessage, error) {
	msg := &CommandMessage{
		Type:       MessageTypeCommand,
		Cmd:        cmd,
		ClientTime: GetCurrentServerTime(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s data: %w", cmd, err)
		}
		msg.Data = raw
	}
	return msg, nil
}
