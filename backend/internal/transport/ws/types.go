package ws

import (
	"encoding/json"
	"errors"
)

// Константы для WebSocket сообщений
const (
	// Типы сообщений
	MessageTypeFrame   = "frame"   // Кадр симуляции
	MessageTypeConfig  = "config"  // Текущие параметры симуляции
	MessageTypePing    = "ping"    // Пинг для измерения задержки
	MessageTypePong    = "pong"    // Ответ на пинг
	MessageTypeCommand = "cmd"     // Команда от клиента
	MessageTypeAck     = "cmd_ack" // Подтверждение команды
	MessageTypeInfo    = "info"    // Информационное сообщение
)

// Команды клиента
const (
	CmdSetFanPower      = "set_fan_power"
	CmdSetSwinging      = "set_swinging"
	CmdSetHelperVisible = "set_helper_visible"
	CmdConfigure        = "configure"
	CmdGetConfig        = "get_config"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownCommand = errors.New("unknown command")
)

// Vec3Message вектор в сообщениях
type Vec3Message struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// FrameMessage кадр симуляции для рендера
type FrameMessage struct {
	Type         string      `json:"type"`
	Frame        uint64      `json:"frame"`
	Vertices     []float32   `json:"vertices"` // x,y,z подряд, вершина j*(Nx+1)+i
	Collider     Vec3Message `json:"collider"`
	FanRotation  float64     `json:"fan_rotation"`
	HeadRotation float64     `json:"head_rotation"`
	ProxyVisible bool        `json:"proxy_visible"`
	Proxy        Vec3Message `json:"proxy"`
	ServerTime   int64       `json:"server_time"`
}

// ParamsMessage параметры симуляции в JSON
type ParamsMessage struct {
	Nx             int     `json:"nx"`
	Ny             int     `json:"ny"`
	Mass           float64 `json:"mass"`
	ClothSize      float64 `json:"cloth_size"`
	SphereSize     float64 `json:"sphere_size"`
	ColliderScale  float64 `json:"collider_scale"`
	MovementRadius float64 `json:"movement_radius"`
	TimeStep       float64 `json:"time_step"`
	FanPower       float64 `json:"fan_power"`
	IsSwinging     bool    `json:"is_swinging"`
	HelperVisible  bool    `json:"helper_visible"`
}

// ParamsPatch частичное изменение параметров для команды configure.
// Отсутствующие поля сохраняют текущие значения.
type ParamsPatch struct {
	Nx             *int     `json:"nx,omitempty"`
	Ny             *int     `json:"ny,omitempty"`
	Mass           *float64 `json:"mass,omitempty"`
	ClothSize      *float64 `json:"cloth_size,omitempty"`
	SphereSize     *float64 `json:"sphere_size,omitempty"`
	ColliderScale  *float64 `json:"collider_scale,omitempty"`
	MovementRadius *float64 `json:"movement_radius,omitempty"`
	TimeStep       *float64 `json:"time_step,omitempty"`
	FanPower       *float64 `json:"fan_power,omitempty"`
	IsSwinging     *bool    `json:"is_swinging,omitempty"`
	HelperVisible  *bool    `json:"helper_visible,omitempty"`
}

// ConfigMessage текущие параметры симуляции
type ConfigMessage struct {
	Type       string        `json:"type"`
	Params     ParamsMessage `json:"params"`
	ServerTime int64         `json:"server_time"`
}

// CommandMessage представляет команду от клиента
type CommandMessage struct {
	Type       string          `json:"type"`
	Cmd        string          `json:"cmd,omitempty"`
	ClientTime int64           `json:"client_time,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// AckMessage представляет подтверждение команды сервером
type AckMessage struct {
	Type       string `json:"type"`
	Cmd        string `json:"cmd"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// PingMessage представляет пинг
type PingMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time,omitempty"`
	ServerTime int64  `json:"server_time,omitempty"`
}

// PongMessage представляет ответ на пинг от сервера
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// InfoMessage представляет информационное сообщение от сервера
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
