package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/gcfg.v1"

	"cloth-sim/backend/internal/core/domain/entity"
	"cloth-sim/backend/internal/physics"
)

// ExampleFile документирует все ключи файла конфигурации со значениями по умолчанию
const ExampleFile = `[Cloth]

# Lattice resolution. The cloth has (Nx+1) x (Ny+1) particles; the row j = Ny
# is pinned.
Nx = 15
Ny = 15

# Mass of every non-pinned particle.
Mass = 1

# Width of the cloth. The rest length of every constraint is ClothSize / Nx.
ClothSize = 1

# Visual radius of the obstacle. The collision sphere is SphereSize * ColliderScale.
SphereSize = 0.2
ColliderScale = 1.3

# Horizontal amplitude of the obstacle while the fan head swings.
MovementRadius = 0.5

# Fixed integration step in seconds, passed unchanged to every world step.
TimeStep = 0.0166666667

# Angular increment of the fan per frame. The obstacle only moves while > 0.
FanPower = 0.1

# Enables the sinusoidal swing of the fan head.
IsSwinging = false

# Mirrors the collider into the visible proxy.
HelperVisible = false

[Physics]

GravityX = 0
GravityY = -9.82
GravityZ = 0

# Constraint solver passes per step.
Iterations = 10

# Fraction of velocity lost per second, in [0, 1).
LinearDamping = 0.01

# Extra distance a particle is pushed beyond the collider surface, >= 0.
CollisionMargin = 0.001

[Server]

Addr = :8080
# Frames per second driven by the ticker.
TickRate = 60
TelemetryInterval = 2s
PingInterval = 2s`

// Ошибки проверки конфигурации
var (
	ErrInvalidMass       = errors.New("particle mass must be positive")
	ErrInvalidClothSize  = errors.New("cloth size must be positive")
	ErrInvalidSphereSize = errors.New("sphere size and collider scale must be positive")
	ErrInvalidTimeStep   = errors.New("time step must be positive and finite")
	ErrInvalidParameter  = errors.New("parameter must be finite")
	ErrInvalidServer     = errors.New("invalid server configuration")
)

// Params параметры симуляции ткани
type Params struct {
	Nx, Ny         int
	Mass           float64
	ClothSize      float64
	SphereSize     float64
	ColliderScale  float64
	MovementRadius float64
	TimeStep       float64
	FanPower       float64
	IsSwinging     bool
	HelperVisible  bool
}

// DefaultParams возвращает параметры исходной сцены
func DefaultParams() Params {
	return Params{
		Nx:             15,
		Ny:             15,
		Mass:           1,
		ClothSize:      1,
		SphereSize:     0.2,
		ColliderScale:  1.3,
		MovementRadius: entity.DefaultMovementRad,
		TimeStep:       1.0 / 60.0,
		FanPower:       0.10,
		IsSwinging:     false,
		HelperVisible:  false,
	}
}

// Dist длина покоя структурного ограничения
func (p Params) Dist() float64 {
	return p.ClothSize / float64(p.Nx)
}

// ColliderRadius радиус сферы столкновения
func (p Params) ColliderRadius() float64 {
	return p.SphereSize * p.ColliderScale
}

// Validate проверяет параметры до построения решетки
func (p Params) Validate() error {
	if p.Nx <= 0 || p.Ny <= 0 {
		return fmt.Errorf("Nx=%d Ny=%d: %w", p.Nx, p.Ny, entity.ErrInvalidResolution)
	}
	if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
		return fmt.Errorf("Mass=%g: %w", p.Mass, ErrInvalidMass)
	}
	if !(p.ClothSize > 0) || math.IsInf(p.ClothSize, 0) {
		return fmt.Errorf("ClothSize=%g: %w", p.ClothSize, ErrInvalidClothSize)
	}
	if !(p.SphereSize > 0) || !(p.ColliderScale > 0) ||
		math.IsInf(p.SphereSize, 0) || math.IsInf(p.ColliderScale, 0) {
		return fmt.Errorf("SphereSize=%g ColliderScale=%g: %w", p.SphereSize, p.ColliderScale, ErrInvalidSphereSize)
	}
	if !(p.TimeStep > 0) || math.IsInf(p.TimeStep, 0) {
		return fmt.Errorf("TimeStep=%g: %w", p.TimeStep, ErrInvalidTimeStep)
	}
	if !isFinite(p.MovementRadius) {
		return fmt.Errorf("MovementRadius=%g: %w", p.MovementRadius, ErrInvalidParameter)
	}
	if !isFinite(p.FanPower) {
		return fmt.Errorf("FanPower=%g: %w", p.FanPower, ErrInvalidParameter)
	}
	return nil
}

// PhysicsSection настройки решателя в файле конфигурации
type PhysicsSection struct {
	GravityX, GravityY, GravityZ float64
	Iterations                   int
	LinearDamping                float64
	CollisionMargin              float64
}

// DefaultPhysicsSection берет значения из physics.DefaultPhysicsConfig
func DefaultPhysicsSection() PhysicsSection {
	def := physics.DefaultPhysicsConfig()
	return PhysicsSection{
		GravityX:        def.Gravity.X(),
		GravityY:        def.Gravity.Y(),
		GravityZ:        def.Gravity.Z(),
		Iterations:      def.Iterations,
		LinearDamping:   def.LinearDamping,
		CollisionMargin: def.CollisionMargin,
	}
}

// Validate проверяет настройки решателя
func (s PhysicsSection) Validate() error {
	if s.Iterations <= 0 {
		return fmt.Errorf("Iterations=%d: %w", s.Iterations, ErrInvalidParameter)
	}
	if !isFinite(s.GravityX) || !isFinite(s.GravityY) || !isFinite(s.GravityZ) {
		return fmt.Errorf("Gravity=(%g, %g, %g): %w", s.GravityX, s.GravityY, s.GravityZ, ErrInvalidParameter)
	}
	if !(s.LinearDamping >= 0 && s.LinearDamping < 1) {
		return fmt.Errorf("LinearDamping=%g outside [0, 1): %w", s.LinearDamping, ErrInvalidParameter)
	}
	if !(s.CollisionMargin >= 0) || math.IsInf(s.CollisionMargin, 0) {
		return fmt.Errorf("CollisionMargin=%g: %w", s.CollisionMargin, ErrInvalidParameter)
	}
	return nil
}

// PhysicsConfig преобразует секцию в конфигурацию решателя
func (s PhysicsSection) PhysicsConfig() *physics.PhysicsConfig {
	cfg := physics.DefaultPhysicsConfig()
	cfg.Gravity = mgl64.Vec3{s.GravityX, s.GravityY, s.GravityZ}
	cfg.Iterations = s.Iterations
	cfg.LinearDamping = s.LinearDamping
	cfg.CollisionMargin = s.CollisionMargin
	return cfg
}

// ServerSection настройки сервера кадров
type ServerSection struct {
	Addr              string
	TickRate          int
	TelemetryInterval string
	PingInterval      string
}

// DefaultServerSection возвращает настройки сервера по умолчанию
func DefaultServerSection() ServerSection {
	return ServerSection{
		Addr:              ":8080",
		TickRate:          60,
		TelemetryInterval: "2s",
		PingInterval:      "2s",
	}
}

// Server разобранные настройки сервера
type Server struct {
	Addr              string
	TickRate          int
	TelemetryInterval time.Duration
	PingInterval      time.Duration
}

// Server разбирает интервалы и проверяет значения
func (s ServerSection) Server() (Server, error) {
	if s.TickRate <= 0 {
		return Server{}, fmt.Errorf("TickRate=%d: %w", s.TickRate, ErrInvalidServer)
	}
	telemetry, err := time.ParseDuration(s.TelemetryInterval)
	if err != nil {
		return Server{}, fmt.Errorf("TelemetryInterval: %v: %w", err, ErrInvalidServer)
	}
	ping, err := time.ParseDuration(s.PingInterval)
	if err != nil {
		return Server{}, fmt.Errorf("PingInterval: %v: %w", err, ErrInvalidServer)
	}
	return Server{
		Addr:              s.Addr,
		TickRate:          s.TickRate,
		TelemetryInterval: telemetry,
		PingInterval:      ping,
	}, nil
}

// File полный файл конфигурации
type File struct {
	Cloth   Params
	Physics PhysicsSection
	Server  ServerSection
}

// Default возвращает конфигурацию, эквивалентную пустому файлу
func Default() *File {
	return &File{
		Cloth:   DefaultParams(),
		Physics: DefaultPhysicsSection(),
		Server:  DefaultServerSection(),
	}
}

// Load читает файл; отсутствующие ключи сохраняют значения по умолчанию
func Load(fname string) (*File, error) {
	f := Default()
	if err := gcfg.ReadFileInto(f, fname); err != nil {
		return nil, fmt.Errorf("read config %s: %w", fname, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", fname, err)
	}
	return f, nil
}

// Parse разбирает конфигурацию из строки
func Parse(text string) (*File, error) {
	f := Default()
	if err := gcfg.ReadStringInto(f, text); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate проверяет все секции
func (f *File) Validate() error {
	if err := f.Cloth.Validate(); err != nil {
		return fmt.Errorf("[Cloth] %w", err)
	}
	if err := f.Physics.Validate(); err != nil {
		return fmt.Errorf("[Physics] %w", err)
	}
	if _, err := f.Server.Server(); err != nil {
		return fmt.Errorf("[Server] %w", err)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
