package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// PhysicsConfig содержит настройки решателя физического мира
type PhysicsConfig struct {
	// Gravity - ускорение свободного падения, м/с^2
	Gravity mgl64.Vec3

	// Iterations - число проходов решателя ограничений за один шаг
	Iterations int

	// LinearDamping - доля скорости, теряемая за секунду
	LinearDamping float64

	// CollisionMargin - зазор, на который частица выталкивается за поверхность коллайдера
	CollisionMargin float64

	// MinConstraintLength - длина, ниже которой ограничение считается вырожденным и пропускается
	MinConstraintLength float64
}

// GlobalPhysicsConfig - глобальная конфигурация физики
var GlobalPhysicsConfig *PhysicsConfig
var configMutex sync.RWMutex

// DefaultPhysicsConfig возвращает конфигурацию по умолчанию
func DefaultPhysicsConfig() *PhysicsConfig {
	return &PhysicsConfig{
		Gravity:             mgl64.Vec3{0, -9.82, 0},
		Iterations:          10,
		LinearDamping:       0.01,
		CollisionMargin:     0.001,
		MinConstraintLength: 1e-9,
	}
}

// GetPhysicsConfig возвращает копию текущей конфигурации физики
func GetPhysicsConfig() *PhysicsConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if GlobalPhysicsConfig == nil {
		return DefaultPhysicsConfig()
	}

	// Создаем копию, чтобы избежать гонок данных
	config := *GlobalPhysicsConfig
	return &config
}

// SetPhysicsConfig устанавливает новую конфигурацию физики
func SetPhysicsConfig(config *PhysicsConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()

	newConfig := *config
	GlobalPhysicsConfig = &newConfig
}

// Initialize инициализирует глобальную конфигурацию физики
func Initialize() {
	configMutex.RLock()
	initialized := GlobalPhysicsConfig != nil
	configMutex.RUnlock()

	if !initialized {
		SetPhysicsConfig(DefaultPhysicsConfig())
	}
}

func init() {
	Initialize()
}
