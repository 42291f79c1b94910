package simulation

import (
	"github.com/go-gl/mathgl/mgl64"

	"cloth-sim/backend/internal/config"
)

// FrameResult результат одного кадра симуляции
type FrameResult struct {
	Frame uint64

	// Vertices позиции вершин сетки, индекс j*(Nx+1)+i
	Vertices []mgl64.Vec3

	// Collider позиция сферы столкновения после перемещения в этом кадре
	Collider mgl64.Vec3

	FanRotation  float64
	HeadRotation float64

	// ProxyVisible и ProxyPosition отражают вспомогательную сферу
	ProxyVisible  bool
	ProxyPosition mgl64.Vec3
}

// SimulationPort определяет интерфейс управления симуляцией ткани
type SimulationPort interface {
	// Configure перестраивает симуляцию целиком с новыми параметрами
	Configure(params config.Params) error

	// Reconfigure перестраивает симуляцию из измененных текущих параметров атомарно
	Reconfigure(update func(current config.Params) config.Params) error

	// AdvanceFrame выполняет один кадр: синхронизация, вентилятор, коллайдер, шаг мира
	AdvanceFrame() (FrameResult, error)

	// SetFanPower меняет мощность вентилятора со следующего кадра
	SetFanPower(power float64) error

	// SetSwinging включает или выключает качание головы вентилятора
	SetSwinging(swinging bool)

	// SetHelperVisible меняет видимость вспомогательной сферы без перестройки
	SetHelperVisible(visible bool)

	// Params возвращает текущие параметры
	Params() config.Params
}
