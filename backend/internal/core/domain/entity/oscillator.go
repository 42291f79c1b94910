package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Параметры кинематики вентилятора, подобранные вручную
const (
	SwingTimeStep       = 0.01 // Прирост countTime за кадр при включенном качании
	SwingFrequency      = 0.7  // Множитель угла в sin(countTime * SwingFrequency)
	ColliderDepthOffset = 0.36 // c в z = (fanPower*2 - c) + |head|*k
	ColliderSwingDepth  = -0.2 // k в z = (fanPower*2 - c) + |head|*k
	DefaultMovementRad  = 0.5  // Амплитуда сдвига коллайдера по X
	fanPowerDepthFactor = 2.0
)

// Oscillator состояние вентилятора, который двигает коллайдер.
// Все величины выводятся из накопленного времени, а не интегрируются физически.
type Oscillator struct {
	FanPower     float64 // Угловой прирост лопастей за кадр
	Swinging     bool    // Включено ли качание головы
	FanRotation  float64 // Накопленный угол лопастей, без ограничения
	CountTime    float64 // Накопленное время качания
	HeadRotation float64 // Текущий угол поворота головы
}

// Advance продвигает осциллятор на один кадр.
// При выключенном качании HeadRotation сохраняет последнее значение.
func (o *Oscillator) Advance() {
	o.FanRotation += o.FanPower

	if o.Swinging {
		o.CountTime += SwingTimeStep
		o.HeadRotation = math.Sin(o.CountTime * SwingFrequency)
	}
}

// Drives сообщает, пересчитывается ли позиция коллайдера в этом кадре
func (o *Oscillator) Drives() bool {
	return o.FanPower > 0
}

// ColliderPosition вычисляет позицию коллайдера из текущего состояния
func (o *Oscillator) ColliderPosition(movementRadius float64) mgl64.Vec3 {
	return mgl64.Vec3{
		movementRadius * o.HeadRotation,
		0,
		(o.FanPower*fanPowerDepthFactor - ColliderDepthOffset) + math.Abs(o.HeadRotation)*ColliderSwingDepth,
	}
}

// Reposition записывает новую позицию в коллайдер, только если вентилятор включен.
// Возвращает true, если позиция была обновлена.
func (o *Oscillator) Reposition(collider *Body, movementRadius float64) bool {
	if !o.Drives() {
		return false
	}
	collider.Position = o.ColliderPosition(movementRadius)
	return true
}
