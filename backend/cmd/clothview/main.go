package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	adapterPhysics "cloth-sim/backend/internal/adapter/out/physics"
	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/domain/service"
	"cloth-sim/backend/internal/physics"
)

const fanPowerStep = 0.02

// Viewer терминальный просмотрщик ткани
type Viewer struct {
	screen tcell.Screen
	driver *service.FrameDriver
	view   Projection
	last   service.FrameResult
	err    error
	paused bool
}

func NewViewer(driver *service.FrameDriver) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	v := &Viewer{
		screen: screen,
		driver: driver,
		view:   Projection{Axis: ViewFront, Extent: 0.8},
	}
	v.view.Width, v.view.Height = screen.Size()
	return v, nil
}

func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		params := v.driver.Params()
		switch ev.Rune() {
		case 'q':
			return false
		case '+', '=':
			v.err = v.driver.SetFanPower(params.FanPower + fanPowerStep)
		case '-':
			v.err = v.driver.SetFanPower(params.FanPower - fanPowerStep)
		case '0':
			v.err = v.driver.SetFanPower(0)
		case 's':
			v.driver.SetSwinging(!params.IsSwinging)
		case 'h':
			v.driver.SetHelperVisible(!params.HelperVisible)
		case 'r':
			v.err = v.driver.Configure(params)
		case 'v':
			if v.view.Axis == ViewFront {
				v.view.Axis = ViewSide
			} else {
				v.view.Axis = ViewFront
			}
		case ' ':
			v.paused = !v.paused
		}

	case *tcell.EventResize:
		v.view.Width, v.view.Height = v.screen.Size()
		v.screen.Sync()
	}

	return true
}

func (v *Viewer) step() {
	if v.paused {
		return
	}
	frame, err := v.driver.AdvanceFrame()
	if err != nil {
		v.err = err
		v.paused = true
		return
	}
	v.last = frame
}

func (v *Viewer) draw() {
	v.screen.Clear()

	params := v.driver.Params()
	v.drawCollider(v.last.Collider, params.ColliderRadius())

	for _, p := range v.last.Vertices {
		x, y, ok := v.view.Project(p)
		if !ok {
			continue
		}
		depth := p.Z()
		if v.view.Axis == ViewSide {
			depth = -p.X()
		}
		v.screen.SetContent(x, y, shade(depth), nil, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	}

	if v.last.ProxyVisible {
		if x, y, ok := v.view.Project(v.last.ProxyPosition); ok {
			v.screen.SetContent(x, y, 'X', nil, tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
		}
	}

	status := fmt.Sprintf(" frame %d | fan %.2f | swing %v | head %.3f | view %s ",
		v.last.Frame, params.FanPower, params.IsSwinging, v.last.HeadRotation, v.view.Axis)
	if v.paused {
		status += "| paused "
	}
	v.drawText(0, 0, status, tcell.StyleDefault.Reverse(true))
	v.drawText(0, v.view.Height-1, " +/- fan  0 stop  s swing  h helper  r rebuild  v view  space pause  q quit ",
		tcell.StyleDefault.Foreground(tcell.ColorGray))
	if v.err != nil {
		v.drawText(0, 1, " "+v.err.Error()+" ", tcell.StyleDefault.Foreground(tcell.ColorRed))
	}

	v.screen.Show()
}

// drawCollider закрашивает проекцию сферы столкновения
func (v *Viewer) drawCollider(center mgl64.Vec3, radius float64) {
	cx, cy, _ := v.view.Project(center)
	rows := v.view.Radius(radius)
	style := tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)

	r := int(rows) + 1
	for dy := -r; dy <= r; dy++ {
		for dx := -2 * r; dx <= 2*r; dx++ {
			fx := float64(dx) / 2
			fy := float64(dy)
			if fx*fx+fy*fy > rows*rows {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || x >= v.view.Width || y < 0 || y >= v.view.Height {
				continue
			}
			v.screen.SetContent(x, y, '░', nil, style)
		}
	}
}

func (v *Viewer) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= v.view.Width {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (v *Viewer) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}

		case <-ticker.C:
			v.step()
			v.draw()
		}
	}
}

func (v *Viewer) cleanup() {
	v.screen.Fini()
}

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации (gcfg)")
	fps := flag.Int("fps", 60, "частота кадров")
	logPath := flag.String("log", "", "файл лога, по умолчанию лог отключен")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *fps <= 0 {
		*fps = 60
	}

	// Терминал занят экраном, поэтому лог пишется в файл или отбрасывается
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "", log.LstdFlags)

	physics.SetPhysicsConfig(cfg.Physics.PhysicsConfig())

	driver, err := service.NewFrameDriver(cfg.Cloth, adapterPhysics.NewSolverWorldFactory(logger), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build simulation: %v\n", err)
		os.Exit(1)
	}

	viewer, err := NewViewer(driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer viewer.cleanup()

	viewer.run(time.Second / time.Duration(*fps))
}
