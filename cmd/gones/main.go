// Command gones is a NES emulator built around internal/emulator's Emu core.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"gones/internal/config"
	"gones/internal/debug"
	"gones/internal/emulator"
	"gones/internal/graphics"
	"gones/internal/input"
	"gones/internal/version"
)

func main() {
	romFile := flag.String("rom", "", "Path to NES ROM file")
	configPath := flag.String("config", "", "Path to configuration file (default: "+config.DefaultPath()+")")
	debugMode := flag.Bool("debug", false, "Enable debug frame dumping")
	nogui := flag.Bool("nogui", false, "Run headless, without opening a window")
	frames := flag.Int("frames", 0, "Headless mode: stop after N frames (0 = run until interrupted)")
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		version.PrintBuildInfo()
		return
	}
	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "error: -rom is required")
		printUsage()
		os.Exit(1)
	}

	cfg := config.New()
	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := cfg.LoadFromFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug.EnableLogging = cfg.Debug.EnableLogging || *debugMode

	romBytes, err := os.ReadFile(*romFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading ROM %s: %v\n", *romFile, err)
		os.Exit(1)
	}

	emu := emulator.New()
	if err := emu.Attach(romBytes); err != nil {
		fmt.Fprintf(os.Stderr, "error: attaching ROM: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("gones %s - loaded %s\n", version.GetVersion(), filepath.Base(*romFile))

	quit := setupGracefulShutdown()

	var runErr error
	if *nogui {
		runErr = runHeadlessMode(emu, cfg, *frames, quit)
	} else {
		runErr = runGUIMode(emu, cfg)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

// setupGracefulShutdown returns a channel that is closed once SIGINT or
// SIGTERM arrives, so long-running loops can notice and unwind cleanly.
func setupGracefulShutdown() <-chan struct{} {
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(done)
	}()
	return done
}

// runHeadlessMode drives the core directly with no window, useful for
// batch runs and automated ROM smoke tests.
func runHeadlessMode(emu *emulator.Emu, cfg *config.Config, maxFrames int, quit <-chan struct{}) error {
	var dumper *debug.FrameDumper
	if cfg.Debug.EnableLogging {
		dumper = debug.NewFrameDumper(filepath.Join(cfg.Paths.SaveStates, "..", "dumps"))
		dumper.Enable()
	}

	start := time.Now()
	var frameNum uint64
	for {
		select {
		case <-quit:
			fmt.Println("interrupted, shutting down")
			return nil
		default:
		}
		if maxFrames > 0 && int(frameNum) >= maxFrames {
			break
		}

		frame, _ := emu.StepFrame()
		if dumper != nil {
			if err := dumper.DumpFrameBuffer(frame, frameNum); err != nil {
				fmt.Fprintf(os.Stderr, "warning: frame dump failed: %v\n", err)
			}
		}
		frameNum++
		if frameNum%60 == 0 {
			elapsed := time.Since(start).Seconds()
			fmt.Printf("frame %d, cycle %d, %.1f fps\n", frameNum, emu.CycleCount(), float64(frameNum)/elapsed)
		}
	}
	fmt.Printf("ran %d frames in %s\n", frameNum, time.Since(start).Round(time.Millisecond))
	return nil
}

// runGUIMode opens a window via internal/graphics and drives the emulator
// from its update callback, translating window input events into
// controller state and save-state hotkeys.
func runGUIMode(emu *emulator.Emu, cfg *config.Config) error {
	backend, err := graphics.CreateBackend(graphics.BackendEbitengine)
	if err != nil {
		return fmt.Errorf("create graphics backend: %w", err)
	}
	gfxConfig := graphics.Config{
		WindowTitle:  "gones",
		WindowWidth:  cfg.Window.Width,
		WindowHeight: cfg.Window.Height,
		Fullscreen:   cfg.Window.Fullscreen,
		VSync:        cfg.Video.VSync,
		Filter:       cfg.Video.Filter,
		AspectRatio:  cfg.Video.AspectRatio,
		Debug:        cfg.Debug.EnableLogging,
	}
	if err := backend.Initialize(gfxConfig); err != nil {
		return fmt.Errorf("initialize graphics backend: %w", err)
	}
	defer backend.Cleanup()

	w, h := cfg.WindowResolution()
	window, err := backend.CreateWindow(gfxConfig.WindowTitle, w, h)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Cleanup()

	sess := &guiSession{emu: emu, cfg: cfg, window: window}
	if cfg.Audio.Enabled {
		actx := audio.NewContext(audioSampleRate)
		player, stream, err := newAudioPlayer(actx)
		if err != nil {
			return fmt.Errorf("start audio: %w", err)
		}
		player.SetVolume(float64(cfg.Audio.Volume))
		sess.audio = stream
	}
	window.SetEmulatorUpdateFunc(sess.update)

	runner, ok := graphics.AsEbitengineWindow(window)
	if !ok {
		return fmt.Errorf("graphics: expected an Ebitengine window")
	}
	return runner.Run()
}

// guiSession holds the per-frame state threaded through the window's
// update callback: controller bit state and save-state slot bookkeeping.
type guiSession struct {
	emu    *emulator.Emu
	cfg    *config.Config
	window graphics.Window
	audio  *sampleStream
	pad1   uint8
	pad2   uint8
}

// buttonBit maps a graphics.Button to (port, NES button bit).
func buttonBit(b graphics.Button) (port int, bit input.Button, ok bool) {
	switch b {
	case graphics.ButtonUp:
		return 0, input.Up, true
	case graphics.ButtonDown:
		return 0, input.Down, true
	case graphics.ButtonLeft:
		return 0, input.Left, true
	case graphics.ButtonRight:
		return 0, input.Right, true
	case graphics.ButtonA:
		return 0, input.A, true
	case graphics.ButtonB:
		return 0, input.B, true
	case graphics.ButtonStart:
		return 0, input.Start, true
	case graphics.ButtonSelect:
		return 0, input.Select, true
	case graphics.Button2Up:
		return 1, input.Up, true
	case graphics.Button2Down:
		return 1, input.Down, true
	case graphics.Button2Left:
		return 1, input.Left, true
	case graphics.Button2Right:
		return 1, input.Right, true
	case graphics.Button2A:
		return 1, input.A, true
	case graphics.Button2B:
		return 1, input.B, true
	case graphics.Button2Start:
		return 1, input.Start, true
	case graphics.Button2Select:
		return 1, input.Select, true
	}
	return 0, 0, false
}

// saveSlotKey maps F1-F10 to save-state slots 1-5: F1-F5 save, F6-F10 load
// the same slot number.
func saveSlotKey(k graphics.Key) (slot int, save bool, ok bool) {
	switch k {
	case graphics.KeyF1:
		return 1, true, true
	case graphics.KeyF2:
		return 2, true, true
	case graphics.KeyF3:
		return 3, true, true
	case graphics.KeyF4:
		return 4, true, true
	case graphics.KeyF5:
		return 5, true, true
	case graphics.KeyF6:
		return 1, false, true
	case graphics.KeyF7:
		return 2, false, true
	case graphics.KeyF8:
		return 3, false, true
	case graphics.KeyF9:
		return 4, false, true
	case graphics.KeyF10:
		return 5, false, true
	}
	return 0, false, false
}

func (s *guiSession) slotPath(slot int) string {
	return filepath.Join(s.cfg.Paths.SaveStates, fmt.Sprintf("slot-%d.gob", slot))
}

func (s *guiSession) saveSlot(slot int) {
	data, err := s.emu.SaveState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "save state: %v\n", err)
		return
	}
	if err := os.MkdirAll(s.cfg.Paths.SaveStates, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "save state: %v\n", err)
		return
	}
	if err := os.WriteFile(s.slotPath(slot), data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "save state: %v\n", err)
		return
	}
	fmt.Printf("saved slot %d\n", slot)
}

func (s *guiSession) loadSlot(slot int) {
	data, err := os.ReadFile(s.slotPath(slot))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load state: %v\n", err)
		return
	}
	if err := s.emu.LoadState(data); err != nil {
		fmt.Fprintf(os.Stderr, "load state: %v\n", err)
		return
	}
	fmt.Printf("loaded slot %d\n", slot)
}

// update is the per-frame callback: it drains the window's input events,
// applies them to the controllers or a save-state slot, steps one NES
// frame, and renders it.
func (s *guiSession) update() error {
	for _, ev := range s.window.PollEvents() {
		switch ev.Type {
		case graphics.InputEventTypeQuit:
			return fmt.Errorf("quit requested")
		case graphics.InputEventTypeButton:
			if port, bit, ok := buttonBit(ev.Button); ok {
				pad := &s.pad1
				if port == 1 {
					pad = &s.pad2
				}
				if ev.Pressed {
					*pad |= uint8(bit)
				} else {
					*pad &^= uint8(bit)
				}
				s.emu.SetController(port, *pad)
			}
		case graphics.InputEventTypeKey:
			if slot, save, ok := saveSlotKey(ev.Key); ok && ev.Pressed {
				if save {
					s.saveSlot(slot)
				} else {
					s.loadSlot(slot)
				}
			}
		}
	}

	frame, samples := s.emu.StepFrame()
	if s.audio != nil {
		s.audio.Enqueue(samples)
	}
	return s.window.RenderFrame(frame)
}

func printUsage() {
	fmt.Println("gones - a NES emulator")
	fmt.Println()
	fmt.Println("Usage: gones -rom <file> [options]")
	fmt.Println()
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Controls: WASD/arrows move, J=A, K=B, Enter=Start, Space=Select")
	fmt.Println("          1-8 drive controller 2, F1-F5 save state, F6-F10 load state")
	fmt.Println("          Escape quits")
}
