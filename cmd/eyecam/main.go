package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/config"
	"github.com/ivlev/eyecam/internal/display"
	"github.com/ivlev/eyecam/internal/engine"
	"github.com/ivlev/eyecam/internal/opencv"
	"github.com/ivlev/eyecam/internal/session"
	"github.com/ivlev/eyecam/internal/system"
	"github.com/ivlev/eyecam/internal/trigger"
)

func init() {
	// SDL and the OpenCV window both need the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	system.InitResourceLimits()

	configPtr := flag.String("config", config.DefaultPath, "Site configuration file")
	scanPtr := flag.String("scan", "", "Scan type: REST or mbPCASL (ASL)")
	agePtr := flag.String("age", "", "Participant age in years")
	participantPtr := flag.String("participant", "", "Participant ID")
	sessionPtr := flag.String("session", "", "Session ID")
	runPtr := flag.Int("run", 1, "First run number")
	testPtr := flag.Bool("test", false, "Test mode: use the built-in camera (index 0)")
	replayPtr := flag.String("replay", "", "Folder of images to use instead of the camera")
	noPreviewPtr := flag.Bool("no-preview", false, "Do not open the RA eye view")
	debugPtr := flag.Bool("debug", false, "Verbose session log")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Printf("[-] %v", err)
		return 1
	}

	info, err := session.New(*scanPtr, *agePtr, *participantPtr, *sessionPtr, *runPtr, *testPtr, time.Now())
	if err != nil {
		log.Printf("[-] %v", err)
		return 1
	}

	level := slog.LevelInfo
	if *debugPtr {
		level = slog.LevelDebug
	}
	logger, logFile, err := system.NewSessionLogger(info.LogPath(cfg.Output.DataDir), level)
	if err != nil {
		log.Printf("[-] Session log: %v", err)
		return 1
	}
	defer logFile.Close()
	logger = logger.With("session_id", info.ID)

	warnings, host, err := system.Preflight(cfg.Output.DataDir, system.DefaultRequirements)
	if err != nil {
		log.Printf("[!] Host check failed: %v", err)
	}
	for _, w := range warnings {
		log.Printf("[!] %s", w)
	}
	logger.Info("host", "cpus", host.CPUs, "memory_gb", host.MemoryGB, "free_disk_gb", host.FreeDiskGB)

	encoderName := cfg.Output.Encoder
	if cfg.Record {
		if err := system.CheckFFmpeg(); err != nil {
			log.Printf("[-] %v", err)
			return 1
		}
		if encoderName == "" {
			encoderName = system.GetBestH264Encoder()
		}
		if encoderName != "libx264" {
			fmt.Printf("[*] Hardware encoder detected: %s\n", encoderName)
		}
	}

	defer binsdl.Load().Unload()
	defer binttf.Load().Unload()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Printf("[-] SDL_Init: %v", err)
		return 1
	}
	defer sdl.Quit()

	if err := ttf.Init(); err != nil {
		log.Printf("[-] TTF_Init: %v", err)
		return 1
	}
	defer ttf.Quit()

	disp, err := display.Open(cfg)
	if err != nil {
		log.Printf("[-] %v", err)
		return 1
	}
	defer disp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewScanProject(cfg, info, disp, logger)
	project.Encoder = encoderName

	if cfg.SerialTrigger.Port != "" {
		box, err := trigger.OpenSerial(cfg.SerialTrigger.Port, cfg.SerialTrigger.Baud, logger)
		if err != nil {
			log.Printf("[-] %v", err)
			return 1
		}
		defer box.Close()
		project.Triggers = box
		fmt.Printf("[*] Listening for triggers on %s\n", cfg.SerialTrigger.Port)
	}

	if *replayPtr != "" {
		dir := *replayPtr
		project.OpenCamera = func(index int, fps float64) (camera.Device, error) {
			return camera.NewReplayDevice(dir, time.Duration(float64(time.Second)/fps))
		}
	} else {
		project.OpenCamera = func(index int, fps float64) (camera.Device, error) {
			return opencv.OpenCamera(index, fps)
		}
	}
	if !*noPreviewPtr {
		project.NewMonitor = func() engine.Monitor {
			return opencv.NewWindow("RA View")
		}
	}

	records, err := project.Run(ctx)
	if err != nil {
		if errors.Is(err, trigger.ErrAborted) {
			log.Printf("[!] Session aborted by operator after %d run(s)", len(records))
		} else {
			log.Printf("[-] %v", err)
		}
		return 1
	}

	fmt.Printf("[+++] Script Finished! %d run(s) saved to %s\n", len(records), cfg.Output.DataDir)
	return 0
}
