package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/ivlev/eyecam/internal/aperture"
	"github.com/ivlev/eyecam/internal/calibrate"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/config"
	"github.com/ivlev/eyecam/internal/opencv"
	"github.com/ivlev/eyecam/internal/trigger"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	configPtr := flag.String("config", config.DefaultPath, "Site configuration file")
	testPtr := flag.Bool("test", false, "Test mode: use the built-in camera (index 0)")
	replayPtr := flag.String("replay", "", "Folder of images to use instead of the camera")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Printf("[-] %v", err)
		return 1
	}

	var dev camera.Device
	if *replayPtr != "" {
		dev, err = camera.NewReplayDevice(*replayPtr, time.Second/30)
	} else {
		dev, err = opencv.OpenCamera(cfg.CameraIndex(*testPtr), cfg.Camera.FPS)
	}
	if err != nil {
		log.Printf("[-] %v", err)
		return 1
	}
	defer dev.Close()

	win := opencv.NewWindow("Aperture")
	defer win.Close()
	win.SetStatus("arrows: move  b/s: resize  q: done")

	opts := calibrate.Options{
		Shift:    cfg.Calibration.Shift,
		Scale:    cfg.Calibration.Scale,
		AbortKey: cfg.AbortKey,
	}
	if cfg.Aperture != nil {
		stored, err := aperture.FromSlice(cfg.Aperture)
		if err != nil {
			log.Printf("[-] %v", err)
			return 1
		}
		opts.Stored = &stored
	}

	fmt.Println(calibrate.Help)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ap, err := calibrate.New(dev, win, opts, nil).Run(ctx)
	if err != nil {
		if errors.Is(err, trigger.ErrAborted) {
			log.Printf("[!] Calibration aborted, %s left unchanged", *configPtr)
		} else {
			log.Printf("[-] %v", err)
		}
		return 1
	}

	cfg.Aperture = ap.Slice()
	if err := cfg.Save(*configPtr); err != nil {
		log.Printf("[-] Could not save %s: %v", *configPtr, err)
		return 1
	}
	fmt.Printf("[*] Aperture: %v\n", cfg.Aperture)
	fmt.Println("[+++] Finished!")
	return 0
}
