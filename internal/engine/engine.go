package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/eyecam/internal/analyzer"
	"github.com/ivlev/eyecam/internal/aperture"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/capture"
	"github.com/ivlev/eyecam/internal/clock"
	"github.com/ivlev/eyecam/internal/config"
	"github.com/ivlev/eyecam/internal/keys"
	"github.com/ivlev/eyecam/internal/report"
	"github.com/ivlev/eyecam/internal/session"
	"github.com/ivlev/eyecam/internal/slate"
	"github.com/ivlev/eyecam/internal/trigger"
	"github.com/ivlev/eyecam/internal/video"
	"golang.org/x/sync/errgroup"
)

// TimestampFormat is how trigger wall times are printed.
const TimestampFormat = "Mon Jan 02 15:04:05 2006"

// Stage is the pair of screens the session runs on: the participant's
// fixation display and the RA's instruction/status display.
type Stage interface {
	Instructions(title, verbal, prompt string) error
	Fixation() error
	Countdown(n int) error
	Status(msg string) error
	keys.Source
}

// Monitor is the RA's live eye view.
type Monitor interface {
	capture.Preview
	keys.Source
	SetStatus(s string)
	Close() error
}

type CameraOpener func(index int, fps float64) (camera.Device, error)

type WriterFactory func(ctx context.Context, p video.Params) video.FrameWriter

// ScanProject runs every planned run of one session.
type ScanProject struct {
	Config config.Config
	Info   session.Info
	Plan   session.Plan

	Stage Stage
	// Triggers is an extra key source, typically a serial trigger box.
	Triggers   keys.Source
	OpenCamera CameraOpener
	NewMonitor func() Monitor
	NewWriter  WriterFactory
	Encoder    string
	Logger     *slog.Logger

	// Now and Sleep drive every run clock; tests replace both.
	Now   func() time.Time
	Sleep func(time.Duration)
	Out   io.Writer
}

func NewScanProject(cfg config.Config, info session.Info, stage Stage, logger *slog.Logger) *ScanProject {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanProject{
		Config: cfg,
		Info:   info,
		Plan:   session.PlanFor(info),
		Stage:  stage,
		NewWriter: func(ctx context.Context, p video.Params) video.FrameWriter {
			return video.NewFFmpegWriter(ctx, p)
		},
		Encoder: "libx264",
		Logger:  logger,
		Now:     time.Now,
		Sleep:   time.Sleep,
		Out:     os.Stdout,
	}
}

// Run shows the instructions, then acquires the planned runs in order. The
// records of all finished runs are returned, including an aborted one.
func (p *ScanProject) Run(ctx context.Context) ([]*report.RunRecord, error) {
	if err := os.MkdirAll(p.Config.Output.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	fmt.Fprintln(p.Out, "--- [EYECAM SESSION] ---")
	fmt.Fprintf(p.Out, "[*] Scan: %s | Session: %s | Age: %g\n", p.Info.Scan, p.Info.Session, p.Info.Age)
	fmt.Fprintf(p.Out, "[*] Runs: %d x %.1fs | Record: %v | Aperture: %v\n", p.Plan.Runs, p.Plan.RunDuration.Seconds(), bool(p.Config.Record), bool(p.Config.UseAperture))
	fmt.Fprintln(p.Out, "-----------------------------")
	p.Logger.Info("session started", "session_id", p.Info.ID, "scan", p.Info.Scan, "runs", p.Plan.Runs, "run_duration", p.Plan.RunDuration.Seconds())

	if err := p.Stage.Fixation(); err != nil {
		return nil, fmt.Errorf("participant screen: %w", err)
	}
	if err := p.Stage.Instructions(string(p.Info.Scan)+" SCAN", session.Instructions, "Press <space> to continue."); err != nil {
		return nil, fmt.Errorf("RA screen: %w", err)
	}
	if _, err := trigger.WaitFor(ctx, p.keySource(nil), p.Config.AbortKey, keys.Space); err != nil {
		return nil, err
	}

	var records []*report.RunRecord
	for _, n := range p.Plan.RunNumbers(p.Info.FirstRun) {
		rec, err := p.runOnce(ctx, n)
		if rec != nil {
			records = append(records, rec)
		}
		if err != nil {
			return records, err
		}
	}

	p.Logger.Info("session finished", "runs", len(records))
	return records, nil
}

func (p *ScanProject) keySource(mon Monitor) keys.Source {
	sources := []keys.Source{p.Stage}
	if p.Triggers != nil {
		sources = append(sources, p.Triggers)
	}
	if mon != nil {
		sources = append(sources, mon)
	}
	return trigger.Merge(sources...)
}

func (p *ScanProject) runOnce(ctx context.Context, n int) (*report.RunRecord, error) {
	base := p.Info.FileBase(p.Config.Output.DataDir, n)
	logger := p.Logger.With("run", n)
	record := bool(p.Config.Record)

	var (
		dev   camera.Device
		mon   Monitor
		probe *camera.Frame
		ap    *aperture.Aperture
	)
	if record {
		index := p.Config.CameraIndex(p.Info.TestMode)
		var err error
		dev, err = p.OpenCamera(index, p.Config.Camera.FPS)
		if err != nil {
			return nil, fmt.Errorf("open camera %d: %w", index, err)
		}
		defer dev.Close()

		probe, err = dev.Read()
		if err != nil {
			return nil, fmt.Errorf("camera %d gave no frame: %w", index, err)
		}
		if p.Config.UseAperture {
			a, err := p.apertureFor(probe)
			if err != nil {
				return nil, err
			}
			ap = &a
			if probe, err = probe.Crop(a); err != nil {
				return nil, err
			}
		}
		fmt.Fprintf(p.Out, "[*] Camera %d: recording %dx%d @ %g fps\n", index, probe.Width, probe.Height, p.Config.Camera.FPS)
		if r, ok := dev.(interface{ FPS() float64 }); ok {
			got := r.FPS()
			if got > 0 && math.Abs(got-p.Config.Camera.FPS) > 0.5 {
				log.Printf("[!] Camera %d: driver runs at %g fps, %g requested", index, got, p.Config.Camera.FPS)
			}
			logger.Info("camera opened", "index", index, "driver_fps", got)
		}
		exp := analyzer.Measure(probe.RGBA(), analyzer.DefaultLimits.EdgeThreshold)
		for _, w := range analyzer.DefaultLimits.Check(exp) {
			log.Printf("[!] Camera %d: %s", index, w)
			logger.Warn("camera image", "problem", w, "mean_luma", exp.MeanLuma, "edges", exp.EdgeDensity)
		}

		if p.NewMonitor != nil {
			mon = p.NewMonitor()
			defer mon.Close()
		}
	}

	src := p.keySource(mon)
	runClock := clock.NewWithSource(p.Now)

	if err := p.Stage.Status("Waiting for trigger..."); err != nil {
		return nil, fmt.Errorf("RA screen: %w", err)
	}
	fmt.Fprintf(p.Out, "[*] Run %d: waiting for trigger '%s'...\n", n, p.Config.Trigger)
	ev, err := trigger.Wait(ctx, src, trigger.Options{TriggerKey: p.Config.Trigger, AbortKey: p.Config.AbortKey}, runClock)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.Out, "Trigger received at %s\n", ev.At.Format(TimestampFormat))
	logger.Info("trigger received", "at", ev.At, "key", ev.Key)

	design := &report.DesignLog{}
	if p.Plan.Countdown {
		if err := p.Stage.Status("Count down..."); err != nil {
			return nil, fmt.Errorf("RA screen: %w", err)
		}
		if err := p.countdown(ctx, runClock, src, design); err != nil {
			return nil, err
		}
	}
	if err := p.Stage.Fixation(); err != nil {
		return nil, fmt.Errorf("participant screen: %w", err)
	}
	design.Log(runClock.Seconds(), runClock.Seconds(), "fixation", "+")

	var (
		res   capture.Result
		stats video.Stats
		stall uint64
	)
	loopCfg := capture.Config{
		RunDuration: p.Plan.RunDuration,
		Aperture:    ap,
		AbortKey:    p.Config.AbortKey,
		Record:      record,
		Sleep:       p.Sleep,
	}

	if record {
		if err := p.Stage.Status("Recording..."); err != nil {
			return nil, fmt.Errorf("RA screen: %w", err)
		}
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		g, gctx := errgroup.WithContext(runCtx)

		handoff := video.NewHandOff(p.Config.QueueCapacity)
		writer := p.NewWriter(ctx, video.Params{
			Path:    base + p.Config.Output.VideoExt,
			FPS:     p.Config.Camera.FPS,
			Encoder: p.encoder(),
			Quality: p.Config.Output.Quality,
		})
		enc := video.NewEncoder(writer, logger)
		g.Go(func() error {
			var err error
			stats, err = enc.Run(gctx, handoff.Frames())
			return err
		})

		var preview capture.Preview
		if mon != nil {
			preview = mon
		}
		loop := capture.NewLoop(loopCfg, dev, runClock, preview, src, handoff, logger)
		var capErr error
		res, capErr = loop.Run(gctx)
		if capErr != nil {
			cancel()
		}
		if serr := p.Stage.Status("Writing video..."); serr != nil {
			logger.Warn("RA screen", "err", serr)
		}
		encErr := g.Wait()
		stall = handoff.Stalls()

		err = capErr
		if err == nil || (errors.Is(err, context.Canceled) && encErr != nil) {
			err = encErr
		}
	} else {
		if err := p.Stage.Status("Scan in progress..."); err != nil {
			return nil, fmt.Errorf("RA screen: %w", err)
		}
		loop := capture.NewLoop(loopCfg, nil, runClock, nil, src, nil, logger)
		res, err = loop.Run(ctx)
	}
	design.Log(p.Plan.RunDuration.Seconds(), res.Elapsed, "end", fmt.Sprintf("run%d", n))

	rec := &report.RunRecord{
		Run:             n,
		SessionID:       p.Info.ID,
		Participant:     p.Info.Participant,
		ScanType:        string(p.Info.Scan),
		TriggerWallTime: ev.At,
		PlannedDuration: p.Plan.RunDuration.Seconds(),
		ActualDuration:  res.Elapsed,
		Frames:          res.Frames,
		Encoded:         stats.Written,
		Dropped:         stats.Dropped,
		ReadFailures:    res.ReadFailures,
		QueueStalls:     stall,
		Aborted:         res.Aborted,
		Onsets:          design.Onsets(),
	}
	if ap != nil {
		rec.Aperture = ap.Slice()
	}
	switch {
	case record && stats.Written > 0:
		rec.Video = filepath.Base(base + p.Config.Output.VideoExt)
	case record:
		log.Printf("[!] Run %d: no frame reached the encoder, no video was written", n)
		logger.Warn("no video written", "frames", res.Frames, "dropped", stats.Dropped)
	}

	if werr := p.persist(base, rec, res.Timestamps, design, probe); werr != nil {
		log.Printf("[!] Run %d: could not save results: %v", n, werr)
		if err == nil {
			err = werr
		}
	}
	logger.Info("run finished", "frames", res.Frames, "encoded", stats.Written, "dropped", stats.Dropped,
		"read_failures", res.ReadFailures, "stalls", stall, "aborted", res.Aborted, "elapsed", res.Elapsed)

	if err != nil {
		return rec, err
	}
	fmt.Fprintf(p.Out, "[+] Run %d done: %d frames in %.2fs\n", n, res.Frames, res.Elapsed)
	return rec, nil
}

func (p *ScanProject) apertureFor(f *camera.Frame) (aperture.Aperture, error) {
	a, err := aperture.FromSlice(p.Config.Aperture)
	if err != nil {
		return a, err
	}
	legal := aperture.ClosestLegal(a, f.Height, f.Width)
	if legal != a {
		log.Printf("[!] Aperture %v does not fit the %dx%d camera image, using %v", a, f.Width, f.Height, legal)
	}
	return legal, nil
}

func (p *ScanProject) encoder() string {
	if p.Config.Output.Encoder != "" {
		return p.Config.Output.Encoder
	}
	return p.Encoder
}

// countdown shows 4-3-2-1 on the participant screen; each number stays for
// one step of the run clock.
func (p *ScanProject) countdown(ctx context.Context, clk *clock.Clock, src keys.Source, design *report.DesignLog) error {
	abort := keys.Normalize(p.Config.AbortKey)
	step := p.Plan.CountdownStep.Seconds()
	start := clk.Seconds()

	for i := 0; i < p.Plan.CountdownFrom; i++ {
		num := p.Plan.CountdownFrom - i
		intended := start + float64(i)*step
		if err := p.Stage.Countdown(num); err != nil {
			return fmt.Errorf("participant screen: %w", err)
		}
		design.Log(intended, clk.Seconds(), "countdown", fmt.Sprint(num))

		for clk.Seconds() < intended+step {
			if keys.Contains(src.PollKeys(), abort) {
				return trigger.ErrAborted
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			p.Sleep(5 * time.Millisecond)
		}
	}
	return nil
}

func (p *ScanProject) persist(base string, rec *report.RunRecord, ts []float64, design *report.DesignLog, probe *camera.Frame) error {
	bins := report.FrameRateDistribution(ts)
	rec.FrameRate = bins
	report.PrintDiagnostics(p.Out, rec.Run, bins)

	if err := report.WriteTimestamps(base+"_ts.csv", ts); err != nil {
		return err
	}
	if err := report.WriteDistribution(base+"_fps.csv", bins); err != nil {
		return err
	}
	if err := design.Save(base + "_design.csv"); err != nil {
		return err
	}
	if err := report.WriteRunRecord(rec, base+"_run.yaml"); err != nil {
		return err
	}

	if rec.Video != "" {
		err := slate.Write(base+"_slate.png", slate.Info{
			SessionID:   rec.SessionID,
			Scan:        rec.ScanType,
			Participant: p.Info.Participant,
			Session:     p.Info.Session,
			Run:         rec.Run,
			Trigger:     rec.TriggerWallTime,
			Video:       rec.Video,
			Thumb:       probe,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
