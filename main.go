// ABOUTME: Entry point for the resonate-decode player
// ABOUTME: Parses CLI flags, decodes one source and plays it with an optional TUI
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-decoder/internal/app"
	"github.com/Resonate-Protocol/resonate-decoder/internal/ui"
	"github.com/Resonate-Protocol/resonate-decoder/internal/version"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/decoder"
)

var (
	start       = flag.Duration("start", 0, "Start offset, e.g. 1m30s")
	rate        = flag.Float64("rate", 0, "Target sample rate in Hz (default: DECODER_TARGET_SAMPLE_RATE or 44100)")
	logFile     = flag.String("log-file", "resonate-decode.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	noPlay      = flag.Bool("no-play", false, "Decode without opening an audio device")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file|url|s3://bucket/key|->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	target := flag.Arg(0)
	// The TUI reads keys from stdin, which is the source for "-".
	useTUI := !*noTUI && target != "-"

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	var logOut io.Writer = f
	if !useTUI {
		// Streaming logs mode: log to both stderr and file
		logOut = io.MultiWriter(os.Stderr, f)
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := decoder.OptionsFromEnv(ctx)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	opts.Logger = logger
	if *rate != 0 {
		opts.TargetSampleRate = *rate
	}

	src := decoder.Source{URI: target}
	if target == "-" {
		src = decoder.Source{Stream: os.Stdin}
	}

	var out output.Output
	var volume output.Volume
	if !*noPlay {
		oto := output.NewOto(logger)
		out, volume = oto, oto
	}

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl
	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg = ui.Run(target, volumeCtrl)
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				logger.Error("TUI failed", "error", err)
			}
			stop()
		}()
		if volume != nil {
			go handleVolumeControl(ctx, volume, volumeCtrl)
		}
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	logger.Info("starting decode", "product", version.Product, "version", version.Version, "source", target)

	cfg := app.Config{Source: src, StartOffset: *start, Options: opts}
	runErr := app.New(cfg, out, updateTUI).Run(ctx)

	if tuiProg != nil {
		tuiProg.Quit()
		tuiProg.Wait()
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		logger.Info("decode stopped")
		return
	case runErr != nil:
		logger.Error("decode failed", "error", runErr)
		os.Exit(1)
	}
	logger.Info("decode finished")
}

// handleVolumeControl applies volume changes from the TUI
func handleVolumeControl(ctx context.Context, out output.Volume, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			out.SetVolume(vol.Volume)
			out.SetMuted(vol.Muted)
		case <-ctx.Done():
			return
		}
	}
}
