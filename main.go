package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bosley/murmur/capture"
	"github.com/bosley/murmur/catalog"
	"github.com/bosley/murmur/config"
	"github.com/bosley/murmur/history"
	"github.com/bosley/murmur/scribe"
	"github.com/bosley/murmur/whisper"
)

func main() {
	cfg := config.MustLoad()

	serverURL := flag.String("server", cfg.ServerURL, "Transcription server base URL")
	panelAddr := flag.String("panel", cfg.PanelAddr, "Web panel listen address")
	watchDir := flag.String("watch", cfg.WatchDir, "Directory to watch for dropped audio files")
	workers := flag.Int("workers", cfg.Workers, "Watch-mode worker count")
	language := flag.String("language", cfg.Language, "Transcription language code (auto to detect)")
	modelSize := flag.String("model", cfg.ModelSize, "Whisper model size (tiny|base|small|medium)")
	deviceID := flag.Int("device", cfg.DeviceID, "Audio input device ID to use")
	transcribeFile := flag.String("file", "", "Transcribe a single audio file and exit")
	playFile := flag.String("play", "", "Play audio file")
	listDevices := flag.Bool("list-devices", false, "List available audio input devices")
	checkHealth := flag.Bool("health", false, "Check server health and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Debug("Received shutdown signal")
		cancel()
	}()

	if *playFile != "" {
		if err := capture.Play(ctx, *playFile); err != nil {
			slog.Error("Failed to play audio file", "error", err)
			os.Exit(1)
		}
		return
	}

	if *listDevices {
		devices, err := capture.ListDevices()
		if err != nil {
			slog.Error("Failed to list audio devices", "error", err)
			os.Exit(1)
		}

		fmt.Println("Available audio input devices:")
		for i, device := range devices {
			fmt.Printf("[%d] %s\n", i, device.Name)
			fmt.Printf("    Max Input Channels: %d\n", device.MaxInputChannels)
			fmt.Printf("    Default Sample Rate: %f\n", device.DefaultSampleRate)
			fmt.Println()
		}
		return
	}

	client := whisper.New(whisper.Config{BaseURL: *serverURL}, whisper.WithLogger(logger))

	if *checkHealth {
		if client.Health(ctx) {
			fmt.Println("Server is healthy:", client.BaseURL())
			return
		}
		fmt.Println("Server is unreachable:", client.BaseURL())
		os.Exit(1)
	}

	store := history.New(history.DefaultCapacity)
	service, err := scribe.New(scribe.Config{
		PanelAddr: *panelAddr,
		WatchDir:  *watchDir,
		Workers:   *workers,
		Language:  *language,
		ModelSize: *modelSize,
	}, client, store)
	if err != nil {
		slog.Error("Failed to initialize Scribe", "error", err)
		os.Exit(1)
	}

	if *transcribeFile != "" {
		resp := service.TranscribeFile(ctx, *transcribeFile, false)
		if !resp.Success {
			fmt.Fprintln(os.Stderr, resp.Message)
			os.Exit(1)
		}
		printResult(resp)
		return
	}

	go func() {
		if err := service.Start(ctx); err != nil {
			slog.Error("Scribe service failed", "error", err)
			cancel()
		}
	}()

	if err := recordLoop(ctx, service, *deviceID); err != nil {
		slog.Error("Record loop failed", "error", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := service.Stop(stopCtx); err != nil {
		slog.Error("Failed to stop Scribe service", "error", err)
	}

	slog.Debug("Program exiting")
}

// recordLoop toggles recording on Enter and uploads each finished take.
func recordLoop(ctx context.Context, service *scribe.Scribe, deviceID int) error {
	recorder := capture.NewRecorder(capture.Config{DeviceID: deviceID}, slog.Default())
	defer recorder.Cancel()

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("Press Enter to start recording, Enter again to stop, Ctrl+C to quit.")

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-lines:
			if !ok {
				return nil
			}

			if !recorder.Recording() {
				if _, err := recorder.Start(); err != nil {
					slog.Error("Failed to start recording", "error", err)
					continue
				}
				fmt.Println("Recording... press Enter to stop.")
				continue
			}

			session := recorder.Active()
			elapsed := session.Elapsed().Round(time.Millisecond)

			path, ok, err := recorder.Stop()
			if err != nil {
				slog.Error("Failed to stop recording", "error", err)
				continue
			}
			if !ok {
				fmt.Println("Nothing recorded.")
				continue
			}

			fmt.Printf("Transcribing %s of audio...\n", elapsed)
			resp := service.TranscribeFile(ctx, path, true)
			if !resp.Success {
				fmt.Println(resp.Message)
				continue
			}
			printResult(resp)
		}
	}
}

func printResult(resp *whisper.Response) {
	result := resp.Result

	label := result.Language
	if lang, ok := catalog.LanguageByCode(result.Language); ok {
		label = fmt.Sprintf("%s %s", lang.Flag, lang.Name)
	}

	fmt.Printf("[%s", label)
	if result.DetectedLanguage != "" {
		fmt.Printf(", detected %s (%.0f%%)", result.DetectedLanguage, result.LanguageConfidence*100)
	}
	fmt.Printf(", model %s]\n", result.ModelSize)
	fmt.Println(result.Text)
}
