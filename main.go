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
	"path/filepath"
	"syscall"

	"github.com/HugeFrog24/gpt-video-chat/config"
	"github.com/HugeFrog24/gpt-video-chat/datauri"
	"github.com/HugeFrog24/gpt-video-chat/utils"
)

func main() {
	outDir := flag.String("o", ".", "directory for the spoken replies")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: videochat [-o dir] <video_file> [video_file ...]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	pipeline, err := utils.NewPipelineFromConfig(cfg, []string{cfg.ChatModel}, logger)
	if err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Cancel the pipeline on interrupt; temp files are removed as each stage unwinds.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(*outDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// One conversation across all clips given on the command line.
	history := utils.NewHistory()
	progress := utils.ProgressFunc(func(phase string, fraction float64) {
		fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, phase)
	})

	for i, videoFile := range flag.Args() {
		audio, err := pipeline.Run(ctx, videoFile, cfg.ChatModel, history, progress)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nReceived interrupt signal, exiting")
				os.Exit(1)
			}
			log.Fatalf("Failed to chat about %s: %v", videoFile, err)
		}

		replyFile := filepath.Join(*outDir, fmt.Sprintf("reply_%d.mp3", i+1))
		if err := writeAudio(replyFile, audio); err != nil {
			log.Fatalf("Failed to write reply: %v", err)
		}

		turns := history.Turns()
		fmt.Println("You:", turns[len(turns)-2].Text)
		fmt.Println("Reply:", turns[len(turns)-1].Text)
		fmt.Println("Audio:", replyFile)
	}
}

func writeAudio(path, uri string) error {
	data, _, err := datauri.Parse(uri)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
