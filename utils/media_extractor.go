package utils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

const (
	DefaultFramesPerSecond = 2
	maxFrameEdge           = 512
	audioBitrate           = "64k"
	framePattern           = "frame-%06d.jpg"
)

// ExtractionResult holds the audio track and the sampled frames of one
// video, all as data URIs. Frames are in chronological order.
type ExtractionResult struct {
	Audio  string
	Frames []string
}

type execRunner struct{}

func (execRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FFmpegExtractor splits a video into a mono mp3 track and JPEG frames using
// the ffmpeg executable.
type FFmpegExtractor struct {
	binary string
	runner CommandRunner
	logger *slog.Logger
}

func NewFFmpegExtractor(binary string, logger *slog.Logger) *FFmpegExtractor {
	return NewFFmpegExtractorWithRunner(binary, execRunner{}, logger)
}

func NewFFmpegExtractorWithRunner(binary string, runner CommandRunner, logger *slog.Logger) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegExtractor{binary: binary, runner: runner, logger: logger}
}

// Split accepts either a data URI or a path to a video file. Every
// intermediate file lives in one temp directory which is removed before
// Split returns.
func (e *FFmpegExtractor) Split(ctx context.Context, videoInput string, fps int) (ExtractionResult, error) {
	bin, err := e.runner.LookPath(e.binary)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %s not found in PATH", ErrDependencyMissing, e.binary)
	}
	if fps <= 0 {
		fps = DefaultFramesPerSecond
	}

	videoURI := videoInput
	if !datauri.IsDataURI(videoInput) {
		videoURI, err = datauri.FromFile(videoInput, "")
		if err != nil {
			return ExtractionResult{}, err
		}
	}

	outDir, err := os.MkdirTemp("", "videochat-*")
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	audioPath := filepath.Join(outDir, "audio.mp3")
	err = datauri.AsTempFileIn(outDir, videoURI, func(videoPath string) error {
		if err := e.run(ctx, bin, "audio", audioArgs(videoPath, audioPath)); err != nil {
			return err
		}
		return e.run(ctx, bin, "frame", frameArgs(videoPath, filepath.Join(outDir, framePattern), fps))
	})
	if err != nil {
		return ExtractionResult{}, err
	}

	framePaths, err := filepath.Glob(filepath.Join(outDir, "frame-*.jpg"))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("failed to list frames: %w", err)
	}
	sort.Strings(framePaths)

	audio, err := datauri.FromFile(audioPath, "audio/mpeg")
	if err != nil {
		return ExtractionResult{}, err
	}
	frames := make([]string, 0, len(framePaths))
	for _, p := range framePaths {
		frame, err := datauri.FromFile(p, "image/jpeg")
		if err != nil {
			return ExtractionResult{}, err
		}
		frames = append(frames, frame)
	}

	e.logger.Debug("video split", "frames", len(frames), "fps", fps)
	return ExtractionResult{Audio: audio, Frames: frames}, nil
}

func (e *FFmpegExtractor) run(ctx context.Context, bin, step string, args []string) error {
	e.logger.Debug("running ffmpeg", "step", step, "args", args)
	output, err := e.runner.CombinedOutput(ctx, bin, args...)
	if err != nil {
		return &ExtractionError{Step: step, Output: string(output), Err: err}
	}
	return nil
}

// audioArgs produces a mono track at a low bitrate to keep the upload to the
// transcription backend small.
func audioArgs(videoPath, audioPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-vn",
		"-b:a", audioBitrate,
		"-ac", "1",
		audioPath,
	}
}

// frameArgs samples fps frames per second and fits each into a
// maxFrameEdge square box without upscaling.
func frameArgs(videoPath, pattern string, fps int) []string {
	edge := strconv.Itoa(maxFrameEdge)
	filter := fmt.Sprintf("fps=%d,scale='min(%s,iw)':'min(%s,ih)':force_original_aspect_ratio=decrease", fps, edge, edge)
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-vf", filter,
		"-q:v", "20",
		pattern,
	}
}
