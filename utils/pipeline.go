package utils

import (
	"context"
	"errors"
	"log/slog"
)

type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageTranscribing
	StageGenerating
	StageSynthesizing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageExtracting:
		return "extracting"
	case StageTranscribing:
		return "transcribing"
	case StageGenerating:
		return "generating"
	case StageSynthesizing:
		return "synthesizing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// Phase labels and progress fractions reported at each stage boundary.
var stageProgress = map[Stage]struct {
	label    string
	fraction float64
}{
	StageExtracting:   {"Splitting video into audio and images...", 0},
	StageTranscribing: {"Transcribing audio...", 0.1},
	StageGenerating:   {"Chatting...", 0.2},
	StageSynthesizing: {"Synthesizing audio...", 0.8},
	StageDone:         {"Done", 1},
	StageFailed:       {"Failed", 0},
}

type Pipeline struct {
	extractor   MediaExtractor
	transcriber AudioTranscriber
	synthesizer SpeechSynthesizer
	registry    *Registry
	fps         int
	logger      *slog.Logger
}

type PipelineOptions struct {
	Extractor       MediaExtractor
	Transcriber     AudioTranscriber
	Synthesizer     SpeechSynthesizer
	Registry        *Registry
	FramesPerSecond int
	Logger          *slog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		extractor:   opts.Extractor,
		transcriber: opts.Transcriber,
		synthesizer: opts.Synthesizer,
		registry:    opts.Registry,
		fps:         opts.FramesPerSecond,
		logger:      opts.Logger,
	}
	if p.fps <= 0 {
		p.fps = DefaultFramesPerSecond
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	return p
}

func (p *Pipeline) Registry() *Registry { return p.registry }

// Run turns one video into a spoken reply from backendID. history is
// extended with the user turn and, if the chat call succeeds, the reply.
// ctx is checked before each stage starts; a cancelled run stops at the
// next boundary and returns an error wrapping ctx.Err(). A failed run ends
// with a "Failed" update to progress.
func (p *Pipeline) Run(ctx context.Context, videoInput, backendID string, history *History, progress ProgressSink) (string, error) {
	backend, err := p.registry.Lookup(backendID)
	if err != nil {
		return "", &RunError{Stage: StageIdle, Err: err}
	}
	if progress == nil {
		progress = ProgressFunc(func(string, float64) {})
	}
	logger := p.logger.With("backend", backend.ID)

	stage := StageIdle
	report := func(next Stage) {
		stage = next
		sp := stageProgress[next]
		progress.SetProgress(sp.label, sp.fraction)
		logger.Info("pipeline stage", "stage", next.String())
	}
	// fail moves the run to StageFailed. The returned error keeps the stage
	// that was running, and the sink keeps that stage's fraction.
	fail := func(err error) error {
		failed := stage
		if errors.Is(err, context.Canceled) {
			logger.Warn("pipeline cancelled", "stage", failed.String())
		} else {
			logger.Error("pipeline failed", "stage", failed.String(), "error", err)
		}
		stage = StageFailed
		progress.SetProgress(stageProgress[StageFailed].label, stageProgress[failed].fraction)
		return &RunError{Stage: failed, Err: err}
	}
	enter := func(next Stage) error {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		report(next)
		return nil
	}

	if err := enter(StageExtracting); err != nil {
		return "", err
	}
	media, err := p.extractor.Split(ctx, videoInput, p.fps)
	if err != nil {
		return "", fail(err)
	}

	if err := enter(StageTranscribing); err != nil {
		return "", err
	}
	prompt, err := p.transcriber.TranscribeAudio(ctx, media.Audio)
	if err != nil {
		return "", fail(err)
	}
	logger.Debug("transcribed audio", "text", prompt)

	if err := enter(StageGenerating); err != nil {
		return "", err
	}
	reply, err := backend.Strategy.Chat(ctx, backend.ID, prompt, media.Frames, history)
	if err != nil {
		return "", fail(err)
	}
	logger.Debug("chat reply", "text", reply)

	if err := enter(StageSynthesizing); err != nil {
		return "", err
	}
	audio, err := p.synthesizer.SynthesizeSpeech(ctx, reply)
	if err != nil {
		return "", fail(err)
	}

	// The reply is already in history, so a late cancel does not discard it.
	report(StageDone)
	return audio, nil
}
