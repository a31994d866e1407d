package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
)

type recordedProgress struct {
	mu      sync.Mutex
	phases  []string
	updates []float64
}

func (r *recordedProgress) SetProgress(phase string, fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
	r.updates = append(r.updates, fraction)
}

// echoStrategy appends a user turn and replies with the prompt, like a
// well-behaved backend.
func echoStrategy() *MockChatStrategy {
	return &MockChatStrategy{
		ChatFunc: func(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
			history.Append(Turn{Role: RoleUser, Text: prompt, Images: imageURIs})
			reply := model + " heard: " + prompt
			history.Append(Turn{Role: RoleAssistant, Text: reply})
			return reply, nil
		},
	}
}

type testPipeline struct {
	*Pipeline
	extractor   *MockMediaExtractor
	transcriber *MockAudioTranscriber
	synthesizer *MockSpeechSynthesizer
}

func newTestPipeline(t *testing.T, backends ...Backend) *testPipeline {
	t.Helper()
	reg := NewRegistry()
	for _, b := range backends {
		require.NoError(t, reg.Register(b))
	}
	tp := &testPipeline{
		extractor: &MockMediaExtractor{
			SplitFunc: func(ctx context.Context, videoInput string, fps int) (ExtractionResult, error) {
				frames := make([]string, 0, 10*fps)
				for i := 0; i < 10*fps; i++ {
					frames = append(frames, datauri.FromBytes([]byte{byte(i)}, "image/jpeg"))
				}
				return ExtractionResult{Audio: datauri.FromBytes([]byte("audio"), "audio/mpeg"), Frames: frames}, nil
			},
		},
		transcriber: &MockAudioTranscriber{
			TranscribeAudioFunc: func(ctx context.Context, audioURI string) (string, error) {
				return "Mock transcription", nil
			},
		},
		synthesizer: &MockSpeechSynthesizer{
			SynthesizeSpeechFunc: func(ctx context.Context, text string) (string, error) {
				return datauri.FromBytes([]byte(text), "audio/mpeg"), nil
			},
		},
	}
	tp.Pipeline = NewPipeline(PipelineOptions{
		Extractor:   tp.extractor,
		Transcriber: tp.transcriber,
		Synthesizer: tp.synthesizer,
		Registry:    reg,
	})
	return tp
}

func TestRunPipeline(t *testing.T) {
	var frameCount int
	strategy := echoStrategy()
	inner := strategy.ChatFunc
	strategy.ChatFunc = func(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
		frameCount = len(imageURIs)
		return inner(ctx, model, prompt, imageURIs, history)
	}
	p := newTestPipeline(t, Backend{ID: "gpt-4o", Strategy: strategy})
	history := NewHistory()
	progress := &recordedProgress{}

	audio, err := p.Run(context.Background(), "clip.mp4", "gpt-4o", history, progress)
	require.NoError(t, err)

	data, mime, err := datauri.Parse(audio)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mime)
	assert.Equal(t, "gpt-4o heard: Mock transcription", string(data))
	assert.Equal(t, 20, frameCount)

	assert.Equal(t, []float64{0, 0.1, 0.2, 0.8, 1}, progress.updates)
	assert.True(t, strings.HasPrefix(progress.phases[1], "Transcribing"))
	assert.Equal(t, 2, history.Len())
}

func TestRunProgressIsMonotonic(t *testing.T) {
	p := newTestPipeline(t, Backend{ID: "m", Strategy: echoStrategy()})
	progress := &recordedProgress{}

	_, err := p.Run(context.Background(), "clip.mp4", "m", NewHistory(), progress)
	require.NoError(t, err)

	for i := 1; i < len(progress.updates); i++ {
		assert.GreaterOrEqual(t, progress.updates[i], progress.updates[i-1])
	}
	for _, f := range progress.updates {
		assert.True(t, f >= 0 && f <= 1)
	}
}

func TestRunUnknownBackend(t *testing.T) {
	p := newTestPipeline(t)
	p.extractor.SplitFunc = func(ctx context.Context, videoInput string, fps int) (ExtractionResult, error) {
		t.Fatal("extraction must not start for an unknown backend")
		return ExtractionResult{}, nil
	}

	_, err := p.Run(context.Background(), "clip.mp4", "nope", NewHistory(), nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRunStageFailures(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name  string
		setup func(p *testPipeline)
		stage Stage
		turns int
	}{
		{
			name: "extraction",
			setup: func(p *testPipeline) {
				p.extractor.SplitFunc = func(ctx context.Context, videoInput string, fps int) (ExtractionResult, error) {
					return ExtractionResult{}, ErrDependencyMissing
				}
			},
			stage: StageExtracting,
		},
		{
			name: "transcription",
			setup: func(p *testPipeline) {
				p.transcriber.TranscribeAudioFunc = func(ctx context.Context, audioURI string) (string, error) {
					return "", &BackendError{Backend: "openai", Op: "transcription", Err: boom}
				}
			},
			stage: StageTranscribing,
		},
		{
			name: "synthesis",
			setup: func(p *testPipeline) {
				p.synthesizer.SynthesizeSpeechFunc = func(ctx context.Context, text string) (string, error) {
					return "", &BackendError{Backend: "openai", Op: "speech", Err: boom}
				}
			},
			stage: StageSynthesizing,
			turns: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPipeline(t, Backend{ID: "m", Strategy: echoStrategy()})
			tc.setup(p)
			history := NewHistory()

			progress := &ProgressTracker{}

			audio, err := p.Run(context.Background(), "clip.mp4", "m", history, progress)

			assert.Empty(t, audio)
			var runErr *RunError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, tc.stage, runErr.Stage)
			assert.Equal(t, tc.turns, history.Len())
			phase, fraction := progress.Progress()
			assert.Equal(t, "Failed", phase)
			assert.Equal(t, stageProgress[tc.stage].fraction, fraction)
		})
	}
}

func TestRunChatFailureLeavesUserTurn(t *testing.T) {
	strategy := &MockChatStrategy{
		ChatFunc: func(ctx context.Context, model, prompt string, imageURIs []string, history *History) (string, error) {
			history.Append(Turn{Role: RoleUser, Text: prompt})
			return "", &BackendError{Backend: "openai", Op: "chat", Err: errors.New("500")}
		},
	}
	p := newTestPipeline(t, Backend{ID: "m", Strategy: strategy})
	p.synthesizer.SynthesizeSpeechFunc = func(ctx context.Context, text string) (string, error) {
		t.Fatal("synthesis must not run after a chat failure")
		return "", nil
	}
	history := NewHistory()

	_, err := p.Run(context.Background(), "clip.mp4", "m", history, nil)

	var backendErr *BackendError
	assert.ErrorAs(t, err, &backendErr)
	turns := history.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)
}

func TestRunStopsBetweenStagesWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newTestPipeline(t, Backend{ID: "m", Strategy: echoStrategy()})
	p.transcriber.TranscribeAudioFunc = func(context.Context, string) (string, error) {
		cancel()
		return "words", nil
	}
	history := NewHistory()

	_, err := p.Run(ctx, "clip.mp4", "m", history, nil)

	assert.ErrorIs(t, err, context.Canceled)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, StageTranscribing, runErr.Stage)
	assert.Equal(t, 0, history.Len())
}

func TestRunKeepsReplyWhenCancelledAfterSynthesis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := newTestPipeline(t, Backend{ID: "m", Strategy: echoStrategy()})
	inner := p.synthesizer.SynthesizeSpeechFunc
	p.synthesizer.SynthesizeSpeechFunc = func(ctx context.Context, text string) (string, error) {
		audio, err := inner(ctx, text)
		cancel()
		return audio, err
	}
	history := NewHistory()
	progress := &recordedProgress{}

	audio, err := p.Run(ctx, "clip.mp4", "m", history, progress)

	require.NoError(t, err)
	assert.NotEmpty(t, audio)
	assert.Equal(t, 2, history.Len())
	assert.Equal(t, "Done", progress.phases[len(progress.phases)-1])
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "extracting", StageExtracting.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
