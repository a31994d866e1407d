package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HugeFrog24/gpt-video-chat/datauri"
	"github.com/HugeFrog24/gpt-video-chat/utils"
)

const maxClipBytes = 64 << 20

type Server struct {
	router  *chi.Mux
	bakeoff *utils.Bakeoff
	// runCtx outlives individual requests so runs keep going after the
	// upload request returns.
	runCtx context.Context
	logger *slog.Logger
}

func NewServer(runCtx context.Context, bakeoff *utils.Bakeoff, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{router: router, bakeoff: bakeoff, runCtx: runCtx, logger: logger}

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Post("/clips", s.submitClip)
		r.Delete("/clips", s.resetClip)
		r.Get("/runs", s.listRuns)
		r.Post("/votes/{backend}", s.vote)
		r.Delete("/votes", s.unvote)
		r.Get("/leaderboard", s.leaderboard)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type runView struct {
	ID       string  `json:"id"`
	Backend  string  `json:"backend"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Phase    string  `json:"phase,omitempty"`
	Progress float64 `json:"progress"`
	Seconds  float64 `json:"seconds,omitempty"`
	Audio    string  `json:"audio,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type standingView struct {
	Backend string `json:"backend"`
	Name    string `json:"name"`
	Wins    int    `json:"wins"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submitClip accepts the video either as a multipart "clip" field or as the
// raw request body.
func (s *Server) submitClip(w http.ResponseWriter, r *http.Request) {
	clip, err := readClip(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Info("clip submitted", "bytes", len(clip))

	runs := s.bakeoff.Submit(s.runCtx, clip)
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, s.view(run))
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"runs": views})
}

func (s *Server) resetClip(w http.ResponseWriter, r *http.Request) {
	s.bakeoff.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.bakeoff.Runs()
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, s.view(run))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": views})
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	backend := chi.URLParam(r, "backend")
	if err := s.bakeoff.Vote(backend); err != nil {
		switch {
		case errors.Is(err, utils.ErrUnknownBackend):
			s.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, utils.ErrNoResult):
			s.writeError(w, http.StatusConflict, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	s.leaderboard(w, r)
}

func (s *Server) unvote(w http.ResponseWriter, r *http.Request) {
	s.bakeoff.Unvote()
	s.leaderboard(w, r)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	names := make(map[string]string)
	for _, b := range s.bakeoff.Backends() {
		names[b.ID] = b.Name
	}
	votes := s.bakeoff.Votes()
	standings := votes.Standings()
	views := make([]standingView, 0, len(standings))
	for _, st := range standings {
		views = append(views, standingView{Backend: st.Backend, Name: names[st.Backend], Wins: st.Wins})
	}
	winner, _ := votes.Winner()
	s.writeJSON(w, http.StatusOK, map[string]any{"standings": views, "winner": winner})
}

func (s *Server) view(run *utils.Run) runView {
	v := runView{ID: run.ID, Backend: run.Backend, Status: string(run.Status())}
	for _, b := range s.bakeoff.Backends() {
		if b.ID == run.Backend {
			v.Name = b.Name
		}
	}
	v.Phase, v.Progress = run.Progress.Progress()
	if run.Status() == utils.RunPending {
		return v
	}
	audio, elapsed, err := run.Result()
	v.Seconds = elapsed.Seconds()
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Audio = audio
	return v
}

func readClip(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxClipBytes)

	var (
		data     []byte
		mimeType string
		err      error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("clip")
		if ferr != nil {
			return "", fmt.Errorf("missing clip field: %w", ferr)
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		mimeType = header.Header.Get("Content-Type")
	} else {
		data, err = io.ReadAll(r.Body)
		mimeType = r.Header.Get("Content-Type")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read clip: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("empty clip")
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(data).String()
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return datauri.FromBytes(data, strings.TrimSpace(mimeType)), nil
}

// writeJSON can only log an encode failure: the status line is already sent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", "status", status, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
