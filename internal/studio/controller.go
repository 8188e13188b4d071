package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ai-portrait-studio/internal/style"
	"ai-portrait-studio/internal/upload"
)

// ErrNoUpload is returned when generation is triggered before an image has
// been uploaded and accepted.
var ErrNoUpload = errors.New("upload an image before generating")

// Generator issues one remote stylization call per invocation.
type Generator interface {
	Stylize(ctx context.Context, imageBase64, mimeType, prompt string) (string, error)
}

type Options struct {
	Sessions       *Store
	Generator      Generator
	Logger         *slog.Logger
	StatusInterval time.Duration
}

// Controller sequences the upload → encode → compose → generate pipeline over
// the session store. Exactly one generation may be in flight per session.
type Controller struct {
	sessions       *Store
	generator      Generator
	logger         *slog.Logger
	statusInterval time.Duration
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewStore()
	}

	interval := opts.StatusInterval
	if interval <= 0 {
		interval = 2500 * time.Millisecond
	}

	return &Controller{
		sessions:       sessions,
		generator:      opts.Generator,
		logger:         logger,
		statusInterval: interval,
	}
}

func (c *Controller) Session(id string) Session {
	return c.sessions.Get(id)
}

func (c *Controller) Reset(id string) Session {
	return c.sessions.Reset(id)
}

// AttachUpload validates and encodes a candidate. On rejection the session is
// left untouched and the user can try another file immediately.
func (c *Controller) AttachUpload(id, mimeType string, size int64, r io.Reader) (Session, error) {
	if err := upload.Validate(mimeType, size); err != nil {
		return c.sessions.Get(id), err
	}

	img, err := upload.Encode(r, mimeType)
	if err != nil {
		return c.sessions.Get(id), err
	}

	return c.sessions.Update(id, func(s *Session) {
		s.Image = &img
		s.Phase = PhasePreview
		s.ResultBase64 = ""
		s.ErrorMessage = ""
		s.Generating = false
	}), nil
}

func (c *Controller) SelectStyle(id, styleID string) (Session, error) {
	if _, ok := style.ByID(styleID); !ok {
		return c.sessions.Get(id), fmt.Errorf("unknown style %q", styleID)
	}
	return c.sessions.Update(id, func(s *Session) {
		s.StyleID = styleID
	}), nil
}

func (c *Controller) SetFreeText(id, text string) Session {
	return c.sessions.Update(id, func(s *Session) {
		s.FreeText = text
	})
}

func (c *Controller) DismissError(id string) Session {
	return c.sessions.Update(id, func(s *Session) {
		s.ErrorMessage = ""
	})
}

// Generate runs one attempt synchronously and returns the resulting session.
// Triggering while an attempt is already in flight is a no-op.
func (c *Controller) Generate(ctx context.Context, id string) (Session, error) {
	snap, j := c.begin(id)
	if j == nil {
		if snap.Generating {
			return snap, nil
		}
		return snap, ErrNoUpload
	}
	return c.run(ctx, id, j)
}

// StartGeneration begins an attempt and runs it on its own goroutine bounded
// by timeout; callers observe progress by polling Session. The returned
// snapshot already reflects the Generating phase.
func (c *Controller) StartGeneration(id string, timeout time.Duration) (Session, error) {
	snap, j := c.begin(id)
	if j == nil {
		if snap.Generating {
			return snap, nil
		}
		return snap, ErrNoUpload
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := c.run(ctx, id, j); err != nil {
			c.logger.Error("generation failed", "session", id, "err", err)
		}
	}()

	return snap, nil
}

type job struct {
	attempt int
	image   upload.Image
	prompt  string
}

// begin performs the guarded transition into Generating. A nil job means no
// attempt was started: either one is already running or no image is present.
func (c *Controller) begin(id string) (Session, *job) {
	var j *job
	snap := c.sessions.Update(id, func(s *Session) {
		if s.Generating || s.Image == nil {
			return
		}

		s.attempt++
		s.Generating = true
		s.Phase = PhaseGenerating
		s.ErrorMessage = ""
		s.ResultBase64 = ""
		s.StatusIndex = 0

		preset, ok := style.ByID(s.StyleID)
		if !ok {
			preset = style.Default()
		}

		j = &job{
			attempt: s.attempt,
			image:   *s.Image,
			prompt:  style.Compose(preset.Prompt, s.FreeText),
		}
	})
	return snap, j
}

func (c *Controller) run(ctx context.Context, id string, j *job) (Session, error) {
	done := make(chan struct{})
	go c.rotateStatus(id, j.attempt, done)

	result, err := c.generator.Stylize(ctx, j.image.Base64, j.image.MimeType, j.prompt)
	close(done)

	final := c.sessions.Update(id, func(s *Session) {
		if s.attempt != j.attempt || !s.Generating {
			// The session was reset while the call was in flight; whatever
			// came back no longer belongs to it.
			return
		}

		s.Generating = false
		if err != nil {
			s.Phase = PhasePreview
			s.ErrorMessage = err.Error()
			return
		}
		s.Phase = PhaseResult
		s.ResultBase64 = result
	})

	return final, err
}

// rotateStatus advances the status cycle on a fixed interval for the lifetime
// of one attempt. The ticker stops on every exit from Generating.
func (c *Controller) rotateStatus(id string, attempt int, done <-chan struct{}) {
	ticker := time.NewTicker(c.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.sessions.Update(id, func(s *Session) {
				if s.attempt != attempt || !s.Generating {
					return
				}
				s.StatusIndex = (s.StatusIndex + 1) % len(statusMessages)
			})
		}
	}
}
