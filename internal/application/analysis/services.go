package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	domain "github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	"github.com/sbag9697/wealth-face-ai/internal/infra/ai/prompt"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

// Service is the analysis gateway: one primary attempt, one fallback attempt
// after a fixed delay, then the canned reading.
type Service struct {
	Model         domain.Model
	Lister        domain.ModelLister
	Sessions      session.Repository
	Archive       domain.ImageArchive // nil disables archiving
	Clock         application.Clock
	PrimaryModel  string
	FallbackModel string
	RetryDelay    time.Duration
	MatchRateMin  int
	MatchRateMax  int
}

// Outcome is what one upload produced.
type Outcome struct {
	SessionID session.ID
	Result    domain.Result
	Fallback  bool
}

// Analyze decodes the data URI and runs the reading. The only error it
// returns is for malformed input or a failure to persist the session; vendor
// failures end in the fallback reading.
func (s *Service) Analyze(ctx context.Context, dataURI string) (Outcome, error) {
	img, err := domain.ParseDataURI(dataURI)
	if err != nil {
		return Outcome{}, err
	}

	result, fallback := s.read(ctx, img)
	id := session.ID(uuid.New().String())
	sess := &session.Session{
		ID:        id,
		Result:    result,
		Fallback:  fallback,
		Status:    session.StatusTeaser,
		CreatedAt: s.Clock.Now().UTC(),
	}

	if s.Archive != nil {
		key := fmt.Sprintf("uploads/%s/%s%s", sess.CreatedAt.Format("2006/01/02"), id, extFor(img.MIMEType))
		if _, err := s.Archive.Put(ctx, key, img); err != nil {
			logger.Log.WithError(err).WithField("session", id).Warn("image archive failed")
		} else {
			sess.ImageKey = key
		}
	}

	if err := s.Sessions.Save(ctx, sess); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}
	return Outcome{SessionID: id, Result: result, Fallback: fallback}, nil
}

// read never fails: it reports whether the canned reading was used.
func (s *Service) read(ctx context.Context, img domain.Image) (domain.Result, bool) {
	r, err := s.attempt(ctx, s.PrimaryModel, img)
	if err == nil {
		return r, false
	}
	logger.Log.WithFields(logrus.Fields{"model": s.PrimaryModel, "error": err}).Warn("primary model failed, retrying with fallback model")

	if err := s.Clock.Sleep(ctx, s.RetryDelay); err != nil {
		logger.Log.WithError(err).Warn("retry delay interrupted")
		return s.canned(), true
	}

	r, err = s.attempt(ctx, s.FallbackModel, img)
	if err == nil {
		return r, false
	}
	logger.Log.WithFields(logrus.Fields{"model": s.FallbackModel, "error": err}).Error("fallback model failed, serving canned reading")
	return s.canned(), true
}

func (s *Service) attempt(ctx context.Context, model string, img domain.Image) (domain.Result, error) {
	raw, err := s.Model.Generate(ctx, model, prompt.GetUserPrompt(), img)
	if err != nil {
		return domain.Result{}, err
	}
	r, err := prompt.ParseResult(raw)
	if err != nil {
		logger.Log.WithField("model", model).Debugf("unparsable output: %q", raw)
		return domain.Result{}, err
	}
	return r.Clamp(s.MatchRateMin, s.MatchRateMax), nil
}

func (s *Service) canned() domain.Result {
	return domain.Fallback(s.MatchRateMax-2).Clamp(s.MatchRateMin, s.MatchRateMax)
}

// Models lists vendor models for diagnostics.
func (s *Service) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	return s.Lister.ListModels(ctx)
}

func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
