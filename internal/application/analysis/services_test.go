package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	"github.com/sbag9697/wealth-face-ai/internal/infra/db/memory"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

const goodReading = "```json\n{\"richLookalike\":\"일론 머스크\",\"matchRate\":\"72\",\"animalType\":\"용\",\"potentialWealth\":\"100억 ~ 1조\",\"summary\":\"하늘이 내린 재물복\",\"detailedAnalysis\":\"눈매가 날카롭다\"}\n```"

type step struct {
	out string
	err error
}

type fakeModel struct {
	mu    sync.Mutex
	steps map[string]step
	calls []string
}

func (m *fakeModel) Generate(ctx context.Context, model, prompt string, img domain.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, model)
	s := m.steps[model]
	return s.out, s.err
}

type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleepE error
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	return c.sleepE
}

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) Put(ctx context.Context, key string, img domain.Image) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return "http://minio/" + key, nil
}

func newService(model *fakeModel, clock *fakeClock) (*Service, *memory.SessionRepository) {
	repo := memory.NewSessionRepository()
	return &Service{
		Model:         model,
		Sessions:      repo,
		Clock:         clock,
		PrimaryModel:  "primary",
		FallbackModel: "secondary",
		RetryDelay:    time.Second,
		MatchRateMin:  85,
		MatchRateMax:  99,
	}, repo
}

const photo = "data:image/jpeg;base64,/9j/4AAQ"

func TestMain(m *testing.M) {
	logger.Discard()
	m.Run()
}

func TestAnalyze_PrimarySucceeds(t *testing.T) {
	model := &fakeModel{steps: map[string]step{"primary": {out: goodReading}}}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc, repo := newService(model, clock)

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.Equal(t, "일론 머스크", out.Result.RichLookalike)
	assert.Equal(t, domain.MatchRate(85), out.Result.MatchRate, "72 is clamped into the declared bound")
	assert.Equal(t, []string{"primary"}, model.calls)
	assert.Empty(t, clock.slept)

	stored, err := repo.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, out.Result, stored.Result)
	assert.Equal(t, session.StatusTeaser, stored.Status)
	assert.Equal(t, clock.now, stored.CreatedAt)
}

func TestAnalyze_RetriesOnVendorError(t *testing.T) {
	model := &fakeModel{steps: map[string]step{
		"primary":   {err: errors.New("404 model not found")},
		"secondary": {out: goodReading},
	}}
	clock := &fakeClock{}
	svc, _ := newService(model, clock)

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "일론 머스크", out.Result.RichLookalike)
	assert.Equal(t, []string{"primary", "secondary"}, model.calls)
	assert.Equal(t, []time.Duration{time.Second}, clock.slept)
}

func TestAnalyze_RetriesOnParseFailure(t *testing.T) {
	model := &fakeModel{steps: map[string]step{
		"primary":   {out: "I'd rather not judge faces."},
		"secondary": {out: goodReading},
	}}
	svc, _ := newService(model, &fakeClock{})

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, []string{"primary", "secondary"}, model.calls)
}

func TestAnalyze_BothFailServesCannedReading(t *testing.T) {
	model := &fakeModel{steps: map[string]step{
		"primary":   {err: domain.ErrQuotaExceeded},
		"secondary": {out: `{"richLookalike": ""}`},
	}}
	svc, repo := newService(model, &fakeClock{})

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.NoError(t, out.Result.Validate())
	assert.GreaterOrEqual(t, int(out.Result.MatchRate), 85)
	assert.LessOrEqual(t, int(out.Result.MatchRate), 99)

	stored, err := repo.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Fallback)
}

func TestAnalyze_InterruptedDelayServesCannedReading(t *testing.T) {
	model := &fakeModel{steps: map[string]step{"primary": {err: errors.New("boom")}}}
	svc, _ := newService(model, &fakeClock{sleepE: context.Canceled})

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, []string{"primary"}, model.calls)
}

func TestAnalyze_RejectsMissingOrMalformedImage(t *testing.T) {
	model := &fakeModel{}
	svc, _ := newService(model, &fakeClock{})

	_, err := svc.Analyze(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingImage)
	_, err = svc.Analyze(context.Background(), "data:image/jpeg;base64,%%%")
	assert.ErrorIs(t, err, domain.ErrMalformedImage)
	assert.Empty(t, model.calls)
}

func TestAnalyze_ArchivesUpload(t *testing.T) {
	model := &fakeModel{steps: map[string]step{"primary": {out: goodReading}}}
	svc, repo := newService(model, &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	archive := &fakeArchive{}
	svc.Archive = archive

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	require.Len(t, archive.keys, 1)
	assert.Equal(t, "uploads/2026/03/01/"+string(out.SessionID)+".jpg", archive.keys[0])

	stored, _ := repo.Get(context.Background(), out.SessionID)
	assert.Equal(t, archive.keys[0], stored.ImageKey)
}

func TestAnalyze_ArchiveFailureIsNotFatal(t *testing.T) {
	model := &fakeModel{steps: map[string]step{"primary": {out: goodReading}}}
	svc, repo := newService(model, &fakeClock{})
	svc.Archive = &fakeArchive{err: errors.New("minio down")}

	out, err := svc.Analyze(context.Background(), photo)
	require.NoError(t, err)
	stored, _ := repo.Get(context.Background(), out.SessionID)
	assert.Empty(t, stored.ImageKey)
}
