package flow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/wealth-face-ai/internal/client"
	"github.com/sbag9697/wealth-face-ai/internal/client/store"
	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/imageprep"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

type fakeAPI struct {
	uploads  []string
	analyzeE error
	tokens   []string
}

func (f *fakeAPI) Analyze(ctx context.Context, dataURI string) (*client.AnalyzeResponse, error) {
	f.uploads = append(f.uploads, dataURI)
	if f.analyzeE != nil {
		return nil, f.analyzeE
	}
	full := analysis.Fallback(90)
	full.RichLookalike = "이재용"
	return &client.AnalyzeResponse{Result: full.Teaser(), SessionToken: fmt.Sprintf("tok-%d", len(f.uploads)), Locked: true}, nil
}

func (f *fakeAPI) Checkout(ctx context.Context, tok string) (*payment.Order, error) {
	f.tokens = append(f.tokens, tok)
	return &payment.Order{OrderID: "ORDER_1", Amount: 3900}, nil
}

type fakeWidget struct{ opened []payment.Order }

func (w *fakeWidget) Open(ctx context.Context, o payment.Order) error {
	w.opened = append(w.opened, o)
	return nil
}

type fakeClock struct {
	slept    []time.Duration
	sleepErr error
}

func (c *fakeClock) Now() time.Time { return time.Unix(1_767_225_600, 0) }
func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	return c.sleepErr
}

func TestMain(m *testing.M) {
	logger.Discard()
	m.Run()
}

func photo(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return bytes.NewReader(buf.Bytes())
}

func newController() (*Controller, *fakeAPI, *fakeWidget, *fakeClock, *store.Memory) {
	api, w, clk, st := &fakeAPI{}, &fakeWidget{}, &fakeClock{}, store.NewMemory()
	return &Controller{API: api, Store: st, Widget: w, Clock: clk}, api, w, clk, st
}

func TestSelect_UploadToTeaser(t *testing.T) {
	c, api, _, clk, st := newController()
	assert.Equal(t, StateUpload, c.State())

	res, err := c.Select(context.Background(), photo(t, 2000, 2000))
	require.NoError(t, err)
	assert.Equal(t, StateTeaser, c.State())
	assert.Equal(t, "이재용", res.RichLookalike)
	assert.Equal(t, analysis.LockedMask, res.Summary)
	assert.Equal(t, []time.Duration{DefaultRevealDelay}, clk.slept)

	require.Len(t, api.uploads, 1)
	assert.True(t, strings.HasPrefix(api.uploads[0], "data:image/jpeg;base64,"))

	saved, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", saved.SessionToken)
	assert.Nil(t, saved.Report)
}

func TestSelect_FailureReturnsToUpload(t *testing.T) {
	c, api, _, _, _ := newController()
	api.analyzeE = errors.New("server down")

	_, err := c.Select(context.Background(), photo(t, 100, 100))
	assert.Error(t, err)
	assert.Equal(t, StateUpload, c.State())

	_, err = c.Select(context.Background(), strings.NewReader("not a photo"))
	assert.ErrorIs(t, err, imageprep.ErrUnsupported)
	assert.Equal(t, StateUpload, c.State())
}

func TestSelect_NewUploadOverwritesStore(t *testing.T) {
	c, _, _, _, st := newController()
	_, err := c.Select(context.Background(), photo(t, 10, 10))
	require.NoError(t, err)
	_, err = c.Select(context.Background(), photo(t, 10, 10))
	require.NoError(t, err)

	saved, _ := st.Load(context.Background())
	assert.Equal(t, "tok-2", saved.SessionToken)
}

func TestSelect_CancelledRevealKeepsPreviousUpload(t *testing.T) {
	c, _, _, clk, st := newController()
	_, err := c.Select(context.Background(), photo(t, 10, 10))
	require.NoError(t, err)

	clk.sleepErr = context.Canceled
	_, err = c.Select(context.Background(), photo(t, 10, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateUpload, c.State())

	saved, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", saved.SessionToken)
}

func TestPay_OnlyFromTeaser(t *testing.T) {
	c, api, w, _, _ := newController()

	_, err := c.Pay(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, w.opened)

	_, err = c.Select(context.Background(), photo(t, 10, 10))
	require.NoError(t, err)

	order, err := c.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ORDER_1", order.OrderID)
	assert.Equal(t, []string{"tok-1"}, api.tokens)
	require.Len(t, w.opened, 1)
}

func TestResume(t *testing.T) {
	c, _, _, _, st := newController()
	assert.ErrorIs(t, c.Resume(context.Background()), store.ErrEmpty)

	require.NoError(t, st.Save(context.Background(), store.State{SessionToken: "tok"}))
	require.NoError(t, c.Resume(context.Background()))
	assert.Equal(t, StateTeaser, c.State())
}
