package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanalysis "github.com/sbag9697/wealth-face-ai/internal/application/analysis"
	appcheckout "github.com/sbag9697/wealth-face-ai/internal/application/checkout"
	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	"github.com/sbag9697/wealth-face-ai/internal/infra/token"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
	"github.com/sbag9697/wealth-face-ai/internal/middleware"
)

// Options carries the HTTP level settings from config.
type Options struct {
	AllowedOrigins []string
	AdminKeys      []string
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix          // peers allowed to set X-Forwarded-For
	RateLimit      *middleware.RateLimiter // nil disables limiting
	Health         map[string]middleware.HealthChecker
}

type Router struct {
	analysisSvc *appanalysis.Service
	checkoutSvc *appcheckout.Service
	tokens      *token.Signer
	opts        Options
}

var errBadRequest = errors.New("bad request")

func NewRouter(analysisSvc *appanalysis.Service, checkoutSvc *appcheckout.Service, tokens *token.Signer, opts Options) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "wf_session"
	}
	r := &Router{analysisSvc: analysisSvc, checkoutSvc: checkoutSvc, tokens: tokens, opts: opts}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(middleware.TrustedRealIP(opts.TrustedProxies))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.With(middleware.AdminKeyAuth(opts.AdminKeys)).Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/api", func(rt chi.Router) {
		if opts.MaxBodyBytes > 0 {
			rt.Use(middleware.LimitBody(opts.MaxBodyBytes))
		}
		rt.Group(func(g chi.Router) {
			if opts.RateLimit != nil {
				g.Use(opts.RateLimit.Handler)
			}
			g.Post("/analyze", r.wrap(r.handleAnalyze))
		})
		rt.With(middleware.AdminKeyAuth(opts.AdminKeys)).Get("/models", r.wrap(r.handleModels))
		rt.Post("/payment/checkout", r.wrap(r.handleCheckout))
		rt.Post("/payment/confirm", r.wrap(r.handleConfirm))
		rt.Get("/report", r.wrap(r.handleReport))
	})

	mux.Get("/result", r.handleResultPage)
	mux.Get("/checkout", r.handleCheckoutPage)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap is the single place errors become status codes.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := statusFor(err)
			if status >= 500 {
				logger.Log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			}
			writeJSON(w, status, map[string]string{"error": msg})
		}
	}
}

func statusFor(err error) (int, string) {
	var vendor *payment.VendorError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &vendor):
		return vendor.Status, vendor.Message
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, analysis.ErrMissingImage),
		errors.Is(err, analysis.ErrMalformedImage),
		errors.Is(err, payment.ErrInvalidRequest),
		errors.Is(err, payment.ErrOrderMismatch),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, token.ErrInvalid):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, payment.ErrPaymentRequired):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, payment.ErrAlreadyPaid):
		return http.StatusConflict, err.Error()
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "ai quota exceeded"
	case errors.Is(err, payment.ErrVerificationUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decodeBody(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

type analyzeResponse struct {
	analysis.Result
	SessionToken string `json:"sessionToken"`
	Fallback     bool   `json:"fallback"`
	Locked       bool   `json:"locked"`
}

// POST /api/analyze
// Body: {"image": "data:image/jpeg;base64,..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Image string `json:"image"`
	}
	if err := decodeBody(req, &body); err != nil {
		return err
	}

	out, err := r.analysisSvc.Analyze(req.Context(), body.Image)
	if err != nil {
		return err
	}
	middleware.RecordAnalysis(out.Fallback)

	tok, err := r.tokens.Issue(out.SessionID)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	r.setSessionCookie(w, tok)

	return writeJSON(w, http.StatusOK, analyzeResponse{
		Result:       out.Result.Teaser(),
		SessionToken: tok,
		Fallback:     out.Fallback,
		Locked:       true,
	})
}

// GET /api/models
func (r *Router) handleModels(w http.ResponseWriter, req *http.Request) error {
	models, err := r.analysisSvc.Models(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// POST /api/payment/checkout
// Body: {"sessionToken": "..."} or the token in a header/cookie.
func (r *Router) handleCheckout(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		SessionToken string `json:"sessionToken"`
	}
	if req.ContentLength != 0 {
		if err := decodeBody(req, &body); err != nil {
			return err
		}
	}
	id, err := r.requireSession(req, body.SessionToken)
	if err != nil {
		return err
	}
	order, err := r.checkoutSvc.Checkout(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, order)
}

type confirmRequest struct {
	PaymentKey   string          `json:"paymentKey"`
	OrderID      string          `json:"orderId"`
	Amount       json.RawMessage `json:"amount"`
	SessionToken string          `json:"sessionToken"`
}

// POST /api/payment/confirm
// Body: {"paymentKey": "...", "orderId": "...", "amount": 3900}
// amount may arrive as a string since it is copied from the redirect query.
func (r *Router) handleConfirm(w http.ResponseWriter, req *http.Request) error {
	var body confirmRequest
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	c, err := body.confirmation()
	if err != nil {
		return err
	}

	id, err := r.optionalSession(req, body.SessionToken)
	if err != nil {
		return err
	}

	payload, err := r.checkoutSvc.Confirm(req.Context(), id, c)
	middleware.RecordConfirmation(confirmOutcome(err))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(payload)
	return err
}

func (b confirmRequest) confirmation() (payment.Confirmation, error) {
	amount, err := parseAmount(b.Amount)
	if err != nil {
		return payment.Confirmation{}, err
	}
	c := payment.Confirmation{
		PaymentKey: strings.TrimSpace(b.PaymentKey),
		OrderID:    strings.TrimSpace(b.OrderID),
		Amount:     amount,
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	if err := middleware.ValidatePaymentKey(c.PaymentKey); err != nil {
		return c, fmt.Errorf("%w: %v", payment.ErrInvalidRequest, err)
	}
	if err := middleware.ValidateOrderID(c.OrderID); err != nil {
		return c, fmt.Errorf("%w: %v", payment.ErrInvalidRequest, err)
	}
	return c, nil
}

// parseAmount accepts 3900, "3900" or a missing value (0, rejected later).
func parseAmount(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount must be an integer", payment.ErrInvalidRequest)
	}
	return n, nil
}

func confirmOutcome(err error) string {
	var vendor *payment.VendorError
	switch {
	case err == nil:
		return "approved"
	case errors.As(err, &vendor):
		return "rejected"
	case errors.Is(err, payment.ErrVerificationUnavailable):
		return "unavailable"
	case errors.Is(err, payment.ErrOrderMismatch), errors.Is(err, payment.ErrInvalidRequest):
		return "invalid"
	default:
		return "error"
	}
}

// GET /api/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	id, err := r.requireSession(req, "")
	if err != nil {
		return err
	}
	result, err := r.checkoutSvc.Report(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// sessionToken looks in the body value, then the Authorization and
// X-Session-Token headers, then the cookie.
func (r *Router) sessionToken(req *http.Request, fromBody string) string {
	if t := strings.TrimSpace(fromBody); t != "" {
		return t
	}
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if t := strings.TrimSpace(req.Header.Get("X-Session-Token")); t != "" {
		return t
	}
	if c, err := req.Cookie(r.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (r *Router) requireSession(req *http.Request, fromBody string) (session.ID, error) {
	tok := r.sessionToken(req, fromBody)
	if tok == "" {
		return "", fmt.Errorf("%w: missing", token.ErrInvalid)
	}
	return r.verify(tok)
}

// optionalSession returns "" when no token was sent at all.
func (r *Router) optionalSession(req *http.Request, fromBody string) (session.ID, error) {
	tok := r.sessionToken(req, fromBody)
	if tok == "" {
		return "", nil
	}
	return r.verify(tok)
}

func (r *Router) verify(tok string) (session.ID, error) {
	id, err := r.tokens.Verify(tok)
	if err != nil {
		return "", err
	}
	if err := middleware.ValidateSessionID(string(id)); err != nil {
		return "", fmt.Errorf("%w: %v", token.ErrInvalid, err)
	}
	return id, nil
}

func (r *Router) setSessionCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.opts.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(r.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
