package httpserver

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

const layout = `<!doctype html>
<html lang="ko">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1"><title>AI 관상 분석</title></head>
<body>
{{block "content" .}}{{end}}
<p><a href="/">처음으로 돌아가기</a></p>
</body>
</html>`

const resultContent = `{{define "content"}}
{{if .Error}}
<h1>{{.Heading}}</h1>
<p class="error">{{.Error}}</p>
{{else}}
<h1>당신의 관상 분석 결과</h1>
<h2>닮은 부자: {{.Result.RichLookalike}} ({{.Result.MatchRate}}%)</h2>
<dl>
<dt>동물상</dt><dd>{{.Result.AnimalType}}</dd>
<dt>예상 재산</dt><dd>{{.Result.PotentialWealth}}</dd>
<dt>한 줄 요약</dt><dd>{{.Result.Summary}}</dd>
<dt>상세 분석</dt><dd>{{.Result.DetailedAnalysis}}</dd>
</dl>
{{end}}
{{end}}`

const checkoutContent = `{{define "content"}}
<h1>{{.Order.OrderName}}</h1>
<p>{{.Order.Amount}}원</p>
<button id="pay">결제하기</button>
<script src="https://js.tosspayments.com/v1/payment"></script>
<script>
const order = {{.Order}};
document.getElementById("pay").addEventListener("click", function () {
  TossPayments(order.clientKey).requestPayment("카드", {
    amount: order.amount,
    orderId: order.orderId,
    orderName: order.orderName,
    customerName: order.customerName,
    successUrl: order.successUrl,
    failUrl: order.failUrl,
  });
});
</script>
{{end}}`

var (
	resultPage   = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(resultContent))
	checkoutPage = template.Must(template.Must(template.New("layout").Parse(layout)).Parse(checkoutContent))
)

type resultView struct {
	Heading string
	Error   string
	Result  analysis.Result
}

// GET /result
// The vendor redirects here with ?paymentKey&orderId&amount on success and
// ?fail=true&code&message on failure. ?success=true reopens a paid report.
func (r *Router) handleResultPage(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	switch {
	case q.Get("fail") == "true":
		msg := q.Get("message")
		if msg == "" {
			msg = "결제가 취소되었거나 실패했습니다."
		}
		r.renderResult(w, http.StatusOK, resultView{Heading: "결제 실패", Error: msg})

	case q.Has("paymentKey") && q.Has("orderId") && q.Has("amount"):
		r.confirmAndRender(w, req, q)

	case q.Get("success") == "true":
		id, err := r.requireSession(req, "")
		if err != nil {
			r.renderError(w, err)
			return
		}
		r.renderReport(w, req, id)

	default:
		r.renderResult(w, http.StatusBadRequest, resultView{Heading: "잘못된 접근", Error: "잘못된 접근입니다."})
	}
}

func (r *Router) confirmAndRender(w http.ResponseWriter, req *http.Request, q url.Values) {
	body := confirmRequest{
		PaymentKey: q.Get("paymentKey"),
		OrderID:    q.Get("orderId"),
		Amount:     []byte(q.Get("amount")),
	}
	c, err := body.confirmation()
	if err != nil {
		r.renderError(w, err)
		return
	}
	id, err := r.optionalSession(req, "")
	if err != nil {
		r.renderError(w, err)
		return
	}
	// Without a session the approval could not unlock anything, and the
	// vendor accepts a paymentKey only once.
	if id == "" {
		r.renderResult(w, http.StatusUnauthorized, resultView{Heading: "세션 없음", Error: "분석 세션을 찾을 수 없습니다. 분석을 진행한 브라우저나 앱에서 결과를 다시 열어주세요."})
		return
	}
	if _, err := r.checkoutSvc.Confirm(req.Context(), id, c); err != nil {
		r.renderError(w, err)
		return
	}
	r.renderReport(w, req, id)
}

func (r *Router) renderReport(w http.ResponseWriter, req *http.Request, id session.ID) {
	result, err := r.checkoutSvc.Report(req.Context(), id)
	if err != nil {
		r.renderError(w, err)
		return
	}
	r.renderResult(w, http.StatusOK, resultView{Result: result})
}

func (r *Router) renderError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	heading := "오류"
	if status == http.StatusPaymentRequired {
		msg = "결제 후 전체 결과를 볼 수 있습니다."
	}
	var vendor *payment.VendorError
	if errors.As(err, &vendor) {
		heading = "결제 승인 실패"
	}
	r.renderResult(w, status, resultView{Heading: heading, Error: msg})
}

func (r *Router) renderResult(w http.ResponseWriter, status int, v resultView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := resultPage.Execute(w, v); err != nil {
		logger.Log.WithError(err).Error("render result page")
	}
}

// GET /checkout
// Issues an order for the caller's session and loads the vendor widget. A
// ?sessionToken handed over by the CLI becomes the cookie, since the vendor
// redirect back to /result carries only the payment triple.
func (r *Router) handleCheckoutPage(w http.ResponseWriter, req *http.Request) {
	fromQuery := req.URL.Query().Get("sessionToken")
	id, err := r.requireSession(req, fromQuery)
	if err != nil {
		r.renderError(w, err)
		return
	}
	if fromQuery != "" {
		r.setSessionCookie(w, strings.TrimSpace(fromQuery))
	}
	order, err := r.checkoutSvc.Checkout(req.Context(), id)
	if err != nil {
		r.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := checkoutPage.Execute(w, struct{ Order payment.Order }{order}); err != nil {
		logger.Log.WithError(err).Error("render checkout page")
	}
}
