package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	paid := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/analyze":
			w.Write([]byte(`{"richLookalike":"워런 버핏","matchRate":94,"animalType":"🔒 결제 후 공개됩니다","sessionToken":"tok","locked":true}`))
		case "/api/payment/checkout":
			json.NewEncoder(w).Encode(map[string]any{"orderId": "ORDER_1767225600000_abcdef12", "orderName": "AI 관상 분석 리포트", "amount": 3900})
		case "/api/payment/confirm":
			paid = true
			w.Write([]byte(`{"status":"DONE"}`))
		case "/api/report":
			if !paid {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"error":"payment required to unlock the report"}`))
				return
			}
			w.Write([]byte(`{"richLookalike":"워런 버핏","matchRate":94,"animalType":"두꺼비","potentialWealth":"30억 ~ 300억","summary":"느긋한 부자","detailedAnalysis":"이마가 넓다"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ScanPayResult(t *testing.T) {
	srv := fakeServer(t)
	dir := t.TempDir()
	state := filepath.Join(dir, "state.json")

	photo := filepath.Join(dir, "face.jpg")
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1200, 900)), nil))
	require.NoError(t, os.WriteFile(photo, buf.Bytes(), 0o600))

	common := []string{"--server", srv.URL, "--state", state}

	out, err := run(t, append([]string{"scan", photo, "--reveal-delay", "1ms"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "워런 버핏")
	assert.Contains(t, out, "94%")

	_, err = run(t, append([]string{"result", "--success"}, common...)...)
	assert.Error(t, err, "unpaid session must not show the report")

	out, err = run(t, append([]string{"pay"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "/checkout?sessionToken=tok")

	out, err = run(t, append([]string{"result", "--url", srv.URL + "/result?paymentKey=pk&orderId=ORDER_1767225600000_abcdef12&amount=3900"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "두꺼비상")
	assert.Contains(t, out, "이마가 넓다")
}

func TestCLI_ResultWithoutParams(t *testing.T) {
	_, err := run(t, "result", "--state", filepath.Join(t.TempDir(), "s.json"))
	assert.Error(t, err)
}
