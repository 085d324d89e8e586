package toss

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
)

var triple = payment.Confirmation{PaymentKey: "tgen_123", OrderID: "ORDER_1", Amount: 3900}

func TestConfirm_Approved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test_sk_abc", user)
		assert.Empty(t, pass)

		var got payment.Confirmation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, triple, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paymentKey":"tgen_123","orderId":"ORDER_1","status":"DONE","totalAmount":3900}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "test_sk_abc", time.Second)
	out, err := c.Confirm(context.Background(), triple)
	require.NoError(t, err)
	assert.JSONEq(t, `{"paymentKey":"tgen_123","orderId":"ORDER_1","status":"DONE","totalAmount":3900}`, string(out))
}

func TestConfirm_RejectedPassesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"한도초과 혹은 잔액부족으로 결제에 실패했습니다."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_sk_abc", time.Second)
	_, err := c.Confirm(context.Background(), triple)

	var ve *payment.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, http.StatusForbidden, ve.Status)
	assert.Equal(t, "REJECT_CARD_PAYMENT", ve.Code)
	assert.Equal(t, "한도초과 혹은 잔액부족으로 결제에 실패했습니다.", ve.Message)
}

func TestConfirm_RejectedWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "sk", time.Second).Confirm(context.Background(), triple)
	var ve *payment.VendorError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, http.StatusBadGateway, ve.Status)
	assert.Equal(t, "Payment Verification Failed", ve.Message)
}

func TestConfirm_WithoutSecretNeverSucceeds(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	assert.False(t, c.Configured())
	out, err := c.Confirm(context.Background(), triple)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, payment.ErrVerificationUnavailable)
	assert.False(t, called)
}

func TestBasicToken(t *testing.T) {
	assert.Equal(t, "dGVzdF9za186", basicToken("test_sk_"))
}
