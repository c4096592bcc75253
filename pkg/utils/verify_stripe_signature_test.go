package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signPayload(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyStripeSignature(t *testing.T) {
	const secret = "whsec_test"
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	t.Setenv("STRIPE_WEBHOOK_SECRET", secret)

	now := time.Now().Unix()
	valid := fmt.Sprintf("t=%d,v1=%s", now, signPayload(secret, now, body))
	assert.True(t, VerifyStripeSignature(valid, body))

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty header", header: ""},
		{name: "no timestamp", header: fmt.Sprintf("v1=%s", signPayload(secret, now, body))},
		{name: "no signature", header: fmt.Sprintf("t=%d", now)},
		{name: "garbage timestamp", header: fmt.Sprintf("t=abc,v1=%s", signPayload(secret, now, body))},
		{name: "wrong signature", header: fmt.Sprintf("t=%d,v1=%s", now, "deadbeef")},
		{
			name: "signed with wrong secret",
			header: fmt.Sprintf("t=%d,v1=%s", now,
				signPayload("whsec_other", now, body)),
		},
		{
			name: "expired timestamp",
			header: fmt.Sprintf("t=%d,v1=%s", now-600,
				signPayload(secret, now-600, body)),
		},
		{
			name: "future timestamp beyond tolerance",
			header: fmt.Sprintf("t=%d,v1=%s", now+600,
				signPayload(secret, now+600, body)),
		},
		{
			name: "tampered body",
			header: fmt.Sprintf("t=%d,v1=%s", now,
				signPayload(secret, now, []byte(`{"id":"evt_other"}`))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyStripeSignature(tt.header, body))
		})
	}
}

func TestVerifyStripeSignature_MultipleSignatures(t *testing.T) {
	const secret = "whsec_test"
	body := []byte(`{}`)

	t.Setenv("STRIPE_WEBHOOK_SECRET", secret)

	now := time.Now().Unix()
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now, "deadbeef", signPayload(secret, now, body))
	assert.True(t, VerifyStripeSignature(header, body))
}

func TestVerifyStripeSignature_NoSecretConfigured(t *testing.T) {
	body := []byte(`{}`)

	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	now := time.Now().Unix()
	header := fmt.Sprintf("t=%d,v1=%s", now, signPayload("whsec_test", now, body))
	assert.False(t, VerifyStripeSignature(header, body))
}
