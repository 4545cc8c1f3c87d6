package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries the Calendly webhook signature:
// "t=<unix ts>,v1=<hex hmac>".
const SignatureHeader = "Calendly-Webhook-Signature"

// CalendlySignature returns middleware that verifies the HMAC-SHA256
// signature Calendly attaches to webhook deliveries. The signed payload is
// "<t>.<raw body>". An empty secret disables verification.
func CalendlySignature(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ts, sig := parseSignature(r.Header.Get(SignatureHeader))
			if ts == "" || sig == "" {
				http.Error(w, "missing signature", http.StatusUnauthorized)
				return
			}

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write([]byte(ts))
			mac.Write([]byte("."))
			mac.Write(body)
			want := hex.EncodeToString(mac.Sum(nil))

			if !hmac.Equal([]byte(want), []byte(sig)) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseSignature(header string) (ts, sig string) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	return ts, sig
}
