// Command mock-endpoints runs a local webhook receiver for manual testing.
// Point subscriptions at its routes to exercise success, retry, rate-limit
// and timeout paths. Set MOCK_SECRET to verify signatures.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/oakmart/webhook-engine/internal/signer"
)

var requestCount atomic.Int64

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	secret := os.Getenv("MOCK_SECRET")

	// Always returns 200
	http.HandleFunc("/webhook/success", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, 200, verifySignature(r, secret))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	})

	// Delays past a typical delivery timeout before responding
	http.HandleFunc("/webhook/slow", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		time.Sleep(15 * time.Second)
		logRequest(r, count, 200, "")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received (slow)"})
	})

	// Always returns 500, exercising the retry-until-exhaustion path
	http.HandleFunc("/webhook/fail", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, 500, "")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
	})

	// Always returns 400, which the engine treats as permanent
	http.HandleFunc("/webhook/reject", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, 400, "")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
	})

	// Succeeds on every third attempt, exercising recovery within the budget
	http.HandleFunc("/webhook/flaky", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if count%3 == 0 {
			logRequest(r, count, 200, "")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "received (flaky)"})
			return
		}
		logRequest(r, count, 503, "")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "temporarily unavailable"})
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"total_requests": requestCount.Load()})
	})

	log.Printf("Mock endpoint server starting on :%s", port)
	log.Printf("  POST /webhook/success  -> 200 OK")
	log.Printf("  POST /webhook/slow     -> 200 OK (15s delay)")
	log.Printf("  POST /webhook/fail     -> 500 Error")
	log.Printf("  POST /webhook/reject   -> 400 Error (no retry)")
	log.Printf("  POST /webhook/flaky    -> 503 twice, then 200")
	log.Printf("  GET  /stats            -> request count")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// verifySignature checks X-Webhook-Signature against the request body when a
// secret is configured. Returns a short status string for the log line.
func verifySignature(r *http.Request, secret string) string {
	if secret == "" {
		return ""
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "sig=read-error"
	}
	if signer.Verify(body, secret, r.Header.Get("X-Webhook-Signature")) {
		return "sig=ok"
	}
	return "sig=MISMATCH"
}

func logRequest(r *http.Request, count int64, status int, extra string) {
	fmt.Printf("[#%d] %s %s -> %d | event=%s id=%s attempt=%s %s\n",
		count,
		r.Method,
		r.URL.Path,
		status,
		r.Header.Get("X-Webhook-Event"),
		truncate(r.Header.Get("X-Webhook-ID"), 8),
		r.Header.Get("X-Webhook-Attempt"),
		extra,
	)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
