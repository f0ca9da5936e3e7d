package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/wonny/sentiforecast/pkg/httputil"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// Example_doJSON demonstrates a JSON round trip to the inference endpoint
func Example_doJSON() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scores":[{"compound":0.42}]}`))
	}))
	defer srv.Close()

	// Create HTTP client (SSOT)
	client := httputil.NewWithTimeout(logger.Nop(), 5*time.Second).
		WithRetry(3, 100*time.Millisecond).
		WithRateLimit(10)

	var out struct {
		Scores []struct {
			Compound float64 `json:"compound"`
		} `json:"scores"`
	}
	in := map[string][]string{"texts": {"deliveries beat estimates $TSLA"}}
	if err := client.DoJSON(context.Background(), srv.URL+"/sentiment", in, &out); err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("compound=%.2f\n", out.Scores[0].Compound)
}

// Example_disableRetry demonstrates a client that fails fast
func Example_disableRetry() {
	client := httputil.New(logger.Nop()).DisableRetry()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "http://127.0.0.1:1/health")
	if err != nil {
		fmt.Println("unreachable, no retry")
		return
	}
	defer resp.Body.Close()
	fmt.Printf("Status: %d\n", resp.StatusCode)
}
