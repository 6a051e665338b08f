package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	maxUserID   int
)

// Metrics
var (
	totalRequests uint64
	completed     uint64 // transfer went through
	preDebit      uint64 // rejected before any debit
	postDebit     uint64 // failed after debit, complaint required
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.IntVar(&maxUserID, "users", 100, "Seeded user id range to draw senders from")
}

type transferResult struct {
	Success           bool   `json:"success"`
	RequiresComplaint bool   `json:"requires_complaint"`
	MoneyDebited      bool   `json:"money_debited"`
	ErrorCode         string `json:"error_code"`
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark | Workers: %d | Duration: %s", concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, rand.New(rand.NewSource(time.Now().UnixNano()+int64(i))))
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time, rng *rand.Rand) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		payload := map[string]interface{}{
			"user_id":          rng.Intn(maxUserID) + 1,
			"receiver_account": "9876543210",
			"receiver_name":    "Ramesh Kumar",
			"amount":           float64(rng.Intn(500)+1) * 10,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/transfers", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		atomic.AddUint64(&totalRequests, 1)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		var result transferResult
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()

		switch {
		case resp.StatusCode != http.StatusOK || decodeErr != nil:
			atomic.AddUint64(&failOther, 1)
		case result.Success:
			atomic.AddUint64(&completed, 1)
		case result.MoneyDebited:
			atomic.AddUint64(&postDebit, 1)
		default:
			atomic.AddUint64(&preDebit, 1)
		}
	}
}

func printResults(elapsed time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	fmt.Println("--- Benchmark Results ---")
	fmt.Printf("Elapsed:            %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Total Requests:     %d (%.1f req/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("Completed:          %d\n", atomic.LoadUint64(&completed))
	fmt.Printf("Pre-debit Reject:   %d\n", atomic.LoadUint64(&preDebit))
	fmt.Printf("Post-debit Failure: %d\n", atomic.LoadUint64(&postDebit))
	fmt.Printf("Other Failures:     %d\n", atomic.LoadUint64(&failOther))
}
