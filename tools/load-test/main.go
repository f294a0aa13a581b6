// load-test fires concurrent PIN submissions at the kiosk endpoint and
// reports how the server resolved them. With an empty kiosk at most one
// submission may come back as clock_in; the rest must be approval_required.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"
)

type clockResponse struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

func main() {
	url := pflag.String("url", "http://localhost:8080/api/v1/clock", "kiosk clock endpoint")
	pins := pflag.StringSlice("pins", []string{"1001", "1002", "1003", "1004", "1005"}, "PINs of seeded employees")
	rounds := pflag.Int("rounds", 20, "submissions per PIN")
	concurrency := pflag.Int("concurrency", 50, "maximum requests in flight")
	pflag.Parse()

	fmt.Printf("Starting load test: %d PINs x %d rounds against %s with concurrency %d\n", len(*pins), *rounds, *url, *concurrency)

	client := &http.Client{Timeout: 10 * time.Second}
	sem := make(chan struct{}, *concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[string]int{}
	)
	record := func(key string) {
		mu.Lock()
		outcomes[key]++
		mu.Unlock()
	}

	startTime := time.Now()
	for round := 0; round < *rounds; round++ {
		for _, pin := range *pins {
			wg.Add(1)
			sem <- struct{}{}
			go func(pin string) {
				defer wg.Done()
				defer func() { <-sem }()

				payload, _ := json.Marshal(map[string]string{"pin": pin})
				resp, err := client.Post(*url, "application/json", bytes.NewReader(payload))
				if err != nil {
					record("connection_error")
					return
				}
				defer resp.Body.Close()

				var body clockResponse
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					record(fmt.Sprintf("http_%d", resp.StatusCode))
					return
				}
				if body.Action != "" {
					record(body.Action)
					return
				}
				record(fmt.Sprintf("http_%d", resp.StatusCode))
			}(pin)
		}
	}

	wg.Wait()
	duration := time.Since(startTime)
	total := len(*pins) * *rounds

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", total)
	for key, n := range outcomes {
		fmt.Printf("%-20s %d\n", key+":", n)
	}
	fmt.Printf("Requests/Sec:   %.2f\n", float64(total)/duration.Seconds())

	// Every clock_in must be matched by the holder's own clock_out before the
	// next one, so clock_in can never exceed clock_out by more than one.
	if outcomes["clock_in"]-outcomes["clock_out"] > 1 {
		fmt.Println("FAIL: more than one session left open")
		os.Exit(1)
	}
}
