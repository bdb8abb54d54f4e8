// Package main - agitator
// Load generator: many concurrent websocket players spamming intents at the
// snake server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/GridSnake/internal/network"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	ResultsFile    string
}

// Stats tracks what the clients saw.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	StateFrames      int64
	HighScores       int64
	ServerErrors     int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

var (
	title = color.New(color.FgCyan, color.Bold)
	good  = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
	bad   = color.New(color.FgRed, color.Bold)
)

var directions = []string{"UP", "DOWN", "LEFT", "RIGHT"}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	results := flag.String("out", "stress_test_results.json", "File for the JSON results (empty to skip)")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		ResultsFile:    *results,
	}

	title.Println(strings.Repeat("=", 41))
	title.Println("AGITATOR - GridSnake stress test")
	title.Println(strings.Repeat("=", 41))
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := runStressTest(ctx, config)
	os.Exit(printResults(stats, config))
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid a thundering herd.
		time.Sleep(10 * time.Millisecond)
	}
	good.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return stats
		case <-ticker.C:
			fmt.Printf("Progress: sent=%d recv=%d states=%d errors=%d\n",
				atomic.LoadInt64(&stats.MessagesSent),
				atomic.LoadInt64(&stats.MessagesReceived),
				atomic.LoadInt64(&stats.StateFrames),
				atomic.LoadInt64(&stats.Errors))
		}
	}
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		warn.Printf("Client %d: connection failed: %v\n", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go receive(conn, stats)

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(clientID)))
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
			msg := randomMessage(rng)
			start := time.Now()
			if err := conn.WriteJSON(msg); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, time.Since(start))
			stats.mu.Unlock()
		}
	}
}

// receive counts server frames. One websocket message may carry several
// newline-separated JSON messages.
func receive(conn *websocket.Conn, stats *Stats) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line == "" {
				continue
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			var msg network.ServerMessage
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			switch msg.Type {
			case network.MessageState:
				atomic.AddInt64(&stats.StateFrames, 1)
			case network.MessageHighScore:
				atomic.AddInt64(&stats.HighScores, 1)
			case network.MessageError:
				atomic.AddInt64(&stats.ServerErrors, 1)
			}
		}
	}
}

// randomMessage mostly steers, sometimes restarts a finished game.
func randomMessage(rng *rand.Rand) network.ClientMessage {
	switch n := rng.Intn(20); {
	case n < 14:
		return network.ClientMessage{Type: network.ActionDirection, Direction: directions[rng.Intn(len(directions))]}
	case n < 16:
		return network.ClientMessage{Type: network.ActionSwipe, DX: float64(rng.Intn(201) - 100), DY: float64(rng.Intn(201) - 100)}
	case n < 17:
		return network.ClientMessage{Type: network.ActionPause}
	case n < 18:
		return network.ClientMessage{Type: network.ActionStart}
	default:
		return network.ClientMessage{Type: network.ActionReset}
	}
}

// printResults reports the run and returns the process exit code.
func printResults(stats *Stats, config Config) int {
	title.Println("\n" + strings.Repeat("=", 41))
	title.Println("STRESS TEST RESULTS")
	title.Println(strings.Repeat("=", 41))

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)
	errorRate := float64(errs) / float64(sent+1) * 100
	throughput := float64(sent) / config.TestDuration.Seconds()

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("State Frames:      %d\n", atomic.LoadInt64(&stats.StateFrames))
	fmt.Printf("High Scores:       %d\n", atomic.LoadInt64(&stats.HighScores))
	fmt.Printf("Server Errors:     %d\n", atomic.LoadInt64(&stats.ServerErrors))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", errorRate)
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	stats.mu.Lock()
	if len(stats.Latencies) > 0 {
		var total time.Duration
		min, max := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("  Max: %v\n", max)
	}
	stats.mu.Unlock()

	fmt.Println("\n" + strings.Repeat("-", 41))
	code := 0
	switch {
	case errs == 0 && sent > 0:
		good.Println("TEST PASSED: server handled the load")
	case errorRate < 5:
		warn.Println("TEST WARNING: some errors detected")
	default:
		bad.Println("TEST FAILED: high error rate")
		code = 1
	}

	if config.ResultsFile != "" {
		results := map[string]interface{}{
			"messages_sent":      sent,
			"messages_received":  recv,
			"errors":             errs,
			"throughput_per_sec": throughput,
			"config": map[string]interface{}{
				"clients":  config.NumClients,
				"interval": config.ActionInterval.String(),
				"duration": config.TestDuration.String(),
			},
		}
		jsonData, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(config.ResultsFile, jsonData, 0644); err != nil {
			warn.Printf("Could not save results: %v\n", err)
		} else {
			fmt.Printf("Results saved to %s\n", config.ResultsFile)
		}
	}
	return code
}
