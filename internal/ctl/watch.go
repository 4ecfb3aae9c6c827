package ctl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Watch connects to the dashboard's status stream and prints each state
// change until interrupted.
func Watch(baseURL string, jsonOut bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws/status"
	u.RawQuery = ""

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !jsonOut {
		fmt.Println()
		fmt.Printf("  %s %s\n", colorize(green, "connected"), colorize(dim, u.String()))
		fmt.Println(colorize(dim, "  "+strings.Repeat("-", 50)))
		fmt.Println()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if jsonOut {
				fmt.Println(string(msg))
			} else {
				renderSnapshot(msg)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		if !jsonOut {
			fmt.Println()
			fmt.Println(colorize(dim, "  disconnecting..."))
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(1*time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// renderSnapshot prints one status event in a human-friendly line.
// Falls back to raw JSON when the payload does not parse.
func renderSnapshot(raw []byte) {
	var s StatusResponse
	if err := json.Unmarshal(raw, &s); err != nil {
		fmt.Printf("  %s\n", string(raw))
		return
	}

	ts := time.Now().Format("15:04:05")
	line := fmt.Sprintf("  %s  %s  step %d/%d",
		colorize(dim, ts),
		colorize(stateColor(s.State), padRight(s.State, 10)),
		s.StepIndex+1, s.TotalSteps)
	if s.StepTitle != "" {
		line += "  " + s.StepTitle
	}
	if s.MistakeReason != "" {
		line += "  " + colorize(red, s.MistakeReason)
	}
	if s.Terminal {
		line += "  " + colorize(green, "(finished)")
	}
	fmt.Println(line)
}
