package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/MeKo-Tech/printkit/internal/config"
	"github.com/MeKo-Tech/printkit/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

// startServer runs the real printkit handlers behind an httptest server.
func (testCtx *TestContext) startServer(rateLimit server.RateLimitConfig) error {
	testCtx.StopServer()

	cfg := config.DefaultConfig()
	srv, err := server.NewServer(server.Config{
		Host:         "127.0.0.1",
		CORSOrigin:   cfg.Server.CORSOrigin,
		TimeoutSec:   cfg.Server.TimeoutSec,
		MaxBatchSize: 10,
		MaxBodyKB:    cfg.Server.MaxBodyKB,
		Batch:        cfg.ToBatchConfig(),
		RateLimit:    rateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPTestServer = httptest.NewServer(mux)
	return nil
}

// theServerIsRunning starts a server with default settings.
func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startServer(server.RateLimitConfig{})
}

// theServerIsRunningWithRateLimit starts a server limited per minute.
func (testCtx *TestContext) theServerIsRunningWithRateLimit(perMinute int) error {
	return testCtx.startServer(server.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: perMinute,
	})
}

// iGET performs a GET request against the running server.
func (testCtx *TestContext) iGET(endpoint string) error {
	return testCtx.makeHTTPRequest(http.MethodGet, endpoint, "")
}

// iPOSTWithJSON performs a POST request with the doc string as body.
func (testCtx *TestContext) iPOSTWithJSON(endpoint string, body *godog.DocString) error {
	return testCtx.makeHTTPRequest(http.MethodPost, endpoint, body.Content)
}

// iGETTimes repeats a GET request, keeping the last response.
func (testCtx *TestContext) iGETTimes(endpoint string, n int) error {
	for range n {
		if err := testCtx.iGET(endpoint); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) makeHTTPRequest(method, endpoint, body string) error {
	if testCtx.HTTPTestServer == nil {
		return errors.New("server is not running")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := testCtx.HTTPTestServer.URL + endpoint

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			testCtx.LastHTTPHeaders[key] = values[0]
		}
	}
	return nil
}

// theResponseStatusShouldBe verifies the HTTP status code.
func (testCtx *TestContext) theResponseStatusShouldBe(expected int) error {
	if testCtx.LastHTTPStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", expected, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseShouldContain verifies the response body contains text.
func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseHeaderShouldBe verifies a response header value.
func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if got != expected {
		return fmt.Errorf("header %s: expected %q, got %q", name, expected, got)
	}
	return nil
}

// theResponseFieldShouldBe compares a dotted JSON path against a value.
func (testCtx *TestContext) theResponseFieldShouldBe(field, expected string) error {
	data, err := parseJSON(testCtx.LastHTTPResponse)
	if err != nil {
		return err
	}
	val, err := lookupField(data, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(val); got != expected {
		return fmt.Errorf("field %s: expected %q, got %q", field, expected, got)
	}
	return nil
}

// iSendTheWebSocketMessage sends one message over /ws and waits for the
// final frame of that request.
func (testCtx *TestContext) iSendTheWebSocketMessage(message *godog.DocString) error {
	if testCtx.HTTPTestServer == nil {
		return errors.New("server is not running")
	}

	wsURL := "ws" + strings.TrimPrefix(testCtx.HTTPTestServer.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(message.Content)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read reply: %w", err)
		}
		var frame struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("invalid reply frame: %w", err)
		}
		if frame.Status == "processing" {
			continue
		}
		testCtx.LastHTTPResponse = string(data)
		return nil
	}
}

// RegisterServerSteps registers all server step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the printkit server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the printkit server is running with a limit of (\d+) requests per minute$`, testCtx.theServerIsRunningWithRateLimit)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I GET "([^"]*)" (\d+) times$`, testCtx.iGETTimes)
	sc.Step(`^I POST to "([^"]*)" with JSON:$`, testCtx.iPOSTWithJSON)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
	sc.Step(`^I send the WebSocket message:$`, testCtx.iSendTheWebSocketMessage)
}
