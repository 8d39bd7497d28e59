// Package backend talks to the external prediction/explanation backend that drives the
// experiment: it hands out datapoints, stores predictions and answers chat messages.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xaistudy/internal"
	"xaistudy/internal/errors"
	"xaistudy/internal/metrics"
)

// Session defaults used when the caller leaves them empty
const (
	DefaultStudyGroup = "A"
	DefaultKGSID      = "test"
)

// Config configures the backend client
type Config struct {
	BaseURL string
	// HTTPClient defaults to a client without timeout; requests end with their context.
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *internal.Logger
}

// Client builds per-participant sessions against one backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *internal.Logger
}

// NewClient creates a backend client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		logger:     logger.WithField("component", "backend"),
	}
}

// Session binds the backend operations to one participant
type Session struct {
	client      *Client
	UserID      string
	StudyGroup  string
	KGSID       string
	MLKnowledge string
}

// ForSession returns the bound operations for one participant
func (c *Client) ForSession(userID, studyGroup, kgsID string) *Session {
	if studyGroup == "" {
		studyGroup = DefaultStudyGroup
	}
	if kgsID == "" {
		kgsID = DefaultKGSID
	}
	return &Session{
		client:     c,
		UserID:     userID,
		StudyGroup: studyGroup,
		KGSID:      kgsID,
	}
}

// WithMLKnowledge returns a copy of the session that reports the participant's self-rated
// ML knowledge on Init
func (s *Session) WithMLKnowledge(level string) *Session {
	clone := *s
	clone.MLKnowledge = level
	return &clone
}

func (s *Session) query(extra ...string) url.Values {
	q := url.Values{}
	q.Set("user_id", s.UserID)
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q
}

// Init starts the experiment for the participant
func (s *Session) Init(ctx context.Context) (*http.Response, error) {
	q := s.query("study_group", s.StudyGroup)
	if s.MLKnowledge != "" {
		q.Set("ml_knowledge", s.MLKnowledge)
	}
	return s.client.do(ctx, "init", http.MethodGet, "init", q, nil, "")
}

// GetUserCorrectness fetches how many predictions the participant got right
func (s *Session) GetUserCorrectness(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_user_correctness", http.MethodGet, "get_user_correctness", s.query(), nil, "")
}

// GetProceedingOkay asks whether the participant may move on to the next phase
func (s *Session) GetProceedingOkay(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_proceeding_okay", http.MethodGet, "get_proceeding_okay", s.query(), nil, "")
}

// Finish ends the experiment and lets the backend drop the participant's state
func (s *Session) Finish(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "finish", http.MethodDelete, "finish", s.query(), nil, "")
}

// GetTrainDatapoint fetches the next datapoint of the training phase
func (s *Session) GetTrainDatapoint(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_train_datapoint", http.MethodGet, "get_train_datapoint", s.query(), nil, "")
}

// GetTestDatapoint fetches the next datapoint of the testing phase
func (s *Session) GetTestDatapoint(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_test_datapoint", http.MethodGet, "get_test_datapoint", s.query(), nil, "")
}

// GetProductionDatapoint fetches a datapoint from the configured knowledge graph
func (s *Session) GetProductionDatapoint(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_production_datapoint", http.MethodGet, "get_production_datapoint", s.query("kgs_id", s.KGSID), nil, "")
}

// GetFinalTestDatapoint fetches the next datapoint of the final test
func (s *Session) GetFinalTestDatapoint(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_final_test_datapoint", http.MethodGet, "get_final_test_datapoint", s.query(), nil, "")
}

// GetIntroTestDatapoint fetches the next datapoint of the introduction test
func (s *Session) GetIntroTestDatapoint(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_intro_test_datapoint", http.MethodGet, "get_intro_test_datapoint", s.query(), nil, "")
}

// GetTestingQuestions fetches the question catalogue for the chat
func (s *Session) GetTestingQuestions(ctx context.Context) (*http.Response, error) {
	return s.client.do(ctx, "get_testing_questions", http.MethodGet, "get_testing_questions", s.query(), nil, "")
}

// GetQuestionSelectionResponse answers a question picked from the catalogue
func (s *Session) GetQuestionSelectionResponse(ctx context.Context, question, feature string) (*http.Response, error) {
	body := map[string]string{"question": question, "feature": feature}
	return s.client.do(ctx, "get_response_clicked", http.MethodPost, "get_response_clicked", s.query(), body, "")
}

// GetUserMessageResponse answers a free-text chat message in one piece
func (s *Session) GetUserMessageResponse(ctx context.Context, message string) (*http.Response, error) {
	body := map[string]string{"message": message}
	return s.client.do(ctx, "get_response_nl", http.MethodPost, "get_response_nl", s.query(), body, "")
}

// SetUserPrediction stores the participant's prediction for the current datapoint.
// datapointCount is sent along when it is not negative.
func (s *Session) SetUserPrediction(ctx context.Context, prediction string, datapointCount int) (*http.Response, error) {
	q := s.query()
	if datapointCount >= 0 {
		q.Set("datapoint_count", strconv.Itoa(datapointCount))
	}
	body := map[string]string{"user_prediction": prediction}
	return s.client.do(ctx, "set_user_prediction", http.MethodPost, "set_user_prediction", q, body, "")
}

// StreamUserMessageResponse sends a chat message and calls fn once for every streamed
// chunk until the backend closes the stream. Malformed chunks are logged and skipped.
func (s *Session) StreamUserMessageResponse(ctx context.Context, message string, fn func(json.RawMessage) error) error {
	body := map[string]string{"message": message}
	resp, err := s.client.do(ctx, "get_response_nl_stream", http.MethodPost, "get_response_nl_stream", s.query(), body, "text/event-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return errors.ExternalServiceError("backend", fmt.Errorf("stream http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	parser := NewStreamParser(fn, func(line string, err error) {
		s.client.logger.WithField("user_id", s.UserID).Warn("[Backend] skipping malformed stream chunk %q: %v", line, err)
		s.client.metrics.MalformedChunk()
	})
	return parser.Consume(resp.Body)
}

// do performs a single request. Non-2xx responses are returned as they are; only transport
// failures become errors.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body interface{}, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", operation, err)
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ObserveBackend(operation, 0, err, duration)
		c.logger.Error("[Backend] %s %s failed: %v", method, operation, err)
		return nil, errors.ExternalServiceError("backend", err)
	}
	c.metrics.ObserveBackend(operation, resp.StatusCode, nil, duration)
	c.logger.Debug("[Backend] %s %s -> %d (%s)", method, operation, resp.StatusCode, duration)
	return resp, nil
}
