package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Category   string
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the exam service; the session lives in its cookie jar.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type questionItem struct {
	ID      int      `json:"id"`
	Text    string   `json:"question"`
	Options []option `json:"options"`
}

type feedbackItem struct {
	ChosenOptionKey  string `json:"chosen_option_key"`
	ChosenOptionText string `json:"chosen_option_text"`
	IsCorrect        bool   `json:"is_correct"`
	CorrectOptionKey string `json:"correct_option_key"`
	Explanation      string `json:"explanation"`
}

type cardResponse struct {
	Exam     string        `json:"exam"`
	Number   int           `json:"number"`
	Total    int           `json:"total"`
	Question questionItem  `json:"question"`
	Feedback *feedbackItem `json:"feedback,omitempty"`
}

type nextResponse struct {
	Completed bool          `json:"completed"`
	Message   string        `json:"message"`
	Card      *cardResponse `json:"card,omitempty"`
}

type examsResponse struct {
	Exams []string `json:"exams"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) ListExams(ctx context.Context) ([]string, error) {
	var payload examsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/exams", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Exams, nil
}

func (c *HTTPClient) StartExam(ctx context.Context, exam string) (cardResponse, error) {
	if strings.TrimSpace(exam) == "" {
		return cardResponse{}, errors.New("exam is required")
	}

	var payload cardResponse
	path := "/exams/" + url.PathEscape(exam) + "/start"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return cardResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) CurrentCard(ctx context.Context) (cardResponse, error) {
	var payload cardResponse
	if err := c.doJSON(ctx, http.MethodGet, "/session/question", nil, &payload); err != nil {
		return cardResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, answer string) (cardResponse, error) {
	var payload cardResponse
	if err := c.doJSON(ctx, http.MethodPost, "/session/answer", answerRequest{Answer: answer}, &payload); err != nil {
		return cardResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) Next(ctx context.Context) (nextResponse, error) {
	var payload nextResponse
	if err := c.doJSON(ctx, http.MethodPost, "/session/next", nil, &payload); err != nil {
		return nextResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/session", nil, nil)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
			apiErr.Category = payload.Category
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
