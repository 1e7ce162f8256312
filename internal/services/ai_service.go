package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/dto"
)

var ErrAINotConfigured = errors.New("AI service not configured")

// --- chat completions wire types ---

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const damageSystemPrompt = `You are a campus facility damage inspector. Analyze the object in this image carefully.
Return your analysis as a JSON object with these exact fields:
{"detectedObject":"...", "damageType":"...", "severity":"low|medium|high|critical", "repairRecommendation":"...", "confidence":0.0-1.0}
Return ONLY the JSON object, no extra text.`

const assistantSystemPrompt = `You are the assistant of a campus facility-damage reporting service. Answer the user's question using the report statistics and recent report titles supplied in the context. Be concise and practical.`

// AIService talks to an OpenAI-compatible chat completions API. Calls are
// one-shot: no retries, and once dispatched they run to the client timeout.
type AIService struct {
	cfg    *config.Config
	client *http.Client
}

func NewAIService(cfg *config.Config) *AIService {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AIService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// DescribeImage asks the vision model for a free-text description. Upstream
// failures are returned verbatim, never replaced with a default.
func (s *AIService) DescribeImage(photoBase64, mimeType string) (string, error) {
	if s.cfg.AIAPIKey == "" {
		return "", ErrAINotConfigured
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	messages := []chatMessage{
		{Role: "user", Content: []chatContentPart{
			{Type: "text", Text: "Describe the campus facility damage visible in this photo in two or three sentences."},
			{Type: "image_url", ImageURL: &chatImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, photoBase64),
				Detail: "auto",
			}},
		}},
	}

	return s.chatCompletion(s.cfg.AIVisionModel, messages, 0.7, 500)
}

// DetectDamage runs the structured damage analysis over an image and decodes
// the result. The raw model text is returned alongside for auditing.
func (s *AIService) DetectDamage(photoBase64 string) (*dto.DamageAnalysis, string, error) {
	if s.cfg.AIAPIKey == "" {
		return nil, "", ErrAINotConfigured
	}

	messages := []chatMessage{
		{Role: "system", Content: damageSystemPrompt},
		{Role: "user", Content: []chatContentPart{
			{Type: "text", Text: "Analyze the damage in this photo and return the JSON analysis."},
			{Type: "image_url", ImageURL: &chatImageURL{
				URL:    "data:image/jpeg;base64," + photoBase64,
				Detail: "auto",
			}},
		}},
	}

	content, err := s.chatCompletion(s.cfg.AIVisionModel, messages, 0.3, 800)
	if err != nil {
		return nil, "", err
	}

	analysis, err := DecodeDamageAnalysis(content)
	if err != nil {
		return nil, content, err
	}
	return analysis, content, nil
}

// Chat is a stateless single-turn call; conversational memory is whatever
// the caller folded into promptContext.
func (s *AIService) Chat(promptContext string) (string, error) {
	if s.cfg.AIAPIKey == "" {
		return "", ErrAINotConfigured
	}

	messages := []chatMessage{
		{Role: "system", Content: assistantSystemPrompt},
		{Role: "user", Content: promptContext},
	}

	return s.chatCompletion(s.cfg.AIModel, messages, 0.7, 800)
}

// BuildChatContext folds the caller's aggregate counts, a handful of recent
// report titles and the question into one prompt string.
func BuildChatContext(counts *dto.StatusCounts, recentTitles []string, question string) string {
	var b strings.Builder
	b.WriteString("Report statistics: ")
	b.WriteString(fmt.Sprintf("total=%d, pending=%d, in_progress=%d, done=%d, rejected=%d.\n",
		counts.Total, counts.Pending, counts.InProgress, counts.Done, counts.Rejected))

	if len(recentTitles) > 0 {
		b.WriteString("Recent reports: ")
		b.WriteString(strings.Join(recentTitles, "; "))
		b.WriteString(".\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func (s *AIService) chatCompletion(model string, messages []chatMessage, temperature float64, maxTokens int) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.AIAPIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AIAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call AI API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read AI response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to decode AI response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no response from AI")
	}

	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		return v, nil
	default:
		contentBytes, err := json.Marshal(v)
		if err != nil {
			return "", errors.New("failed to extract content from AI response")
		}
		return string(contentBytes), nil
	}
}
