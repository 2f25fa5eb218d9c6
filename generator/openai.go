package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"postpilot/config"
	"postpilot/db/models"
)

// OpenAIClient implements Generator backed by OpenAI-compatible chat APIs.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.GeneratorConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GeneratePost asks the model for the three content variants as one JSON
// object. It picks a topic from the profile (or a stock fallback) and attaches
// a placeholder image URL for that topic.
func (c *OpenAIClient) GeneratePost(ctx context.Context, user *models.User) (*Bundle, error) {
	topic := pickTopic(user.Topics)

	prompt := fmt.Sprintf(
		`You are an intelligent social assistant for %s. Your purpose is to %s. Write in a %s tone.
Generate a social media post about %s as a JSON object with keys "micro" (X post, at most %d characters), "short" (LinkedIn post, at most %d characters) and "long" (full blog post in Markdown).
Respond with only the JSON object.`,
		user.Username, purposeOf(user), toneOf(user), topic,
		models.MicroMaxLen, models.ShortMaxLen,
	)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var bundle Bundle
	if err := json.Unmarshal([]byte(extractJSON(raw)), &bundle); err != nil {
		return nil, fmt.Errorf("malformed content bundle: %w", err)
	}
	bundle.ImageURL = placeholderImage(topic)

	return &bundle, nil
}

// GenerateReply drafts a short reply to a reader comment in the profile's tone.
func (c *OpenAIClient) GenerateReply(ctx context.Context, user *models.User, post *models.Post, replyContent string) (string, error) {
	prompt := fmt.Sprintf(
		`You are %s, replying to a comment on your post. Keep it short and in a %s tone, as if casually chatting with a friend.
The post began: %s
Reply to: %s`,
		user.Username, toneOf(user), firstLine(post.ContentMicro), replyContent,
	)

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("generator client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generator error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat response")
	}

	return parsed.Choices[0].Message.Content, nil
}

var stockTopics = []string{"technology", "artificial intelligence", "business", "productivity"}

func pickTopic(topics []string) string {
	if len(topics) == 0 {
		topics = stockTopics
	}
	return topics[rand.Intn(len(topics))]
}

func purposeOf(user *models.User) string {
	if user.Purpose == "" {
		return "share interesting content"
	}
	return user.Purpose
}

func toneOf(user *models.User) string {
	if user.Tone == models.ToneUnset {
		return models.ToneProfessional
	}
	return user.Tone
}

func placeholderImage(topic string) string {
	return "https://placehold.co/600x400/4285F4/FFFFFF/?text=" + url.QueryEscape(topic)
}

// extractJSON strips Markdown code fences some models wrap around JSON output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
