// Package translate turns article titles and summaries into the target
// reading language. The free Google Translate endpoint is tried first, an
// OpenAI fallback kicks in when a key is configured. Failure is soft: the
// caller keeps the original text.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alpenbrief/alpnews/internal/cache"
	"github.com/alpenbrief/alpnews/internal/logger"
	"github.com/alpenbrief/alpnews/internal/retry"
)

const (
	googleEndpoint = "https://translate.googleapis.com/translate_a/single"
	maxInputChars  = 4000
	memoTTL        = 24 * time.Hour
)

type Translator struct {
	client    *http.Client
	openAIKey string
	retryCfg  retry.Config
	memo      *cache.Cache
}

func New(openAIKey string, timeout time.Duration, retryCfg retry.Config) *Translator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Translator{
		client:    &http.Client{Timeout: timeout},
		openAIKey: openAIKey,
		retryCfg:  retryCfg,
		memo:      cache.New(),
	}
}

// Translate converts text from one language to another. Identical inputs
// within the memo TTL are served from cache to spare the endpoints.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || from == to {
		return text, nil
	}
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	key := cache.Key(text, from, to)
	if cached, ok := t.memo.Get(key); ok {
		return cached, nil
	}

	var result string
	err := retry.Do(ctx, t.retryCfg, func() error {
		var gErr error
		result, gErr = t.googleTranslate(ctx, text, from, to)
		return gErr
	})
	if err == nil && result != "" && result != text {
		t.memo.Set(key, result, memoTTL)
		return result, nil
	}
	logger.Debug("google translate failed", "from", from, "to", to, "error", err)

	if t.openAIKey != "" {
		result, aiErr := t.openAITranslate(ctx, text, from, to)
		if aiErr == nil && result != "" {
			t.memo.Set(key, result, memoTTL)
			return result, nil
		}
		logger.Debug("openai translate failed", "from", from, "to", to, "error", aiErr)
	}

	if err == nil {
		err = errors.New("translation produced no output")
	}
	return "", err
}

func (t *Translator) googleTranslate(ctx context.Context, text, from, to string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse unpacks the endpoint's nested-array answer: the first
// element holds segments whose first field is the translated chunk.
func parseGoogleResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty translate response")
	}

	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected translate response format")
	}

	var result strings.Builder
	for _, seg := range segments {
		if parts, ok := seg.([]interface{}); ok && len(parts) > 0 {
			if chunk, ok := parts[0].(string); ok {
				result.WriteString(chunk)
			}
		}
	}
	if result.Len() == 0 {
		return "", errors.New("no translation segments in response")
	}
	return result.String(), nil
}

var languageNames = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"it": "Italian",
}

func (t *Translator) openAITranslate(ctx context.Context, text, from, to string) (string, error) {
	client := openai.NewClient(t.openAIKey)

	sourceLang := languageNames[from]
	if sourceLang == "" {
		sourceLang = from
	}
	targetLang := languageNames[to]
	if targetLang == "" {
		targetLang = to
	}

	prompt := fmt.Sprintf(`Translate the following %s news text to %s.
Keep the meaning, tone and journalistic style of the original.
Reply with the translation only, no comments.

%s`, sourceLang, targetLang, text)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
