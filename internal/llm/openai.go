package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
)

const (
	// DefaultModel answers repository queries. Overridable via OPENAI_MODEL.
	DefaultModel = openai.ChatModelGPT4o

	// DefaultCallTimeout is the hard per-call deadline. Exceeding it yields
	// Timeout, distinct from the provider's own rate-limit signal.
	DefaultCallTimeout = 90 * time.Second

	// DefaultMaxAttempts bounds retries of transient failures.
	DefaultMaxAttempts = 3
)

// OpenAIGateway is the production Gateway over the OpenAI chat API.
type OpenAIGateway struct {
	client      *openai.Client
	model       openai.ChatModel
	timeout     time.Duration
	maxAttempts int
}

// NewOpenAIGateway creates a gateway reading OPENAI_API_KEY from the
// environment. OPENAI_MODEL selects the chat model, defaulting to GPT-4o.
func NewOpenAIGateway() (*OpenAIGateway, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go reads OPENAI_API_KEY from the environment itself.
	client := openai.NewClient()

	model := openai.ChatModel(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGateway{
		client:      &client,
		model:       model,
		timeout:     DefaultCallTimeout,
		maxAttempts: DefaultMaxAttempts,
	}, nil
}

// Complete invokes the chat model once, retrying transient failures with
// exponential backoff. InvalidRequest failures surface immediately.
func (g *OpenAIGateway) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := buildMessages(req)

	var text string
	operation := func() error {
		resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: messages,
			Model:    g.model,
		})
		if err != nil {
			mapped := classifyError(err)
			if apperr.KindOf(mapped).Transient() {
				return mapped
			}
			return backoff.Permanent(mapped)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(apperr.New(apperr.KindUpstreamUnavailable, "model returned no choices"))
		}
		text = normalize(resp.Choices[0].Message.Content)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.maxAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && apperr.KindOf(err) == apperr.KindUnknown {
			return "", apperr.Wrap(apperr.KindTimeout, "completion deadline exceeded", err)
		}
		return "", err
	}
	return text, nil
}

// buildMessages lays out the prompt: system instructions, prior turns,
// then one user message carrying the assembled context and the question.
func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(RenderUserPrompt(req.Context, req.Query)))
	return messages
}

// RenderUserPrompt joins assembled context and the user's question into
// the final user message.
func RenderUserPrompt(contextText, query string) string {
	if contextText == "" {
		return query
	}
	return fmt.Sprintf("Repository context:\n%s\n\nUser question:\n%s", contextText, query)
}

// classifyError maps an openai-go error into the shared taxonomy.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, "completion timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return apperr.Wrap(apperr.KindRateLimited, "model rate limited", err)
		case 400, 404, 422:
			return apperr.Wrap(apperr.KindInvalidRequest, "model rejected the request", err)
		}
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, "model call failed", err)
}

// normalize strips provider wrapping down to plain text.
func normalize(content string) string {
	return strings.TrimSpace(content)
}
