// Package ai wraps the completion and transcription backend behind small
// interfaces the services consume. The streaming client drives a chat
// completion in streaming mode, invoking a callback once per received text
// delta in arrival order, and distinguishes three terminal outcomes:
// success (with response identifier and token usage), cancellation
// (context.Canceled, no callback fires after it is observed), and timeout
// (ErrTimeout, distinct from generic failures so callers can surface a
// timeout-specific user message).
package ai

import (
	"context"
	"errors"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrTimeout indicates the completion backend exceeded the configured
// deadline before finishing the stream.
var ErrTimeout = errors.New("completion backend timed out")

// Chat roles accepted by the backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string
	Content string
}

// Usage carries the token totals reported by the backend.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Completion is the terminal result of a finished completion request.
type Completion struct {
	ResponseID string
	Usage      Usage
}

// Transcription is the result of an audio transcription call.
type Transcription struct {
	Text     string
	Duration float64 // seconds
}

// CompletionClient is the contract the services depend on. Implementations
// must invoke onDelta in arrival order and never after the context is
// cancelled.
type CompletionClient interface {
	StreamCompletion(ctx context.Context, model string, msgs []Message, onDelta func(text string)) (*Completion, error)
	Complete(ctx context.Context, model string, msgs []Message) (string, *Completion, error)
}

// Transcriber turns stored audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, mimeType string) (*Transcription, error)
}

// OpenAIClient implements CompletionClient and Transcriber against the
// OpenAI-compatible API.
type OpenAIClient struct {
	api             *openai.Client
	streamTimeout   time.Duration
	transcribeModel string
}

// NewOpenAIClient constructs a client. baseURL may be empty for the public
// endpoint; streamTimeout bounds a single streaming completion end to end.
func NewOpenAIClient(apiKey, baseURL, transcribeModel string, streamTimeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if streamTimeout <= 0 {
		streamTimeout = 90 * time.Second
	}
	if transcribeModel == "" {
		transcribeModel = openai.Whisper1
	}
	return &OpenAIClient{
		api:             openai.NewClientWithConfig(cfg),
		streamTimeout:   streamTimeout,
		transcribeModel: transcribeModel,
	}
}

// StreamCompletion drives a streaming chat completion. Each received delta
// is passed to onDelta immediately; the final response identifier and token
// usage are returned once the backend closes the stream.
//
// Outcome mapping:
//   - parent ctx cancelled  → context.Canceled (onDelta never fires after)
//   - deadline exceeded     → ErrTimeout
//   - anything else         → the raw backend error
func (c *OpenAIClient) StreamCompletion(ctx context.Context, model string, msgs []Message, onDelta func(text string)) (*Completion, error) {
	sctx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(msgs),
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}

	stream, err := c.api.CreateChatCompletionStream(sctx, req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer stream.Close()

	out := &Completion{}
	for {
		resp, rerr := stream.Recv()
		if errors.Is(rerr, io.EOF) {
			return out, nil
		}
		if rerr != nil {
			return nil, c.classify(ctx, rerr)
		}
		if resp.ID != "" {
			out.ResponseID = resp.ID
		}
		if resp.Usage != nil {
			out.Usage = Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		// The final usage-only chunk carries no choices.
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		// Cancellation check before the side effect: no callback after
		// the caller's context is done.
		if ctx.Err() != nil {
			return nil, context.Canceled
		}
		onDelta(delta)
	}
}

// Complete performs a synchronous (non-streaming) chat completion and
// returns the reply text alongside the completion metadata.
func (c *OpenAIClient) Complete(ctx context.Context, model string, msgs []Message) (string, *Completion, error) {
	sctx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(sctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(msgs),
	})
	if err != nil {
		return "", nil, c.classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, errors.New("completion backend returned no choices")
	}
	out := &Completion{
		ResponseID: resp.ID,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return resp.Choices[0].Message.Content, out, nil
}

// Transcribe runs Whisper transcription over a stored audio file.
func (c *OpenAIClient) Transcribe(ctx context.Context, filePath, mimeType string) (*Transcription, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, err
	}
	return &Transcription{Text: resp.Text, Duration: resp.Duration}, nil
}

// classify maps transport errors onto the package's terminal outcomes.
// Cancellation of the parent context wins over the local deadline so a
// client disconnect is never misreported as a backend timeout.
func (c *OpenAIClient) classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
