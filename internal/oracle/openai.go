package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var openaiTracer = otel.Tracer("occuhealth.internal.oracle.openai")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient completes requests against the OpenAI chat API.
type OpenAIClient struct {
	client  chatClient
	model   string
	timeout time.Duration
}

// NewOpenAIClient builds a client for the given API key and model.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("oracle: openai api key is required")
	}
	return newOpenAIClient(openai.NewClient(apiKey), model, timeout), nil
}

func newOpenAIClient(client chatClient, model string, timeout time.Duration) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{client: client, model: model, timeout: timeout}
}

// Complete sends a single system+user exchange and returns the trimmed text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := openaiTracer.Start(ctx, "oracle.openai.complete")
	defer span.End()
	span.SetAttributes(attribute.String("occuhealth.oracle.model", c.model))

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int(req.MaxTokens),
		Temperature: req.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		return Response{}, fmt.Errorf("oracle: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("oracle: openai returned no choices")
		span.RecordError(err)
		return Response{}, err
	}

	return Response{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
