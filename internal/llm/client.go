package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/circuitbreaker"
	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/retry"
)

// maxEmbeddingChars bounds embedding inputs; the provider rejects longer text.
const maxEmbeddingChars = 8000

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			logger.Debug("LLM completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if len(text) > maxEmbeddingChars {
		text = text[:maxEmbeddingChars]
	}

	var embedding []float64

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)

			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}

			embedding = make([]float64, len(resp.Data[0].Embedding))
			for i, v := range resp.Data[0].Embedding {
				embedding[i] = float64(v)
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	metrics.EmbeddingsGenerated.WithLabelValues("single").Inc()
	return embedding, nil
}

func (c *Client) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	input := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > maxEmbeddingChars {
			t = t[:maxEmbeddingChars]
		}
		input[i] = t
	}

	var embeddings [][]float64

	batchSize := 100
	for i := 0; i < len(input); i += batchSize {
		end := i + batchSize
		if end > len(input) {
			end = len(input)
		}

		batch := input[i:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)

				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float64, len(data.Embedding))
					for j, v := range data.Embedding {
						embedding[j] = float64(v)
					}
					embeddings = append(embeddings, embedding)
				}

				return nil
			})
		})

		if err != nil {
			return nil, err
		}
	}

	metrics.EmbeddingsGenerated.WithLabelValues("batch").Add(float64(len(embeddings)))
	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// ExtractContext asks the model to describe a text's topic, domain, tone and
// format. The raw response is returned for the caller to parse; callers must
// handle non-JSON output.
func (c *Client) ExtractContext(ctx context.Context, text string) (string, error) {
	systemPrompt := "You are a text analysis expert. Extract key contextual information and respond only in valid JSON format."

	snippet := text
	suffix := ""
	if len(snippet) > 500 {
		snippet = snippet[:500]
		suffix = "..."
	}

	userPrompt := fmt.Sprintf(`Analyze this text and extract context:

%s%s

Return JSON with:
- topic: main subject
- domain: field (science/politics/literature/business/etc)
- tone: author's tone (objective/critical/optimistic/etc)
- text_type: format (article/essay/report/story/etc)
- context_summary: brief summary for comprehension analysis`, snippet, suffix)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.2,
		MaxTokens:    300,
	})

	if err != nil {
		return "", fmt.Errorf("failed to extract context: %w", err)
	}

	return resp.Content, nil
}

// DetailedFeedback requests a structured comprehension critique grounded on
// the worst-scoring segments. Returns the raw model response.
func (c *Client) DetailedFeedback(ctx context.Context, originalText, userUnderstanding string, overallSimilarity float64, missedSegments []string) (string, error) {
	systemPrompt := "You are a reading comprehension expert. Analyze user understanding and provide actionable feedback in valid JSON format only."

	snippet := originalText
	suffix := ""
	if len(snippet) > 400 {
		snippet = snippet[:400]
		suffix = "..."
	}

	userPrompt := fmt.Sprintf(`Analyze this comprehension attempt:

Original: %s%s

User understanding: %s

Similarity score: %.2f
Missed segments: %s

Provide JSON with:
- misunderstandings: list of specific gaps
- cognitive_level: current level (remember/understand/apply/analyze/evaluate/create)
- actionable_suggestions: 3 specific improvement tips
- error_type: main issue (main_idea/evidence/details/attitude/logic/inference/evaluation)
- bloom_taxonomy: Bloom's level`, snippet, suffix, userUnderstanding, overallSimilarity, strings.Join(missedSegments, " | "))

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.2,
		MaxTokens:    500,
	})

	if err != nil {
		return "", fmt.Errorf("failed to get detailed feedback: %w", err)
	}

	logger.Info("Detailed feedback received", zap.Int("response_length", len(resp.Content)))

	return resp.Content, nil
}

// GenerateSynonyms requests up to five progressively simpler synonyms for a
// word, optionally constrained by surrounding context. Returns the raw
// response; the words service owns parsing.
func (c *Client) GenerateSynonyms(ctx context.Context, word, wordContext, language string) (string, error) {
	var userPrompt string
	if wordContext != "" {
		userPrompt = fmt.Sprintf(`Word: "%s"
Context: "%s"

Generate 5 synonyms from simple to very simple and common. Must fit the context. Output language: %s.
Return only JSON array: ["synonym1", "synonym2", "synonym3", "synonym4", "synonym5"]`, word, wordContext, strings.ToUpper(language))
	} else {
		userPrompt = fmt.Sprintf(`Word: "%s"

Generate 5 synonyms from simple to very simple and common. Output language: %s.
Return only JSON array: ["synonym1", "synonym2", "synonym3", "synonym4", "synonym5"]`, word, strings.ToUpper(language))
	}

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: "You are a vocabulary simplification assistant.",
		UserPrompt:   userPrompt,
		Temperature:  0.1,
		MaxTokens:    150,
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate synonyms: %w", err)
	}

	return resp.Content, nil
}
