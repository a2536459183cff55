package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/pkg/textutil"
)

type Config struct {
	MinOriginalWords    int
	MaxTextLength       int
	MaxWordLength       int
	MaxWordContextChars int
	MaxUserIDLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware does request-shape validation before handlers run. Semantic
// checks stay in the handlers; this layer only rejects obviously malformed
// payloads.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MinOriginalWords == 0 {
		cfg.MinOriginalWords = 10
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 100 * 1024
	}
	if cfg.MaxWordLength == 0 {
		cfg.MaxWordLength = 25
	}
	if cfg.MaxWordContextChars == 0 {
		cfg.MaxWordContextChars = 300
	}
	if cfg.MaxUserIDLength == 0 {
		cfg.MaxUserIDLength = 200
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/comprehension") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			originalText, ok := req["original_text"].(string)
			if !ok || strings.TrimSpace(originalText) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "original_text is required and must be a string",
				})
			}

			userUnderstanding, ok := req["user_understanding"].(string)
			if !ok || strings.TrimSpace(userUnderstanding) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "user_understanding is required and must be a string",
				})
			}

			if len(originalText) > cfg.MaxTextLength || len(userUnderstanding) > cfg.MaxTextLength {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Text exceeds maximum length",
				})
			}

			if textutil.WordCount(originalText) < cfg.MinOriginalWords {
				cfg.Logger.Debug("Original text too short for analysis",
					zap.String("ip", c.IP()),
					zap.Int("words", textutil.WordCount(originalText)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "original_text must contain at least 10 words",
				})
			}
		}

		if strings.Contains(path, "/api/v1/words/simplify") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			word, ok := req["word"].(string)
			if !ok || strings.TrimSpace(word) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "word is required and must be a string",
				})
			}
			if len(word) > cfg.MaxWordLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "word exceeds maximum length",
				})
			}

			if wordContext, ok := req["context"].(string); ok && len(wordContext) > cfg.MaxWordContextChars {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "context exceeds maximum length",
				})
			}
		}

		if strings.Contains(path, "/api/v1/profile") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if userID, ok := req["user_id"].(string); ok && len(userID) > cfg.MaxUserIDLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "user_id exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}
