package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"historydash/app/config"
	"log/slog"
	"strings"
	"time"

	_ "embed"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed extract_prompt.txt
var promptTemplate string

const maxCompletionTokens = 8192

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrInvalidText      = errors.New("invalid input text")
	ErrTruncated        = errors.New("model response truncated")
)

// Finish reasons that mean the answer hit the token limit (OpenAI and Gemini spellings).
var truncatedStopReasons = map[string]bool{
	"length":     true,
	"max_tokens": true,
}

type Service struct {
	cfg    *config.Config
	model  llms.Model
	prompt string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	model := do.MustInvoke[*openai.LLM](di)

	return NewWithModel(cfg, model)
}

func NewWithModel(cfg *config.Config, model llms.Model) (*Service, error) {
	schema, err := json.MarshalIndent(generateSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response schema: %w", err)
	}

	return &Service{
		cfg:    cfg,
		model:  model,
		prompt: strings.ReplaceAll(promptTemplate, "{schema}", string(schema)),
	}, nil
}

func generateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return reflector.Reflect(&Batch{})
}

// Extract asks the model for the entities mentioned in text. Every failure past input
// validation is reported as ErrExtractionFailed.
func (s *Service) Extract(ctx context.Context, text string) (*Batch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidText)
	}
	if len(text) > s.cfg.Extract.MaxTextLength {
		return nil, fmt.Errorf("%w: text is too long (%d > %d)", ErrInvalidText, len(text), s.cfg.Extract.MaxTextLength)
	}

	prompt := strings.ReplaceAll(s.prompt, "{text}", text)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Extract.Timeout)
	defer cancel()

	start := time.Now()

	completion, err := s.generate(ctx, prompt)
	if err != nil {
		slog.Warn("Extraction call failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	batch, err := Parse(completion)
	if err != nil {
		slog.Warn("Extraction response rejected", "error", err, "response", completion)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	slog.Info("Extraction finished",
		"characters", len(batch.Characters),
		"events", len(batch.Events),
		"terms", len(batch.Terms),
		"duration", time.Since(start))

	return batch, nil
}

// generate returns the text of the first choice and fails when the model stopped
// because it ran out of tokens, since the answer is then cut off.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(s.cfg.LLM.Temperature),
		llms.WithMaxTokens(maxCompletionTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response")
	}

	choice := resp.Choices[0]
	if truncatedStopReasons[strings.ToLower(choice.StopReason)] {
		return "", fmt.Errorf("%w: stop reason %q", ErrTruncated, choice.StopReason)
	}

	return choice.Content, nil
}

type rawBatch struct {
	Characters *[]Entity `json:"characters"`
	Events     *[]Entity `json:"events"`
	Terms      *[]Entity `json:"terms"`
}

// Parse decodes a model answer, tolerating code fences and chatter around the JSON object.
func Parse(response string) (*Batch, error) {
	cleaned := cleanResponse(response)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawBatch
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("response does not match schema: %w", err)
		}

		if err = checkComplete(cleaned); err != nil {
			return nil, fmt.Errorf("refusing to repair response: %w", err)
		}

		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, fmt.Errorf("json repair failed: %w", repairErr)
		}

		raw = rawBatch{}
		if err = json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("unmarshal failed after repair: %w", err)
		}
	}

	if raw.Characters == nil && raw.Events == nil && raw.Terms == nil {
		return nil, fmt.Errorf("response does not match schema: no characters, events or terms")
	}

	var batch Batch
	if raw.Characters != nil {
		batch.Characters = *raw.Characters
	}
	if raw.Events != nil {
		batch.Events = *raw.Events
	}
	if raw.Terms != nil {
		batch.Terms = *raw.Terms
	}

	return &batch, nil
}

// checkComplete reports whether every string, array and object opened in doc is
// closed. Repair is only allowed to fix local syntax, never to finish a document
// the model stopped writing halfway.
func checkComplete(doc string) error {
	var stack []byte
	inString, escaped := false, false

	for i := 0; i < len(doc); i++ {
		ch := doc[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			open := byte('{')
			if ch == ']' {
				open = '['
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return fmt.Errorf("unexpected %q at offset %d", ch, i)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if inString {
		return errors.New("unterminated string")
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d unclosed brackets", len(stack))
	}

	return nil
}

func cleanResponse(result string) string {
	result = strings.TrimSpace(result)
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	start := strings.IndexByte(result, '{')
	if start < 0 {
		return result
	}

	end := strings.LastIndexByte(result, '}')
	if end < start {
		return result[start:]
	}

	return result[start : end+1]
}
