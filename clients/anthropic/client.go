package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"convbackend/clients"
	"convbackend/utils"
)

const systemPrompt = "You convert Python Streamlit applications into other web frameworks. " +
	"Reply with a single JSON object and nothing else. " +
	"Every value in the object is the complete text of one file."

type nextJSOutput struct {
	NextJSCode string `json:"nextjsCode" validate:"required"`
}

type packageJSONOutput struct {
	PackageJSONContent string `json:"packageJsonContent" validate:"required"`
}

// AnthropicTransformer implements the clients.CodeTransformer interface on the Messages API
type AnthropicTransformer struct {
	apiKey    string
	model     string
	maxTokens int64
	opts      []option.RequestOption

	clientOnce sync.Once
	client     anthropic.Client
}

// NewAnthropicTransformer creates a transformer. The SDK client is built on first use.
func NewAnthropicTransformer(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicTransformer {
	return &AnthropicTransformer{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		opts:      opts,
	}
}

func (t *AnthropicTransformer) StreamlitToNextJS(ctx context.Context, streamlitCode string) (string, error) {
	prompt := "Convert this Streamlit app into a single Next.js App Router page written in TypeScript " +
		"for src/app/page.tsx. Keep all logic and UI in that one file, use React components styled with " +
		"Tailwind CSS, and start the file with 'use client'; when it uses React hooks.\n" +
		"Respond as {\"nextjsCode\": \"...\"}.\n\n" +
		"Streamlit code:\n" + streamlitCode

	var output nextJSOutput
	if err := t.completeJSON(ctx, "StreamlitToNextJS", prompt, &output); err != nil {
		return "", err
	}
	return output.NextJSCode, nil
}

func (t *AnthropicTransformer) RequirementsToPackageJSON(ctx context.Context, requirements string) (string, error) {
	prompt := "Translate this Python requirements.txt into the package.json of a Next.js app with the " +
		"equivalent JavaScript dependencies, including react, react-dom and next.\n" +
		"Respond as {\"packageJsonContent\": \"...\"} where the value is valid JSON text.\n\n" +
		"requirements.txt:\n" + requirements

	var output packageJSONOutput
	if err := t.completeJSON(ctx, "RequirementsToPackageJSON", prompt, &output); err != nil {
		return "", err
	}
	if !gjson.Valid(output.PackageJSONContent) {
		return "", fmt.Errorf("generated package.json is not valid JSON")
	}
	return output.PackageJSONContent, nil
}

func (t *AnthropicTransformer) StreamlitToReactFastAPI(
	ctx context.Context,
	streamlitCode, requirements string,
) (*clients.ReactFastAPIOutput, error) {
	prompt := "Split this Streamlit app into a React TypeScript frontend (App.tsx) and a FastAPI backend " +
		"(main.py). Also produce the frontend package.json and the backend requirements.txt.\n" +
		"Respond as {\"reactComponentCode\": \"...\", \"fastApiServerCode\": \"...\", " +
		"\"reactPackageJson\": \"...\", \"fastApiRequirementsTxt\": \"...\"}.\n\n" +
		"Streamlit code:\n" + streamlitCode + "\n\n" +
		"Streamlit requirements.txt:\n" + requirements

	var output clients.ReactFastAPIOutput
	if err := t.completeJSON(ctx, "StreamlitToReactFastAPI", prompt, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// completeJSON sends prompt and decodes the reply into out, validating required fields
func (t *AnthropicTransformer) completeJSON(ctx context.Context, operation, prompt string, out any) error {
	log.Ctx(ctx).Info().Str("operation", operation).Msg("📋 Starting to transform code")

	message, err := t.lazyClient().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: t.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to call model for %s: %w", operation, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	payload, err := extractJSONObject(text.String())
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	if err := utils.V().Struct(out); err != nil {
		return fmt.Errorf("invalid %s response: %w", operation, err)
	}

	log.Ctx(ctx).Info().Str("operation", operation).Msg("📋 Completed successfully - transformed code")
	return nil
}

func (t *AnthropicTransformer) lazyClient() *anthropic.Client {
	t.clientOnce.Do(func() {
		opts := append([]option.RequestOption{option.WithAPIKey(t.apiKey)}, t.opts...)
		t.client = anthropic.NewClient(opts...)
	})
	return &t.client
}

// extractJSONObject trims any prose or code fences around the outermost JSON object
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("response is not valid JSON")
	}
	return candidate, nil
}
