// Package llm provides SQL-aware text generation using langchaingo.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/l0l1/l0l1-go/internal/config"
	"github.com/l0l1/l0l1-go/internal/models"
)

// Model wraps a langchaingo LLM for SQL assistance.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	return response, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

const sqlSystemPrompt = "You are an expert SQL assistant. Be precise and follow the output instructions exactly."

// ExplainSQL generates a plain-language explanation of a query.
func (m *Model) ExplainSQL(ctx context.Context, query, schemaContext string) (string, error) {
	return m.GenerateWithSystem(ctx, sqlSystemPrompt, explainPrompt(query, schemaContext))
}

// CompleteSQL completes a partial query. The response is the completed
// SQL only, stripped of surrounding whitespace and code fences.
func (m *Model) CompleteSQL(ctx context.Context, partialQuery, schemaContext string, tableSuggestions []string) (string, error) {
	out, err := m.GenerateWithSystem(ctx, sqlSystemPrompt, completePrompt(partialQuery, schemaContext, tableSuggestions))
	if err != nil {
		return "", err
	}
	return stripCodeFences(out), nil
}

// CorrectSQL fixes a broken query, optionally guided by the error the
// database reported.
func (m *Model) CorrectSQL(ctx context.Context, query, errorMessage, schemaContext string) (string, error) {
	out, err := m.GenerateWithSystem(ctx, sqlSystemPrompt, correctPrompt(query, errorMessage, schemaContext))
	if err != nil {
		return "", err
	}
	return stripCodeFences(out), nil
}

// ValidateSQL analyzes a query and returns a structured report. An
// unparseable model response degrades to a medium-severity report
// rather than an error.
func (m *Model) ValidateSQL(ctx context.Context, query, schemaContext string) (*models.ValidationReport, error) {
	out, err := m.GenerateWithSystem(ctx, sqlSystemPrompt, validatePrompt(query, schemaContext))
	if err != nil {
		return nil, err
	}
	report := parseValidationReport(out)
	return &report, nil
}

func schemaSection(schemaContext string) string {
	if schemaContext == "" {
		return ""
	}
	return fmt.Sprintf("\n\nSchema context:\n%s", schemaContext)
}

func explainPrompt(query, schemaContext string) string {
	return fmt.Sprintf(`Explain the following SQL query in clear, concise language:

SQL Query:
%s%s

Please provide:
1. What the query does
2. Which tables/columns it uses
3. Any joins or complex operations
4. The expected result format`, query, schemaSection(schemaContext))
}

func completePrompt(partialQuery, schemaContext string, tableSuggestions []string) string {
	tables := ""
	if len(tableSuggestions) > 0 {
		tables = fmt.Sprintf("\n\nAvailable tables: %s", strings.Join(tableSuggestions, ", "))
	}
	return fmt.Sprintf(`Complete the following partial SQL query:

Partial Query:
%s%s%s

Please provide only the completed SQL query without explanations.`, partialQuery, schemaSection(schemaContext), tables)
}

func correctPrompt(query, errorMessage, schemaContext string) string {
	errSection := ""
	if errorMessage != "" {
		errSection = fmt.Sprintf("\n\nError message:\n%s", errorMessage)
	}
	return fmt.Sprintf(`Correct the following SQL query:

SQL Query:
%s%s%s

Please provide only the corrected SQL query without explanations.`, query, schemaSection(schemaContext), errSection)
}

func validatePrompt(query, schemaContext string) string {
	return fmt.Sprintf(`Analyze the following SQL query for potential issues:

SQL Query:
%s%s

Please respond in JSON format with:
{
  "is_valid": boolean,
  "issues": ["list of issues found"],
  "suggestions": ["list of improvement suggestions"],
  "severity": "low|medium|high"
}`, query, schemaSection(schemaContext))
}

// parseValidationReport decodes the model's JSON answer, tolerating
// markdown code fences around it.
func parseValidationReport(raw string) models.ValidationReport {
	var report models.ValidationReport
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &report); err != nil {
		return models.ValidationReport{
			IsValid:     false,
			Issues:      []string{"Could not parse validation response"},
			Suggestions: []string{},
			Severity:    "medium",
		}
	}
	if report.Severity == "" {
		report.Severity = "medium"
	}
	return report
}

// stripCodeFences removes a surrounding markdown code block, if any,
// and trims whitespace. Models wrap SQL and JSON in fences despite
// instructions not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (```sql, ```json)
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
