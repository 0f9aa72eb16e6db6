// Package oracle implements the language-model collaborator behind the
// pipeline.Oracle interface.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/pipeline"
)

// Config holds the model client settings.
type Config struct {
	APIKey string
	Model  string
}

// Client implements pipeline.Oracle over an OpenAI-compatible completion
// endpoint. All calls run at temperature 0.
type Client struct {
	model  llms.Model
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	llm, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &Client{model: llm, logger: logger}, nil
}

const classifyPrompt = `You are filtering job posting links for relevance.
The role keyword is: %q

Candidate links, one per line as "label -> url":
%s

Return a JSON array containing only the URLs of links that are job postings
matching the role keyword. Return the array and nothing else, no markdown
fences, no prose. Return [] if none match.`

// ClassifyLinks asks the model which candidate URLs are postings for the
// given role keyword.
func (c *Client) ClassifyLinks(ctx context.Context, keyword string, candidates []pipeline.CandidateLink) ([]string, error) {
	var sb strings.Builder
	for _, cand := range candidates {
		fmt.Fprintf(&sb, "%s -> %s\n", cand.Label, cand.URL)
	}
	prompt := fmt.Sprintf(classifyPrompt, keyword, sb.String())

	raw, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(0))
	if err != nil {
		metrics.ObserveOracleCall("classify", "error")
		return nil, fmt.Errorf("classify links completion: %w", err)
	}

	arr, ok := FirstArray(raw)
	if !ok {
		metrics.ObserveOracleCall("classify", "malformed")
		return nil, fmt.Errorf("no JSON array in classify response")
	}
	var urls []string
	if err := json.Unmarshal([]byte(arr), &urls); err != nil {
		metrics.ObserveOracleCall("classify", "malformed")
		return nil, fmt.Errorf("parse classify response: %w", err)
	}
	metrics.ObserveOracleCall("classify", "ok")
	c.logger.Debug("links classified",
		zap.String("keyword", keyword),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(urls)),
	)
	return urls, nil
}

const extractPrompt = `Extract Base Salary Range, Job Title, and Company Name
from the job posting text below. Ignore equity and benefits. Normalize
shorthand amounts: "150k" means 150000. If a salary bound cannot be found,
return 0 for it.

Return JSON matching exactly this schema, nothing else:
{
    "job_title": "String",
    "company": "String",
    "min": Number,
    "max": Number
}

Text: %s`

// ExtractFields asks the model for the fixed compensation schema.
func (c *Client) ExtractFields(ctx context.Context, text string) (pipeline.Extraction, error) {
	prompt := fmt.Sprintf(extractPrompt, text)

	raw, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(0))
	if err != nil {
		metrics.ObserveOracleCall("extract", "error")
		return pipeline.Extraction{}, fmt.Errorf("extract fields completion: %w", err)
	}

	obj, ok := FirstObject(raw)
	if !ok {
		metrics.ObserveOracleCall("extract", "malformed")
		return pipeline.Extraction{}, fmt.Errorf("no JSON object in extract response")
	}
	var parsed struct {
		JobTitle string      `json:"job_title"`
		Company  string      `json:"company"`
		Min      json.Number `json:"min"`
		Max      json.Number `json:"max"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		metrics.ObserveOracleCall("extract", "malformed")
		return pipeline.Extraction{}, fmt.Errorf("parse extract response: %w", err)
	}
	metrics.ObserveOracleCall("extract", "ok")
	return pipeline.Extraction{
		JobTitle: parsed.JobTitle,
		Company:  parsed.Company,
		Min:      numberToInt(parsed.Min),
		Max:      numberToInt(parsed.Max),
	}, nil
}

func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int(f)
}
