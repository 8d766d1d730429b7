package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cartscope/advisor-cli/internal/config"
	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/trace"
	"github.com/cartscope/advisor-cli/pkg/anthropic"
)

// ClaudeCapabilities bundles the LLM-backed capability implementations around
// a single Anthropic client.
type ClaudeCapabilities struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
}

// NewClaudeCapabilities wires the Anthropic client into the Identify,
// Extract, Assess, and Narrate capabilities.
func NewClaudeCapabilities(client anthropic.Client, cfg config.AnthropicConfig) *ClaudeCapabilities {
	return &ClaudeCapabilities{client: client, cfg: cfg}
}

const identifySystem = `You identify consumer products from screenshots and short text queries.
Given the input, name the single primary product as precisely as possible.
Return a JSON object:
{"canonical_name": "Brand Model Name", "context": "any visible pricing or store context", "detected_objects": ["..."], "brand": "...", "category": "..."}`

func (c *ClaudeCapabilities) Identify(ctx context.Context, input model.AnalysisInput) (model.ProductIdentity, error) {
	msg := anthropic.Message{Role: "user", Content: input.Query}
	if input.ImageBase64 != "" {
		media := input.ImageMedia
		if media == "" {
			media = "image/jpeg"
		}
		if msg.Content == "" {
			msg.Content = "Identify the primary product shown."
		}
		msg.Image = &anthropic.ImageAttachment{MediaType: media, Data: input.ImageBase64}
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.VisionModel,
		MaxTokens: 1024,
		System:    identifySystem,
		Messages:  []anthropic.Message{msg},
	})
	if err != nil {
		return model.ProductIdentity{}, model.NewProviderError("anthropic", err)
	}
	resp.Usage.LogCost(c.cfg.VisionModel, "identify")
	trace.FromContext(ctx).Addf("anthropic", "identify model=%s in=%d out=%d",
		c.cfg.VisionModel, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var identity model.ProductIdentity
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &identity); err != nil {
		return model.ProductIdentity{}, &model.ParseError{What: "product identity", Err: err}
	}
	return identity, nil
}

func (c *ClaudeCapabilities) ExtractCandidates(ctx context.Context, product, strategy string, results []SearchResult) ([]CandidateProposal, error) {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Content)
	}

	prompt := fmt.Sprintf(`You are a market scout.
Product: %s
Goal: find the 3 best "%s" products.

Search context:
%s
Return a strict JSON list of objects with keys "name" and "reason".
Example: [{"name": "Competitor X", "reason": "Better battery life"}]`, product, strategy, b.String())

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.ReasoningModel,
		MaxTokens:   1024,
		Temperature: floatPtr(0.1),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, model.NewProviderError("anthropic", err)
	}
	resp.Usage.LogCost(c.cfg.ReasoningModel, "scout_extract")
	trace.FromContext(ctx).Addf("anthropic", "scout_extract model=%s in=%d out=%d",
		c.cfg.ReasoningModel, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var proposals []CandidateProposal
	if err := json.Unmarshal([]byte(cleanJSONArray(resp.Text())), &proposals); err != nil {
		return nil, &model.ParseError{What: "candidate list", Err: err}
	}
	return proposals, nil
}

const critiqueSystem = `You are a cynical, skeptical shopping assistant. Your job is to find flaws, fake reviews, and pricing tricks.`

func (c *ClaudeCapabilities) AssessRisk(ctx context.Context, subject string, research ResearchData) (model.RiskReport, error) {
	researchJSON, err := json.Marshal(research)
	if err != nil {
		return model.RiskReport{}, &model.ParseError{What: "research data", Err: err}
	}

	prompt := fmt.Sprintf(`Analyze this research data for "%s":
%s

Return a JSON object:
{"trust_score": 0-10, "sentiment_score": -1 to 1, "eco_score": 0-1, "eco_notes": "...", "summary": "...", "verdict": "..."}`,
		subject, string(researchJSON))

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.ReasoningModel,
		MaxTokens: 1024,
		System:    critiqueSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return model.RiskReport{}, model.NewProviderError("anthropic", err)
	}
	resp.Usage.LogCost(c.cfg.ReasoningModel, "critique")
	trace.FromContext(ctx).Addf("anthropic", "critique model=%s in=%d out=%d",
		c.cfg.ReasoningModel, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var report model.RiskReport
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &report); err != nil {
		return model.RiskReport{}, &model.ParseError{What: "risk report", Err: err}
	}
	report.Subject = subject
	return report, nil
}

const narrateSystem = `You are a friendly, helpful shopping assistant. Translate technical analysis into a warm, specific recommendation summary. Reference concrete pros and cons.`

func (c *ClaudeCapabilities) RenderNarrative(ctx context.Context, identity model.ProductIdentity, ranked *model.RankedResult) (model.Payload, error) {
	payload := AssemblePayload(identity, ranked)

	rankedJSON, err := json.Marshal(payload)
	if err != nil {
		return model.Payload{}, &model.ParseError{What: "ranked result", Err: err}
	}

	prompt := fmt.Sprintf(`Analysis data:
%s

Write a "summary" field that sounds human and helpful. Return a JSON object:
{"outcome": "highly_recommended" or "consider_alternatives", "summary": "Friendly text..."}`, string(rankedJSON))

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.NarrativeModel,
		MaxTokens: 1024,
		System:    narrateSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return model.Payload{}, model.NewProviderError("anthropic", err)
	}
	resp.Usage.LogCost(c.cfg.NarrativeModel, "finalize")
	trace.FromContext(ctx).Addf("anthropic", "finalize model=%s in=%d out=%d",
		c.cfg.NarrativeModel, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var narrative struct {
		Outcome string `json:"outcome"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &narrative); err != nil {
		return model.Payload{}, &model.ParseError{What: "narrative", Err: err}
	}

	if narrative.Outcome != "" {
		payload.Outcome = narrative.Outcome
	}
	if narrative.Summary != "" {
		payload.Summary = narrative.Summary
	}
	return payload, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or other wrapping.
func cleanJSON(text string) string {
	text = stripFences(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// cleanJSONArray extracts a JSON array from possibly fenced text.
func cleanJSONArray(text string) string {
	text = stripFences(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return text
}

func floatPtr(f float64) *float64 { return &f }
