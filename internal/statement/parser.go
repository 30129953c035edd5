// Package statement turns bank statement PDFs into candidate transactions via
// an external AI parsing service. The service is opaque: it may fail or
// return nothing, and both degrade to "nothing to import".
package statement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"bilancio/internal/core"
)

const DefaultModel = "gemini-2.0-flash"

// Parser extracts candidate transactions from a statement document.
type Parser interface {
	Parse(ctx context.Context, pdf []byte) ([]Candidate, error)
}

// AIParser calls a Gemini model with the PDF inline and decodes the strict
// JSON array it is instructed to return.
type AIParser struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewAIParser(ctx context.Context, apiKey, model string, timeout time.Duration) (*AIParser, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &AIParser{client: client, model: model, timeout: timeout}, nil
}

const parsePrompt = "You are a financial statement parser for bank PDF statements.\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the attached statement.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the raw transaction text\n" +
	"- \"amount\": number (positive for charges, negative for credits/refunds)\n\n" +
	"Rules:\n" +
	"- If the statement has separate \"paid out\" / \"paid in\" columns, convert to a single signed \"amount\".\n" +
	"- Keep the statement's own ordering.\n" +
	"- Return ONLY valid raw JSON.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Output must begin with \"[\" and end with \"]\".\n"

func (p *AIParser) Parse(ctx context.Context, pdf []byte) ([]Candidate, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: parsePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: generate content: %v", core.ErrExternalService, err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, nil
	}

	clean := CleanModelJSON(rawText)
	candidates, err := DecodeCandidates([]byte(clean))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed model output: %v", core.ErrExternalService, err)
	}
	return candidates, nil
}

// CleanModelJSON strips markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost array when extra prose survived.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
