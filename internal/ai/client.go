// Package ai wraps the generative-language HTTP API used for text
// extraction assist, translation, summarization, and chat over extracted
// documents. Every operation is a single request/response call; failures
// surface as one error with no retry, except the chat flow which retries
// once.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/project-mc/server/internal/config"
)

type Client struct {
	cfg  config.AIConfig
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg config.AIConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize produces a bullet-point summary of the given document text.
func (c *Client) Summarize(ctx context.Context, text, fileName string) (string, error) {
	doc := "document"
	if fileName != "" {
		doc = fmt.Sprintf("document named %q", fileName)
	}
	prompt := fmt.Sprintf(`Summarize the following %s in English.
- Provide 5-8 concise bullet points
- Include a one-sentence TL;DR
- List key entities, dates, and numbers
- Add action items if any
Be faithful to the source text and avoid speculation.`, doc)

	return c.generate(ctx, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}, {Text: text}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 512,
		},
	})
}

// Translate renders the text into targetLang (default English).
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(targetLang))
	if lang == "" || lang == "en" {
		lang = "English"
	}
	prompt := fmt.Sprintf(`You are a professional medical translator. Translate the following content to %s.

- Preserve structure and headings when possible.
- Keep numbers, units, and medication names accurate.
- Do not add commentary.

Content to translate:

"""
%s
"""`, lang, text)

	return c.generate(ctx, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
}

// ExtractText asks the model to transcribe a scanned page. The raw bytes
// go inline; mimeType must match the upload.
func (c *Client) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	prompt := "Transcribe all text in this document exactly as written. " +
		"Preserve line breaks. Output only the transcription, no commentary."

	return c.generate(ctx, generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
		GenerationConfig: &generationConfig{
			Temperature:     0,
			MaxOutputTokens: 4096,
		},
	})
}

// Chat answers a free-form question grounded on the supplied document
// texts. This is the one flow with a best-effort retry: a failed call is
// attempted a second time before the error is surfaced.
func (c *Client) Chat(ctx context.Context, question string, documents []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the documents below. " +
		"If the answer is not in the documents, say so.\n")
	for i, d := range documents {
		fmt.Fprintf(&sb, "\n--- Document %d ---\n%s\n", i+1, d)
	}
	fmt.Fprintf(&sb, "\nQuestion: %s", question)

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: sb.String()}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 1024,
		},
	}

	answer, err := c.generate(ctx, req)
	if err != nil {
		c.log.Warn("chat call failed, retrying once", zap.Error(err))
		answer, err = c.generate(ctx, req)
	}
	return answer, err
}

func (c *Client) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling language API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("language API returned %d: %s", resp.StatusCode, body)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	var texts []string
	if len(result.Candidates) > 0 {
		for _, p := range result.Candidates[0].Content.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}
