package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/priyamtech/expense-approval/internal/application/port"
)

// Classifier implements port.BillClassifier using OpenAI vision models.
type Classifier struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewClassifier creates a new OpenAI bill classifier
func NewClassifier(apiKey, model string, temperature float32, maxTokens int, logger *zap.Logger) *Classifier {
	return &Classifier{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

type analysisResponse struct {
	Recommendation  string   `json:"recommendation"`
	ConfidenceScore int      `json:"confidence_score"`
	BillNumber      string   `json:"bill_number"`
	Vendor          string   `json:"vendor"`
	BillDate        string   `json:"bill_date"`
	AmountRupees    float64  `json:"amount_rupees"`
	TravelMode      string   `json:"travel_mode"`
	TravelFrom      string   `json:"travel_from"`
	TravelTo        string   `json:"travel_to"`
	RedFlags        []string `json:"red_flags"`
}

// Analyze inspects a bill image or PDF against the claimed category and
// amount.
func (c *Classifier) Analyze(ctx context.Context, fileBytes []byte, fileName, category string, amountPaise int64, grade, description string) (*port.BillAnalysis, error) {
	images, err := c.toImages(fileBytes, fileName)
	if err != nil {
		c.logger.Error("Failed to render bill file", zap.String("file", fileName), zap.Error(err))
		return nil, fmt.Errorf("failed to render bill file: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages rendered from %s", fileName)
	}

	contentParts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: buildAnalysisPrompt(category, amountPaise, grade, description),
	}}
	for _, img := range images {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(img)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expense compliance reviewer for an Indian company. You read bills and receipts and judge whether they support the claimed expense. Always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var parsed analysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		if jsonStr := extractJSON(content); jsonStr != "" {
			err = json.Unmarshal([]byte(jsonStr), &parsed)
		}
		if err != nil {
			c.logger.Error("Failed to parse OpenAI response", zap.Error(err), zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	c.logger.Info("Bill analysis completed",
		zap.String("file", fileName),
		zap.String("recommendation", parsed.Recommendation),
		zap.Int("confidence", parsed.ConfidenceScore))

	return &port.BillAnalysis{
		Recommendation:  strings.ToLower(parsed.Recommendation),
		ConfidenceScore: parsed.ConfidenceScore,
		BillNumber:      parsed.BillNumber,
		Vendor:          parsed.Vendor,
		BillDate:        parsed.BillDate,
		AmountPaise:     int64(parsed.AmountRupees * 100),
		TravelMode:      parsed.TravelMode,
		TravelFrom:      parsed.TravelFrom,
		TravelTo:        parsed.TravelTo,
		RedFlags:        parsed.RedFlags,
	}, nil
}

// GenerateRejectionReason produces a short submitter-facing explanation
// for a rejection.
func (c *Classifier) GenerateRejectionReason(ctx context.Context, category string, amountPaise int64, level, comments string) (string, error) {
	prompt := fmt.Sprintf(
		"An expense claim was rejected at the %s review level.\nCategory: %s\nAmount: ₹%.2f\nReviewer comments: %s\n\nWrite one or two polite sentences telling the employee why the claim was rejected and what they could do differently. Plain text, no JSON.",
		level, category, float64(amountPaise)/100, comments)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write concise, professional rejection notes for employee expense claims.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// toImages renders the uploaded file to JPEG pages. PDFs go through
// mupdf; images pass through as a single page.
func (c *Classifier) toImages(fileBytes []byte, fileName string) ([][]byte, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == "" {
		return [][]byte{fileBytes}, nil
	}
	if ext != ".pdf" {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.NewFromMemory(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	// First two pages are enough for a bill and keep token costs down
	pages := doc.NumPage()
	if pages > 2 {
		pages = 2
	}

	var images [][]byte
	for page := 0; page < pages; page++ {
		img, err := doc.Image(page)
		if err != nil {
			c.logger.Warn("Failed to render PDF page", zap.Int("page", page), zap.Error(err))
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			c.logger.Warn("Failed to encode page to JPEG", zap.Int("page", page), zap.Error(err))
			continue
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}

func buildAnalysisPrompt(category string, amountPaise int64, grade, description string) string {
	return fmt.Sprintf(`Examine this bill and judge whether it supports the expense claim below.

CLAIM:
- category: %s
- amount: ₹%.2f
- employee grade: %s
- description: %s

Extract from the bill:
- bill_number: the invoice or receipt number
- vendor: the issuing business name
- bill_date: date in YYYY-MM-DD format
- amount_rupees: the billed total as a number
- travel_mode: bus, train, cab, flight_economy or flight_business if this is a travel bill, else empty
- travel_from and travel_to: origin and destination if visible, else empty

Then judge:
- recommendation: APPROVE if the bill clearly supports the claim, REJECT if it contradicts it, REVIEW if unsure
- confidence_score: 0-100
- red_flags: an array of short strings naming anything suspicious (amount mismatch, wrong category, altered text, illegible fields)

Return a JSON object with exactly those keys.`,
		category, float64(amountPaise)/100, grade, description)
}

// extractJSON pulls a JSON object out of a markdown-fenced or otherwise
// decorated response.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

var _ port.BillClassifier = (*Classifier)(nil)
