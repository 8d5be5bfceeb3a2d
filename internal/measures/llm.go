// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package measures

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/meshintel/telescan/pkg/types"
)

// defaultWindowSize is the number of leading characters of article text
// sent to the model. Measures are normally declared in the abstract and
// methods, so the head of the paper is enough.
const defaultWindowSize = 4000

// validCategories is the set of accepted measure categories in AI responses.
var validCategories = map[string]bool{
	"Binary":     true,
	"Count":      true,
	"Rate":       true,
	"Percentage": true,
	"Clinical":   true,
}

// Backend abstracts the Generative AI API so tests can supply a mock.
// Per Strategy pattern (prd003-llm-measures R2.1).
type Backend interface {
	ExtractMeasures(ctx context.Context, window string) (AIResponse, error)
}

// AIResponse is the structured response from the AI backend.
type AIResponse struct {
	Measures []AIMeasure `json:"measures" yaml:"measures"`
}

// AIMeasure is a single measure as returned by the AI backend.
type AIMeasure struct {
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Value       string `json:"value" yaml:"value"`
}

// FileResult holds the AI-extracted measures for one article.
type FileResult struct {
	Filename string      `json:"filename" yaml:"filename"`
	Measures []AIMeasure `json:"measures" yaml:"measures"`
}

// measuresPromptTmpl is the prompt template sent to the Claude API for the
// head of each article. Per prd003-llm-measures R2.2.
var measuresPromptTmpl = template.Must(template.New("measures").Parse(`Analyze the following text from a telehealth research article and extract any telehealth utilization measures mentioned.

Telehealth utilization measures are metrics that quantify how telehealth is being used, such as:
- Whether telehealth was used (yes/no)
- Number of telehealth visits
- Rate of telehealth usage
- Percentage of visits conducted via telehealth

Text: {{.Window}}

Respond with a JSON object with the following structure. Do not include any text outside the JSON object.
{"measures": [{"description": "Description of the measure", "category": "Binary/Count/Rate/Percentage/Clinical", "value": "Any numeric value mentioned"}]}

If no measures are found, return an empty array for "measures".
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude API to extract utilization measures from
// the head of an article. Per prd003-llm-measures R2.1.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExtractMeasures calls the Claude API with the measure prompt for one
// article window (R2.2).
func (c *ClaudeBackend) ExtractMeasures(ctx context.Context, window string) (AIResponse, error) {
	prompt, err := renderPrompt(window)
	if err != nil {
		return AIResponse{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 1024,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return AIResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return AIResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return AIResponse{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AIResponse{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return AIResponse{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var aiResp AIResponse
		if err := json.Unmarshal(extractJSON(block.Text), &aiResp); err != nil {
			return AIResponse{}, fmt.Errorf("parsing AI response JSON: %w", err)
		}
		return aiResp, nil
	}

	return AIResponse{}, fmt.Errorf("no text content in Claude API response")
}

// extractJSON slices the outermost JSON object out of a text block, so a
// response wrapped in prose still parses.
func extractJSON(text string) []byte {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return []byte(text)
	}
	return []byte(text[start : end+1])
}

// renderPrompt executes the measure prompt template with the given window.
func renderPrompt(window string) (string, error) {
	var buf bytes.Buffer
	if err := measuresPromptTmpl.Execute(&buf, struct{ Window string }{Window: window}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the AI backend with exponential backoff (R2.3).
func callWithRetry(ctx context.Context, backend Backend, window string, maxRetries int) (AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return AIResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := backend.ExtractMeasures(ctx, window)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return AIResponse{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// AnalyzeFile runs the AI backend over the head of one converted article.
// Backend failures degrade to an empty measure list with a warning on w
// rather than failing the run (R2.4); measures with an unknown category
// are dropped the same way.
func AnalyzeFile(ctx context.Context, backend Backend, textPath string, cfg types.MeasuresConfig, w io.Writer) (FileResult, error) {
	content, err := os.ReadFile(textPath)
	if err != nil {
		return FileResult{}, fmt.Errorf("reading article text %s: %w", textPath, err)
	}

	result := FileResult{Filename: filepath.Base(textPath)}

	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	window := string(content)
	if len(window) > windowSize {
		window = window[:windowSize]
	}
	if strings.TrimSpace(window) == "" {
		fmt.Fprintf(w, "warning: %s has no text, skipping AI analysis\n", result.Filename)
		return result, nil
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	resp, err := callWithRetry(ctx, backend, window, maxRetries)
	if err != nil {
		fmt.Fprintf(w, "warning: AI analysis of %s failed: %v\n", result.Filename, err)
		return result, nil
	}

	for i, m := range resp.Measures {
		if !validCategories[m.Category] {
			fmt.Fprintf(w, "warning: %s: measure %d has invalid category %q, dropped\n", result.Filename, i, m.Category)
			continue
		}
		if m.Description == "" {
			fmt.Fprintf(w, "warning: %s: measure %d has empty description, dropped\n", result.Filename, i)
			continue
		}
		result.Measures = append(result.Measures, m)
	}

	return result, nil
}

// WriteResult saves one article's AI measures as JSON and CSV next to each
// other in outDir, named <stem>_measures.json and <stem>_measures.csv.
func WriteResult(outDir string, result FileResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	stem := strings.TrimSuffix(result.Filename, filepath.Ext(result.Filename))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	jsonPath := filepath.Join(outDir, stem+"_measures.json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	csvPath := filepath.Join(outDir, stem+"_measures.csv")
	if err := writeMeasuresCSV(csvPath, result); err != nil {
		return fmt.Errorf("writing %s: %w", csvPath, err)
	}
	return nil
}

func writeMeasuresCSV(path string, result FileResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"description", "category", "value", "filename"}); err != nil {
		return err
	}
	for _, m := range result.Measures {
		if err := cw.Write([]string{m.Description, m.Category, m.Value, result.Filename}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
