// Package extractor turns a submission's source (raw text, web page, YouTube
// link or uploaded file) into message-sized chunks.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/models"
)

// SourceKind classifies what a submission points at.
type SourceKind string

const (
	SourceText    SourceKind = "text"
	SourceURL     SourceKind = "article/URL"
	SourceYouTube SourceKind = "YouTube video"
	SourcePDF     SourceKind = "PDF"
	SourceUnknown SourceKind = "content"
)

// Classify reports the source kind of a submission and a human readable
// detail (the URL or the file names), if any.
func Classify(sub *models.Submission) (SourceKind, string) {
	if sub.TextField.Valid && sub.TextField.String != "" {
		text := sub.TextField.String
		switch {
		case isYouTube(text):
			return SourceYouTube, text
		case strings.HasPrefix(text, "http"):
			return SourceURL, text
		default:
			return SourceText, ""
		}
	}
	if len(sub.UploadedFiles) > 0 {
		return SourcePDF, strings.Join(sub.UploadedFiles, ", ")
	}
	return SourceUnknown, ""
}

func isYouTube(s string) bool {
	return strings.Contains(s, "youtube.com") || strings.Contains(s, "youtu.be")
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	Error      string `json:"error"`
}

// Extractor fetches and chunks submission content.
type Extractor struct {
	httpClient     *http.Client
	attachmentsDir string
	transcriptURL  string
	maxChunkLength int
	logger         *zap.Logger
}

func New(cfg *config.ChunkingConfig, attachmentsDir string, logger *zap.Logger) *Extractor {
	maxLen := cfg.MaxChunkLength
	if maxLen <= 0 || maxLen > MaxMessageLength {
		maxLen = MaxMessageLength
	}
	return &Extractor{
		httpClient:     &http.Client{Timeout: time.Duration(cfg.FetchTimeout) * time.Second},
		attachmentsDir: attachmentsDir,
		transcriptURL:  cfg.TranscriptURL,
		maxChunkLength: maxLen,
		logger:         logger,
	}
}

// Extract returns the ordered chunks of a submission. Uploaded files are
// processed before the text field.
func (e *Extractor) Extract(ctx context.Context, sub *models.Submission) ([]string, error) {
	var chunks []string

	for _, name := range sub.UploadedFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := ExtractPDF(attachmentPath(e.attachmentsDir, sub.UserID, sub.ID, name))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, SplitIntoChunks(CleanText(text), e.maxChunkLength)...)
	}

	if sub.TextField.Valid && strings.TrimSpace(sub.TextField.String) != "" {
		text, err := e.sourceText(ctx, sub.TextField.String)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, SplitIntoChunks(CleanText(text), e.maxChunkLength)...)
	}

	chunks = FilterChunks(chunks)
	if len(chunks) == 0 {
		return nil, models.ErrEmptyContent
	}

	e.logger.Debug("Extracted chunks",
		zap.String("submissionID", sub.ID.String()),
		zap.Int("count", len(chunks)))

	return chunks, nil
}

func (e *Extractor) sourceText(ctx context.Context, field string) (string, error) {
	switch {
	case isYouTube(field):
		return e.fetchTranscript(ctx, field)
	case strings.HasPrefix(field, "http"):
		return e.fetchPage(ctx, field)
	default:
		return field, nil
	}
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; CadenceBot/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to scrape URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to scrape URL: unexpected status code: %d", resp.StatusCode)
	}

	return ExtractHTML(io.LimitReader(resp.Body, 10<<20))
}

func (e *Extractor) fetchTranscript(ctx context.Context, videoURL string) (string, error) {
	if e.transcriptURL == "" {
		return "", fmt.Errorf("%w: no transcript service configured", models.ErrUnsupportedSource)
	}

	endpoint := e.transcriptURL + "?url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	var body transcriptResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("failed to fetch transcript: %s", body.Error)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode transcript: %w", decodeErr)
	}

	return body.Transcript, nil
}
