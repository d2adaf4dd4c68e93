package extractor_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/extractor"
	"github.com/popeskul/cadence/internal/models"
)

const articlePage = `<html><head><title>t</title><style>body{}</style></head>
<body>
<nav>Home About</nav>
<header>Site header.</header>
<div class="sidebar">Subscribe now.</div>
<article>
  <h1>Photosynthesis</h1>
  <p>Plants convert light into chemical energy.</p>
  <script>track()</script>
  <p>Chlorophyll absorbs mostly blue and red light.</p>
  <div id="comments">Nice! Reply</div>
</article>
<footer>Copyright.</footer>
</body></html>`

// writePDF stores a single-page PDF showing text at
// <dir>/<user>/<submission>/<name>.
func writePDF(t *testing.T, dir string, sub *models.Submission, name, text string) {
	t.Helper()

	content := "BT /F1 12 Tf 72 720 Td (" + text + ") Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	writeAttachment(t, dir, sub, name, buf.Bytes())
}

func writeAttachment(t *testing.T, dir string, sub *models.Submission, name string, data []byte) {
	t.Helper()
	subDir := filepath.Join(dir, sub.UserID.String(), sub.ID.String())
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, name), data, 0o644))
}

func submissionWithFiles(text string, files ...string) *models.Submission {
	sub := submissionWithText(text)
	sub.UserID = uuid.New()
	sub.UploadedFiles = files
	return sub
}

func submissionWithText(text string) *models.Submission {
	return &models.Submission{
		ID:        uuid.New(),
		TextField: sql.NullString{String: text, Valid: text != ""},
	}
}

func TestExtractHTML(t *testing.T) {
	text, err := extractor.ExtractHTML(strings.NewReader(articlePage))
	require.NoError(t, err)

	cleaned := extractor.CleanText(text)
	assert.Equal(t, "Photosynthesis Plants convert light into chemical energy. Chlorophyll absorbs mostly blue and red light.", cleaned)
}

func TestExtractHTML_FallsBackToBody(t *testing.T) {
	text, err := extractor.ExtractHTML(strings.NewReader(`<html><body><p>Only body text.</p><footer>x</footer></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Only body text.", extractor.CleanText(text))
}

func TestExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(articlePage))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/transcript":
			if r.URL.Query().Get("url") == "https://youtu.be/broken" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Transcript is disabled"})
				return
			}
			assert.Equal(t, "https://www.youtube.com/watch?v=abc", r.URL.Query().Get("url"))
			_ = json.NewEncoder(w).Encode(map[string]string{"transcript": "Welcome back. Today we talk about Go."})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	ext := extractor.New(&config.ChunkingConfig{
		MaxChunkLength: 500,
		FetchTimeout:   5,
		TranscriptURL:  server.URL + "/transcript",
	}, dir, zap.NewNop())

	paper := submissionWithFiles("", "paper.pdf")
	writePDF(t, dir, paper, "paper.pdf", "Plants convert light into chemical energy.")

	paperAndText := submissionWithFiles("Then read this.", "paper.pdf")
	writePDF(t, dir, paperAndText, "paper.pdf", "Plants convert light into chemical energy.")

	nested := submissionWithFiles("", "../../elsewhere/paper.pdf")
	writePDF(t, dir, nested, "paper.pdf", "Only the stored copy is read.")

	corrupt := submissionWithFiles("", "broken.pdf")
	writeAttachment(t, dir, corrupt, "broken.pdf", []byte("not a pdf at all"))

	tests := []struct {
		name        string
		sub         *models.Submission
		expected    []string
		expectedErr error
		errContains string
	}{
		{
			name:     "raw text",
			sub:      submissionWithText("First idea.   Second idea!"),
			expected: []string{"First idea. Second idea!"},
		},
		{
			name:     "web page",
			sub:      submissionWithText(server.URL + "/article"),
			expected: []string{"Photosynthesis Plants convert light into chemical energy. Chlorophyll absorbs mostly blue and red light."},
		},
		{
			name:     "youtube transcript",
			sub:      submissionWithText("https://www.youtube.com/watch?v=abc"),
			expected: []string{"Welcome back. Today we talk about Go."},
		},
		{
			name:        "youtube transcript error",
			sub:         submissionWithText("https://youtu.be/broken"),
			errContains: "Transcript is disabled",
		},
		{
			name:        "page not found",
			sub:         submissionWithText(server.URL + "/missing"),
			errContains: "failed to scrape URL",
		},
		{
			name:        "blank text",
			sub:         submissionWithText("   [ ] ( )  "),
			expectedErr: models.ErrEmptyContent,
		},
		{
			name:     "uploaded pdf",
			sub:      paper,
			expected: []string{"Plants convert light into chemical energy."},
		},
		{
			name:     "pdf chunks come before text chunks",
			sub:      paperAndText,
			expected: []string{"Plants convert light into chemical energy.", "Then read this."},
		},
		{
			name:     "file name is resolved inside the submission directory",
			sub:      nested,
			expected: []string{"Only the stored copy is read."},
		},
		{
			name:        "missing pdf",
			sub:         submissionWithFiles("", "absent.pdf"),
			errContains: "failed to open PDF absent.pdf",
		},
		{
			name:        "corrupt pdf",
			sub:         corrupt,
			errContains: "broken.pdf",
		},
		{
			name:        "nothing submitted",
			sub:         &models.Submission{ID: uuid.New()},
			expectedErr: models.ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ext.Extract(context.Background(), tt.sub)

			if tt.expectedErr != nil || tt.errContains != "" {
				require.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
				if tt.errContains != "" {
					assert.ErrorContains(t, err, tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		sub            *models.Submission
		expectedKind   extractor.SourceKind
		expectedDetail string
	}{
		{"youtube", submissionWithText("https://youtu.be/x"), extractor.SourceYouTube, "https://youtu.be/x"},
		{"url", submissionWithText("https://example.com/a"), extractor.SourceURL, "https://example.com/a"},
		{"text", submissionWithText("plain words"), extractor.SourceText, ""},
		{"files", &models.Submission{UploadedFiles: pq.StringArray{"a.pdf", "b.pdf"}}, extractor.SourcePDF, "a.pdf, b.pdf"},
		{"empty", &models.Submission{}, extractor.SourceUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, detail := extractor.Classify(tt.sub)
			assert.Equal(t, tt.expectedKind, kind)
			assert.Equal(t, tt.expectedDetail, detail)
		})
	}
}
