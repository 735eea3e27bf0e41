package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rumen/internal/config"
	"rumen/internal/fileutil"
	"rumen/internal/textutil"
)

// FormatMarkdown and FormatJSON are the supported result formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const timestampLayout = "20060102T150405Z"

// Metadata captures provenance recorded alongside every persisted result.
type Metadata struct {
	SourcePath  string
	Folder      string
	Model       string
	Attempts    int
	ProcessedAt time.Time
}

// Writer persists transformation results beneath the configured output
// directories. Results are written to a temp file in the destination
// directory and renamed into place, so readers never observe a partial file.
type Writer struct {
	cfg *config.Config
	now func() time.Time
}

// NewWriter builds a result writer over the loaded configuration.
func NewWriter(cfg *config.Config) *Writer {
	return &Writer{cfg: cfg, now: time.Now}
}

// WithClock overrides the writer's time source. Used by tests.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	if now != nil {
		w.now = now
	}
	return w
}

// Persist renders and atomically writes the transformed content for one
// source file, returning the final result path.
func (w *Writer) Persist(folder config.Folder, content string, meta Metadata) (string, error) {
	dir := w.cfg.ResolveOutputDir(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(folder.OutputFormat))
	if format == "" {
		format = strings.ToLower(strings.TrimSpace(w.cfg.Output.Format))
	}

	if meta.ProcessedAt.IsZero() {
		meta.ProcessedAt = w.now().UTC()
	}

	var rendered []byte
	var err error
	switch format {
	case FormatJSON:
		rendered, err = renderJSON(content, meta)
	default:
		rendered = renderMarkdown(content, meta)
	}
	if err != nil {
		return "", err
	}

	target, err := w.reserveTarget(dir, folder.Name, meta.SourcePath, format)
	if err != nil {
		return "", err
	}

	if err := fileutil.WriteAtomic(dir, target, rendered, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

// reserveTarget derives the result filename and resolves collisions with a
// numeric suffix.
func (w *Writer) reserveTarget(dir, folderName, sourcePath, format string) (string, error) {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	timestamp := w.now().UTC().Format(timestampLayout)

	ext := ".md"
	if format == FormatJSON {
		ext = ".json"
	}

	components := make([]string, 0, 3)
	if folderName != "" {
		components = append(components, textutil.SanitizeToken(folderName))
	}
	if stem != "" {
		components = append(components, textutil.SanitizeToken(stem))
	}
	components = append(components, timestamp)
	name := strings.Join(components, "_")

	target := filepath.Join(dir, name+ext)
	for i := 2; ; i++ {
		if _, err := os.Lstat(target); err != nil {
			if os.IsNotExist(err) {
				return target, nil
			}
			return "", fmt.Errorf("stat output target: %w", err)
		}
		target = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
}

func renderMarkdown(content string, meta Metadata) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "original_file: %s\n", meta.SourcePath)
	fmt.Fprintf(&b, "folder: %s\n", meta.Folder)
	fmt.Fprintf(&b, "model: %s\n", meta.Model)
	fmt.Fprintf(&b, "attempts: %d\n", meta.Attempts)
	fmt.Fprintf(&b, "processed_at: %s\n", meta.ProcessedAt.Format(time.RFC3339))
	b.WriteString("---\n\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

type jsonMetadata struct {
	OriginalFile string `json:"original_file"`
	Folder       string `json:"folder"`
	Model        string `json:"model"`
	Attempts     int    `json:"attempts"`
}

type jsonEnvelope struct {
	Content   string       `json:"content"`
	Timestamp string       `json:"timestamp"`
	Metadata  jsonMetadata `json:"metadata"`
}

func renderJSON(content string, meta Metadata) ([]byte, error) {
	envelope := jsonEnvelope{
		Content:   content,
		Timestamp: meta.ProcessedAt.Format(time.RFC3339),
		Metadata: jsonMetadata{
			OriginalFile: meta.SourcePath,
			Folder:       meta.Folder,
			Model:        meta.Model,
			Attempts:     meta.Attempts,
		},
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return append(data, '\n'), nil
}
