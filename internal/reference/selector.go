// Package reference picks previously answered questionnaires that best match
// a new project's cadrage, to be used as examples for answer generation.
package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"pasassistant/internal/document"
)

// DefaultMaxChars caps the text read from one reference file.
const DefaultMaxChars = 30_000

// Entry is a scored corpus document.
type Entry struct {
	Path     string
	Metadata map[string]any
	Score    int
	Content  string
}

// Name returns the file name of the entry.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Selector scores the corpus directory against a cadrage.
type Selector struct {
	dir      string
	registry *document.Registry
	maxChars int
	markdown goldmark.Markdown
}

// NewSelector creates a selector over dir. Office documents are read through
// the adapters of registry.
func NewSelector(dir string, registry *document.Registry, maxChars int) *Selector {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Selector{
		dir:      dir,
		registry: registry,
		maxChars: maxChars,
		markdown: goldmark.New(),
	}
}

// Select returns at most maxFiles corpus entries, best score first, with their
// text content. Corpus problems are logged and skipped, never returned.
func (s *Selector) Select(ctx context.Context, cadrage map[string]any, maxFiles int) ([]Entry, error) {
	if maxFiles <= 0 {
		return nil, nil
	}
	entries, err := s.scan(cadrage)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > maxFiles {
		entries = entries[:maxFiles]
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range entries {
		e := &entries[i]
		zap.L().Info("reference selected", zap.String("file", e.Name()), zap.Int("score", e.Score))
		g.Go(func() error {
			content, err := s.readContent(gctx, e.Path)
			if err != nil {
				zap.L().Warn("failed to read reference file", zap.String("file", e.Path), zap.Error(err))
				return nil
			}
			e.Content = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "reference: read contents")
	}
	return entries, ctx.Err()
}

// scan loads every metadata sidecar of the corpus in lexical order.
func (s *Selector) scan(cadrage map[string]any) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("corpus directory not found", zap.String("dir", s.dir))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reference: list %s", s.dir)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !isMetadata(de.Name()) {
			continue
		}
		metaPath := filepath.Join(s.dir, de.Name())
		meta, err := loadMetadata(metaPath)
		if err != nil {
			zap.L().Warn("failed to load corpus metadata", zap.String("file", metaPath), zap.Error(err))
			continue
		}
		if len(meta) == 0 {
			continue
		}
		filename, _ := meta["filename"].(string)
		if strings.TrimSpace(filename) == "" {
			zap.L().Debug("corpus metadata without filename", zap.String("file", metaPath))
			continue
		}
		docPath := filepath.Join(s.dir, filepath.Base(filename))
		if _, err := os.Stat(docPath); err != nil {
			zap.L().Debug("corpus file missing", zap.String("file", docPath))
			continue
		}
		entries = append(entries, Entry{Path: docPath, Metadata: meta, Score: Score(cadrage, meta)})
	}
	return entries, nil
}

func isMetadata(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func loadMetadata(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read metadata")
	}
	meta := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &meta)
	} else {
		err = yaml.Unmarshal(raw, &meta)
	}
	if err != nil {
		return nil, eris.Wrap(err, "decode metadata")
	}
	return meta, nil
}

// readContent flattens a reference document to text capped at maxChars.
func (s *Selector) readContent(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".docx":
		adapter, err := s.registry.ForFile(path)
		if err != nil {
			return "", err
		}
		return adapter.PlainText(ctx, path, s.maxChars)
	case ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrap(err, "read text reference")
		}
		return document.Truncate(string(raw), s.maxChars), nil
	case ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrap(err, "read markdown reference")
		}
		return document.Truncate(s.markdownText(raw), s.maxChars), nil
	default:
		return "", nil
	}
}

// markdownText strips markdown syntax, keeping one line per block.
func (s *Selector) markdownText(src []byte) string {
	root := s.markdown.Parser().Parse(text.NewReader(src))
	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
			}
		default:
			if !entering && n.Type() == ast.TypeBlock && buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
