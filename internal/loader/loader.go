package loader

import (
	"bufio"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	pkgfiles "github.com/cutekitek/rankode-grader/pkg/files"
	"github.com/pkg/errors"
)

const commentMarker = "#"

type ObjectStore interface {
	GetFile(ctx context.Context, obj files.Object) (io.ReadCloser, error)
}

// Loader resolves local paths and, when a store is configured, s3:// refs.
// Every failure it returns is a ConfigurationError.
type Loader struct {
	store ObjectStore
}

func NewLoader(store ObjectStore) *Loader {
	return &Loader{store: store}
}

type Source struct {
	// Local file handed to the interpreter
	Path string
	Text string
	// Temp dir holding a downloaded copy, removed by Close
	tempDir string
}

func (s *Source) Close() error {
	if s.tempDir == "" {
		return nil
	}
	return os.RemoveAll(s.tempDir)
}

func (l *Loader) LoadSource(ctx context.Context, ref string) (*Source, error) {
	if ref == "" {
		return nil, config.Errorf("source", "no file given")
	}
	if !files.IsObjectRef(ref) {
		text, err := readLocal(ref)
		if err != nil {
			return nil, config.Wrap("source", err)
		}
		return &Source{Path: ref, Text: text}, nil
	}

	obj, err := files.ParseObjectRef(ref)
	if err != nil {
		return nil, config.Wrap("source", err)
	}
	data, err := l.readObject(ctx, obj)
	if err != nil {
		return nil, config.Wrap("source", err)
	}
	return StageSource(path.Base(obj.Key), data)
}

// StageSource writes text as name into a fresh temp dir so the interpreter
// has a file to run. Close removes the dir.
func StageSource(name, text string) (*Source, error) {
	dir, err := os.MkdirTemp("", "grader-source-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir")
	}
	local := filepath.Join(dir, filepath.Base(name))
	if err := pkgfiles.WriteFile(local, strings.NewReader(text), 0o644); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "failed to stage source")
	}
	return &Source{Path: local, Text: text, tempDir: dir}, nil
}

// LoadInput returns the lines fed to the program. An explicit file must
// exist; a literal that names an existing file is read as that file, anything
// else is split into lines.
func (l *Loader) LoadInput(ctx context.Context, literal, file string) ([]string, error) {
	if file != "" {
		text, err := l.read(ctx, file)
		if err != nil {
			return nil, config.Wrap("input file", err)
		}
		return SplitLines(text), nil
	}
	if literal != "" && !strings.ContainsAny(literal, "\n") {
		if info, err := os.Stat(literal); err == nil && info.Mode().IsRegular() {
			text, err := readLocal(literal)
			if err != nil {
				return nil, config.Wrap("input file", err)
			}
			return SplitLines(text), nil
		}
	}
	return SplitLines(literal), nil
}

// LoadPatterns merges inline patterns with the ones from file, inline first.
// An empty result is a configuration error.
func (l *Loader) LoadPatterns(ctx context.Context, inline []string, file string) ([]models.Pattern, error) {
	var patterns []models.Pattern
	for _, p := range inline {
		if strings.TrimSpace(p) != "" {
			patterns = append(patterns, models.Pattern(p))
		}
	}
	if file != "" {
		text, err := l.read(ctx, file)
		if err != nil {
			return nil, config.Wrap("patterns file", err)
		}
		fromFile, err := ParsePatterns(strings.NewReader(text))
		if err != nil {
			return nil, config.Wrap("patterns file", err)
		}
		patterns = append(patterns, fromFile...)
	}
	if len(patterns) == 0 {
		return nil, config.Errorf("patterns", "at least one expected pattern is required")
	}
	return patterns, nil
}

// ParsePatterns reads one pattern per line, trimmed, skipping blank lines
// and lines starting with #.
func ParsePatterns(r io.Reader) ([]models.Pattern, error) {
	var patterns []models.Pattern
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		patterns = append(patterns, models.Pattern(line))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read patterns")
	}
	return patterns, nil
}

// SplitLines splits text on newlines, accepting \r\n. A final newline does
// not start another line and empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func (l *Loader) read(ctx context.Context, ref string) (string, error) {
	if !files.IsObjectRef(ref) {
		return readLocal(ref)
	}
	obj, err := files.ParseObjectRef(ref)
	if err != nil {
		return "", err
	}
	return l.readObject(ctx, obj)
}

func (l *Loader) readObject(ctx context.Context, obj files.Object) (string, error) {
	if l.store == nil {
		return "", errors.New("object storage is not configured")
	}
	rc, err := l.store.GetFile(ctx, obj)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", obj.Key)
	}
	return string(data), nil
}

func readLocal(name string) (string, error) {
	info, err := os.Stat(name)
	if err != nil {
		return "", errors.Wrapf(err, "cannot access %s", name)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Errorf("%s is not a regular file", name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read %s", name)
	}
	return string(data), nil
}
