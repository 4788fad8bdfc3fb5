package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cutekitek/rankode-grader/internal/analyzer"
	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/repository/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", config.Errorf("format", "unknown report format %q", s)
	}
}

// ContentType is used when a report is uploaded to object storage.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

func Render(report *models.Report, format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(Text(report)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode report as json")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return nil, errors.Wrap(err, "failed to encode report as yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to encode report as yaml")
		}
		return buf.Bytes(), nil
	default:
		return nil, config.Errorf("format", "unknown report format %q", format)
	}
}

func Write(w io.Writer, report *models.Report, format Format) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

const separator = "----------------------------------------"

// Text renders the human readable report. Found patterns come before missing
// ones, issues are grouped by kind.
func Text(report *models.Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Grading Report for %s", report.Script)
	line(separator)

	line("Execution:")
	exec := report.Execution
	switch exec.ErrorKind {
	case models.ErrorKindNone:
		line("[✓] Script executed successfully")
	case models.ErrorKindTimeout, models.ErrorKindLaunchFailure:
		line("[!] %s", exec.ErrorMessage)
	default:
		if exec.ExitStatus != nil {
			line("[!] Script exited with error (return code: %d)", *exec.ExitStatus)
		} else {
			line("[!] %s", exec.ErrorMessage)
		}
		if exec.Stderr != "" {
			line("")
			line("Error output:")
			line("%s", strings.TrimRight(exec.Stderr, "\n"))
		}
	}
	if exec.OutputTruncated {
		line("[i] Output was truncated")
	}

	line("")
	line("Output Validation:")
	for _, o := range report.Patterns {
		if o.Found {
			line("[✓] Found: \"%s\"", o.Pattern)
		}
	}
	for _, o := range report.Patterns {
		if !o.Found {
			line("[✗] Missing: \"%s\"", o.Pattern)
		}
	}

	line("")
	line("Code Analysis:")
	analysis := &report.Analysis
	line("[i] Comment count: %d", analysis.CommentCount())
	if analysis.IssueCount() == 0 {
		line("[✓] No code issues found")
	} else {
		line("")
		line("Issues Found:")
		for _, f := range analysis.ByKind(models.FindingLongLine) {
			line("[!] Line %d: Line exceeds the word limit (contains %d words)", f.Line, f.Words)
		}
		for _, f := range analysis.ByKind(models.FindingBannedConstruct) {
			line("[!] Line %d: %s", f.Line, analyzer.Describe(f.Construct))
		}
		for _, f := range analysis.ByKind(models.FindingMultiReturnFunction) {
			line("[!] Function contains %d return statements in Function: %s (line %d)", f.Returns, f.Function, f.Line)
		}
	}
	for _, w := range analysis.Warnings {
		line("[i] %s", w)
	}

	line("")
	line("Summary:")
	line("- Output Validation: %d/%d checks passed", report.Summary.PatternsPassed, report.Summary.PatternsTotal)
	line("- Code Analysis: %d issues found", report.Summary.IssuesFound)

	return b.String()
}
