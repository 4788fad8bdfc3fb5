package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/reporting"
	pkgfiles "github.com/cutekitek/rankode-grader/pkg/files"
	"github.com/spf13/cobra"
)

type gradeOptions struct {
	file         string
	input        string
	inputFile    string
	expected     []string
	patternsFile string
	timeout      float64
	output       string
	format       string
}

func (o *gradeOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.file, "file", "f", "", "Python script to grade, a local path or s3://bucket/key")
	flags.StringVarP(&o.input, "input", "i", "", "input lines for the script, or the path of a file holding them")
	flags.StringVar(&o.inputFile, "input-file", "", "file with input lines for the script")
	flags.StringArrayVarP(&o.expected, "expected", "e", nil, "expected output pattern, may be repeated")
	flags.StringVarP(&o.patternsFile, "patterns", "p", "", "file with one expected pattern per line, # starts a comment")
	flags.Float64VarP(&o.timeout, "timeout", "t", 0, "execution timeout in seconds, the configured timeout when 0")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
}

func (a *app) gradeCmd() *cobra.Command {
	opts := &gradeOptions{}
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Run a script, check its output and analyze its code",
		Example: `  grader grade -f hello.py -i "John Doe" -e "Hello, .+!" -e "Result: \d+"
  grader grade -f s3://labs/week1.py --input-file input.txt -p expected.txt -o report.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.grade(cmd, opts)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also save the report to a file or s3://bucket/key")
	cmd.Flags().StringVar(&opts.format, "format", "text", "report format: text, json or yaml")
	return cmd
}

func (a *app) grade(cmd *cobra.Command, opts *gradeOptions) error {
	ctx := cmd.Context()
	format, err := reporting.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	timeout, err := secondsToDuration(opts.timeout, a.cfg.Timeout)
	if err != nil {
		return err
	}
	storage, err := a.fileStorage()
	if err != nil {
		return err
	}
	ld := newLoader(storage)

	src, err := ld.LoadSource(ctx, opts.file)
	if err != nil {
		return err
	}
	defer src.Close()
	input, err := ld.LoadInput(ctx, opts.input, opts.inputFile)
	if err != nil {
		return err
	}
	patterns, err := ld.LoadPatterns(ctx, opts.expected, opts.patternsFile)
	if err != nil {
		return err
	}
	g, err := a.newGrader(ctx)
	if err != nil {
		return err
	}

	if format == reporting.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "Executing: %s\n\n", opts.file)
	}
	report, err := g.Grade(ctx, &dto.GradeRequest{
		ScriptPath: src.Path,
		Source:     src.Text,
		Input:      input,
		Patterns:   patterns,
		Timeout:    timeout,
	})
	if err != nil {
		return err
	}

	data, err := reporting.Render(report, format)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		if err := saveReport(ctx, storage, opts.output, data, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", opts.output)
	}

	if !report.Execution.Succeeded {
		return errExecutionFailed
	}
	return nil
}

// maxTimeoutSeconds is the longest timeout a time.Duration can hold.
var maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

// secondsToDuration converts a --timeout value. Zero selects def.
func secondsToDuration(seconds float64, def time.Duration) (time.Duration, error) {
	switch {
	case seconds == 0:
		return def, nil
	case seconds < 0, math.IsNaN(seconds):
		return 0, config.Errorf("timeout", "must be a positive number of seconds, got %v", seconds)
	case seconds >= maxTimeoutSeconds:
		return 0, config.Errorf("timeout", "%v seconds is too large, the limit is %.0f", seconds, maxTimeoutSeconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func saveReport(ctx context.Context, storage *files.FileStorage, dest string, data []byte, format reporting.Format) error {
	if !files.IsObjectRef(dest) {
		return pkgfiles.WriteFile(dest, bytes.NewReader(data), 0o644)
	}
	if storage == nil {
		return config.Errorf("output", "object storage is not configured")
	}
	obj, err := files.ParseObjectRef(dest)
	if err != nil {
		return config.Wrap("output", err)
	}
	return storage.PutFile(ctx, obj, data, format.ContentType())
}
