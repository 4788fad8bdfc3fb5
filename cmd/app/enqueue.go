package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/rabbitmq"
	"github.com/cutekitek/rankode-grader/internal/repository/dto"
	"github.com/cutekitek/rankode-grader/internal/reporting"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type enqueueOptions struct {
	gradeOptions
	wait time.Duration
}

func (a *app) enqueueCmd() *cobra.Command {
	opts := &enqueueOptions{}
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Send a grading task to the workers",
		Long: `Publish a grading task and print its id. Local scripts are sent inline,
s3:// references are fetched by the worker. With --wait the command blocks
until the report arrives and prints it.`,
		Example: `  grader enqueue -f hello.py -i "John Doe" -e "Hello, .+!" --wait 30s`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.enqueue(cmd, opts)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.format, "format", "text", "report format used with --wait: text, json or yaml")
	cmd.Flags().DurationVar(&opts.wait, "wait", 0, "wait this long for the report, 0 returns right after publishing")
	return cmd
}

func (a *app) enqueue(cmd *cobra.Command, opts *enqueueOptions) error {
	ctx := cmd.Context()
	task, err := a.buildTask(ctx, opts)
	if err != nil {
		return err
	}
	format, err := reporting.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	client, err := rabbitmq.NewClient(a.rabbitConfig())
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Publish(ctx, task); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), task.Id)
	if opts.wait <= 0 {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.wait)
	defer cancel()
	resp, err := client.Await(waitCtx, task.Id)
	if err != nil {
		return errors.Wrapf(err, "no report for task %s", task.Id)
	}
	if resp.Status != dto.GradeStatusComplete || resp.Report == nil {
		return errors.Errorf("task %s was not graded: %s", task.Id, resp.Error)
	}
	if err := reporting.Write(cmd.OutOrStdout(), resp.Report, format); err != nil {
		return err
	}
	if !resp.Report.Execution.Succeeded {
		return errExecutionFailed
	}
	return nil
}

func (a *app) buildTask(ctx context.Context, opts *enqueueOptions) (*dto.GradeTask, error) {
	// zero leaves the timeout to the worker
	timeout, err := secondsToDuration(opts.timeout, 0)
	if err != nil {
		return nil, err
	}
	storage, err := a.fileStorage()
	if err != nil {
		return nil, err
	}
	ld := newLoader(storage)

	task := &dto.GradeTask{
		Id:      uuid.NewString(),
		Timeout: int(timeout.Milliseconds()),
	}
	if files.IsObjectRef(opts.file) {
		task.SourceObject = opts.file
	} else {
		src, err := ld.LoadSource(ctx, opts.file)
		if err != nil {
			return nil, err
		}
		task.Code = src.Text
		src.Close()
	}
	if task.Input, err = ld.LoadInput(ctx, opts.input, opts.inputFile); err != nil {
		return nil, err
	}
	patterns, err := ld.LoadPatterns(ctx, opts.expected, opts.patternsFile)
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		task.Patterns = append(task.Patterns, string(p))
	}
	return task, nil
}
