package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/amikos-tech/pure-qnn/classify"
	"github.com/amikos-tech/pure-qnn/qnn"
)

type runOptions struct {
	repeat      int
	top         int
	metricsFile string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the backend, run every input batch and print the predicted labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, root, opts)
		},
	}
	cmd.Flags().IntVar(&opts.repeat, "repeat", 1, "Number of times to execute the graphs")
	cmd.Flags().IntVar(&opts.top, "top", 1, "Print the k best classes per batch instead of only the best")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write session metrics in Prometheus text format to this file")
	return cmd
}

func runClassify(cmd *cobra.Command, root *rootOptions, opts *runOptions) (err error) {
	if opts.repeat < 1 {
		return qnn.NewError(qnn.KindConfiguration, "", "", fmt.Errorf("--repeat must be at least 1, got %d", opts.repeat))
	}
	if opts.top < 1 {
		return qnn.NewError(qnn.KindConfiguration, "", "", fmt.Errorf("--top must be at least 1, got %d", opts.top))
	}

	cfg, err := root.resolveConfig(cmd)
	if err != nil {
		return err
	}
	sessionCfg, err := cfg.ToSession()
	if err != nil {
		return err
	}
	format, err := cfg.Format()
	if err != nil {
		return err
	}

	// Labels are validated before anything is loaded, so a bad label file
	// never gets a session past created.
	labels, err := classify.LoadLabels(cfg.LabelsPath(), cfg.NumClasses)
	if err != nil {
		return err
	}
	root.log.Debug().Int("labels", len(labels)).Str("path", cfg.LabelsPath()).Msg("label table loaded")

	if opts.metricsFile != "" {
		defer func() {
			if werr := prometheus.WriteToTextfile(opts.metricsFile, prometheus.DefaultGatherer); werr != nil {
				root.log.Warn().Err(werr).Str("path", opts.metricsFile).Msg("failed to write metrics")
			}
		}()
	}

	session, err := qnn.Open(sessionCfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := session.Prepare(); err != nil {
		return err
	}
	for i := 0; i < opts.repeat; i++ {
		if err := session.ExecuteGraphs(); err != nil {
			return err
		}
	}
	root.log.Info().Str("session", session.ID()).Int("executions", session.Executions()).Msg("graphs executed")

	out := cmd.OutOrStdout()
	for batch := range session.Manifest().Batches {
		path := session.ResultPath(batch, cfg.OutputTensor)
		if err := printBatch(out, batch, path, labels, opts.top, format); err != nil {
			return err
		}
	}
	return nil
}

func printBatch(w io.Writer, batch int, path string, labels classify.Labels, top int, format classify.Format) error {
	if top == 1 {
		res, err := classify.ReadClassification(path, labels, classify.WithFormat(format))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "batch %d: %s (class %d, score %.4f)\n", batch, res.Label, res.Index, res.Score)
		return err
	}

	results, err := classify.TopK(path, labels, top, classify.WithFormat(format))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "batch %d:\n", batch); err != nil {
		return err
	}
	renderResults(w, results)
	return nil
}
