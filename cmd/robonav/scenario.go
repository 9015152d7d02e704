package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zeusync/robonav/internal/injector"
	"github.com/zeusync/robonav/internal/scenario"
)

func (c *cli) newScenarioCmd() *cobra.Command {
	var asJSON bool
	var concurrency int
	cmd := &cobra.Command{
		Use:   "scenario FILE...",
		Short: "Run scenario files and report which ones pass",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load(cmd, map[string]string{"log.level": "log-level"})
			if err != nil {
				return err
			}

			scenarios, err := scenario.LoadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			logger := injector.ProvideLogger(cfg)
			defer func() { _ = logger.Sync() }()
			results := injector.ProvideScenarioRunner(cfg, logger, scenario.WithConcurrency(concurrency)).
				RunAll(cmd.Context(), scenarios)

			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), results)
			} else {
				err = writeText(cmd.OutOrStdout(), results)
			}
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if !res.Passed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed: %w", failed, len(results), scenario.ErrExpectationFailed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON lines")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "scenarios run at once (0 = all)")
	cmd.Flags().String("log-level", "info", "log level")
	return cmd
}

func writeText(w io.Writer, results []scenario.Result) error {
	for _, res := range results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		line := fmt.Sprintf("%s %s ticks=%d arrived=%t pose=%s", status, res.Name, res.Ticks, res.Arrived, res.Pose)
		if res.Fingerprint != "" {
			line += " fingerprint=" + res.Fingerprint
		}
		if res.Err != nil {
			line += "\n    " + res.Err.Error()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

type jsonResult struct {
	scenario.Result
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []scenario.Result) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		out := jsonResult{Result: res, Passed: res.Passed()}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}
