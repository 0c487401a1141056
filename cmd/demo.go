package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/farm-advisor/internal/engine"
	"github.com/sells-group/farm-advisor/internal/model"
	"github.com/sells-group/farm-advisor/internal/scenario"
)

var (
	demoFile    string
	demoSamples int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the bundled sample scenarios through the engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			fixture *scenario.Fixture
			err     error
		)
		if demoFile != "" {
			fixture, err = scenario.LoadFile(demoFile)
		} else {
			fixture, err = scenario.Default()
		}
		if err != nil {
			return err
		}

		return runDemo(cmd.Context(), cmd.OutOrStdout(), engine.New(cfg.Engine), fixture.All(demoSamples), cfg.Batch.MaxConcurrentScenarios)
	},
}

// runDemo evaluates every scenario with at most limit in flight and prints
// the summaries in fixture order.
func runDemo(ctx context.Context, w io.Writer, eng *engine.Engine, scenarios []scenario.Scenario, limit int) error {
	results := make([]*model.ConsolidatedResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, sc := range scenarios {
		g.Go(func() error {
			results[i] = eng.Run(gctx, sc.Inputs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	regular := 0
	for _, sc := range scenarios {
		if !sc.Special {
			regular++
		}
	}

	fmt.Fprintf(w, "Running %d sample scenarios plus %d special scenarios...\n", regular, len(scenarios)-regular)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for i, sc := range scenarios {
		res := results[i]
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(sc.Name))
		if !sc.Special {
			fmt.Fprintf(w, "Farmer: %s\n", inputText(sc.Inputs, "farmer_id", "Unknown"))
			fmt.Fprintf(w, "Region: %s\n", inputText(sc.Inputs, "region", "Unknown"))
			fmt.Fprintf(w, "Crop: %s\n", model.Title(inputText(sc.Inputs, "crop_type", "Unknown")))
		}
		fmt.Fprintf(w, "Conditions: %s°C, %smm rain\n",
			inputText(sc.Inputs, "temperature_c", "0"), inputText(sc.Inputs, "rainfall_mm", "0"))
		fmt.Fprintln(w, strings.Repeat("-", 30))
		fmt.Fprintf(w, "RECOMMENDATION: %s\n", strings.ReplaceAll(string(res.FinalDecision), "_", " "))
		fmt.Fprintf(w, "RISK LEVEL: %s\n", res.OverallRiskLevel)
		if sc.Special {
			continue
		}
		fmt.Fprintf(w, "EXPECTED YIELD: %.0f%%\n", res.YieldSummary.ExpectedYieldPercentage)
		if recs := res.Recommendations; len(recs) > 0 {
			fmt.Fprintln(w, "KEY RECOMMENDATIONS:")
			for j, rec := range recs[:min(2, len(recs))] {
				fmt.Fprintf(w, "  %d. %s\n", j+1, rec)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "Demo completed successfully!")

	zap.L().Info("demo: scenarios complete", zap.Int("count", len(scenarios)))
	return nil
}

func inputText(in map[string]any, key, def string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return def
	}
	return s
}

func init() {
	demoCmd.Flags().StringVar(&demoFile, "file", "", "YAML scenario fixture (default: bundled scenarios)")
	demoCmd.Flags().IntVar(&demoSamples, "samples", 3, "number of regular sample scenarios to run (0 for all)")
	rootCmd.AddCommand(demoCmd)
}
