package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/farm-advisor/internal/engine"
	"github.com/sells-group/farm-advisor/internal/model"
	"github.com/sells-group/farm-advisor/internal/normalize"
)

var (
	decideInput  string
	decideFormat string
)

// fieldFlags maps command-line flags onto raw input field names.
var fieldFlags = []struct {
	flag  string
	field string
	usage string
	kind  string
}{
	{"rainfall", normalize.FieldRainfall, "recent rainfall in mm", "float"},
	{"temperature", normalize.FieldTemperature, "temperature in °C", "float"},
	{"humidity", normalize.FieldHumidity, "relative humidity in percent", "float"},
	{"water", normalize.FieldAvailableWater, "water available for irrigation in mm", "float"},
	{"soil", normalize.FieldSoilType, "soil type (clay, loam, sandy, silt)", "string"},
	{"crop", normalize.FieldCropType, "crop name", "string"},
	{"leaf-image", normalize.FieldLeafImage, "a leaf image was provided", "bool"},
	{"farmer-id", normalize.FieldFarmerID, "farmer identifier", "string"},
	{"region", normalize.FieldRegion, "region name", "string"},
	{"stage", normalize.FieldGrowingStage, "growing stage", "string"},
	{"experience", normalize.FieldFarmerExperience, "farmer experience (beginner .. expert)", "string"},
	{"weather-uncertainty", normalize.FieldWeatherUncertainty, "weather forecast uncertainty 0-1", "float"},
	{"economic-buffer", normalize.FieldEconomicBuffer, "financial buffer 0-1", "float"},
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run the decision engine for one field",
	Long:  "Runs one field record from flags and/or a JSON file (--input, - for stdin) and prints the consolidated recommendation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(decideInput, cmd.InOrStdin())
		if err != nil {
			return err
		}
		applyFieldFlags(cmd.Flags(), raw)

		return decide(cmd.Context(), cmd.OutOrStdout(), engine.New(cfg.Engine), raw, decideFormat)
	},
}

func decide(ctx context.Context, w io.Writer, eng *engine.Engine, raw map[string]any, format string) error {
	if ok, msg := engine.ValidateInputs(raw); !ok {
		return eris.Errorf("decide: %s", msg)
	}

	res := eng.Run(ctx, raw)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "decide: encode result")
		}
		return nil
	case "text", "":
		writeReport(w, res)
		return nil
	default:
		return eris.Errorf("decide: unknown format %q", format)
	}
}

// readInput decodes a JSON object from path. An empty path yields an empty
// record and "-" reads from stdin.
func readInput(path string, stdin io.Reader) (map[string]any, error) {
	raw := map[string]any{}
	if path == "" {
		return raw, nil
	}

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "decide: open input %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "decide: parse input")
	}
	// A JSON null decodes to a nil map.
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func registerFieldFlags(fs *pflag.FlagSet) {
	for _, f := range fieldFlags {
		switch f.kind {
		case "float":
			fs.Float64(f.flag, 0, f.usage)
		case "bool":
			fs.Bool(f.flag, false, f.usage)
		default:
			fs.String(f.flag, "", f.usage)
		}
	}
}

// applyFieldFlags overlays every explicitly set field flag onto raw.
func applyFieldFlags(fs *pflag.FlagSet, raw map[string]any) {
	for _, f := range fieldFlags {
		if !fs.Changed(f.flag) {
			continue
		}
		switch f.kind {
		case "float":
			v, _ := fs.GetFloat64(f.flag)
			raw[f.field] = v
		case "bool":
			v, _ := fs.GetBool(f.flag)
			raw[f.field] = v
		default:
			v, _ := fs.GetString(f.flag)
			raw[f.field] = v
		}
	}
}

func writeReport(w io.Writer, res *model.ConsolidatedResult) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "RECOMMENDATION: %s\n", strings.ReplaceAll(string(res.FinalDecision), "_", " "))
	fmt.Fprintf(w, "RISK LEVEL: %s\n", res.OverallRiskLevel)
	fmt.Fprintf(w, "EXPECTED YIELD: %.0f%% (%s confidence)\n",
		res.YieldSummary.ExpectedYieldPercentage, strings.ToLower(res.YieldSummary.ConfidenceLevel))
	fmt.Fprintf(w, "DISEASE RISK: %s (%.2f), image analysis: %s\n",
		res.DiseaseSummary.RiskLevel, res.DiseaseSummary.RiskScore, res.DiseaseSummary.ImageAnalysis)
	if days := res.IrrigationSummary.FrequencyDays; days > 0 {
		fmt.Fprintf(w, "IRRIGATION: %.1fmm every %d days (water stress %s)\n",
			res.IrrigationSummary.RecommendedIrrigationMM, days, strings.ToLower(string(res.IrrigationSummary.WaterStressLevel)))
	} else {
		fmt.Fprintf(w, "IRRIGATION: no recommendation (water stress %s)\n",
			strings.ToLower(string(res.IrrigationSummary.WaterStressLevel)))
	}
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintln(w, res.Explanation)

	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRECOMMENDATIONS:")
		for i, rec := range res.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
	if factors := res.TechnicalDetails.RiskFactors; len(factors) > 0 {
		fmt.Fprintln(w, "\nRISK FACTORS:")
		for _, f := range factors {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	if len(res.ProcessingInfo.Warnings) > 0 {
		fmt.Fprintln(w, "\nWARNINGS:")
		for _, warn := range res.ProcessingInfo.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
	fmt.Fprintln(w, rule)
}

func init() {
	decideCmd.Flags().StringVar(&decideInput, "input", "", "JSON file with the field record (- for stdin)")
	decideCmd.Flags().StringVar(&decideFormat, "format", "text", "output format: text or json")
	registerFieldFlags(decideCmd.Flags())
	rootCmd.AddCommand(decideCmd)
}
