package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiranshivaraju/contractscan/internal/analysis"
	"github.com/kiranshivaraju/contractscan/internal/extract"
	"github.com/kiranshivaraju/contractscan/pkg/models"
	"github.com/spf13/cobra"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a PDF or TXT contract and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("create AI client: %w", err)
		}
		svc := analysis.NewService(extract.New(), client, analysis.Options{
			MinContentChars: cfg.Analysis.MinContentChars,
			Model:           cfg.AI.Model,
		})

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := svc.Analyze(cmd.Context(), filepath.Base(path), f)
		if err != nil {
			kind, _ := models.KindOf(err)
			return fmt.Errorf("analysis failed (%s): %w", kind, err)
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			return writeJSON(out, res)
		}
		writeText(out, res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	RootCmd.AddCommand(analyzeCmd)
}

type jsonOutput struct {
	Report   models.Report   `json:"report"`
	RiskBand models.RiskBand `json:"risk_band"`
	Quality  models.Quality  `json:"quality"`
}

func writeJSON(w io.Writer, res *analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonOutput{Report: res.Report, RiskBand: res.Report.Band(), Quality: res.Quality})
}

func writeText(w io.Writer, res *analysis.Result) {
	rep := res.Report
	fmt.Fprintf(w, "Contract type: %s\n", rep.ContractType)
	fmt.Fprintf(w, "Risk score:    %d/100 (%s)\n", rep.RiskScore, rep.Band())
	if len(rep.Parties) > 0 {
		fmt.Fprintf(w, "Parties:       %s\n", strings.Join(rep.Parties, ", "))
	}
	fmt.Fprintf(w, "Duration:      %s\n\n", rep.Duration)
	fmt.Fprintf(w, "%s\n", rep.Summary)

	if alerts := rep.AlertsBySeverity(); len(alerts) > 0 {
		fmt.Fprintf(w, "\nCritical alerts:\n")
		for _, a := range alerts {
			fmt.Fprintf(w, "\n[%s] %s\n", a.Severity, a.LegalTerm)
			fmt.Fprintf(w, "  Clause:     %s\n", a.ClauseText)
			fmt.Fprintf(w, "  Risk:       %s\n", a.RiskExplanation)
			fmt.Fprintf(w, "  Suggestion: %s\n", a.Suggestion)
		}
	}

	if len(rep.MissingClauses) > 0 {
		fmt.Fprintf(w, "\nMissing clauses:\n")
		for _, c := range rep.MissingClauses {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}

	if res.Quality.ScoreClamped {
		fmt.Fprintf(w, "\nNote: the model returned a risk score of %v; it was clamped to %d.\n",
			res.Quality.OriginalScore, rep.RiskScore)
	}
}
