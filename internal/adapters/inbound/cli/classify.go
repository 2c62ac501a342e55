package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkraft/headeraudit/internal/adapters/outbound/config"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/tui"
	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
)

type classification struct {
	File          string                  `json:"file"`
	Template      domain.DeclaredTemplate `json:"template"`
	HasHeader     bool                    `json:"has_header"`
	Expected      domain.Variant          `json:"expected,omitempty"`
	ExpectedLabel string                  `json:"expected_label,omitempty"`
}

func newClassifyCmd() *cobra.Command {
	var (
		configPath string
		template   string
		pattern    string
		fallback   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Print the header variant a raw source file should render",
		Long:  "Run the classifier on a local raw-source file for a declared template. No network or browser is used.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New().Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("pattern") {
				cfg.Classify.Pattern = domain.HeaderPattern(pattern)
			}
			if cmd.Flags().Changed("fallback") {
				cfg.Classify.BlackFallback = domain.Variant(fallback)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}

			c := classify.FromConfig(cfg.Classify)
			tpl := domain.ParseDeclaredTemplate(template)
			expected, ok := c.Expected(tpl, string(raw))

			if jsonOutput {
				res := classification{
					File:      args[0],
					Template:  tpl,
					HasHeader: c.HasLeadingHeader(string(raw)),
				}
				if ok {
					res.Expected = expected
					res.ExpectedLabel = expected.Label()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderClassification(args[0], tpl, expected, ok))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "Config file, or directory containing "+config.FileName)
	cmd.Flags().StringVarP(&template, "template", "t", "", "Declared template (FULL or BLACK)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Structural pattern (header, header_or_figure)")
	cmd.Flags().StringVar(&fallback, "fallback", "", "Variant for BLACK pages without a header (bar, without-media-news)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
