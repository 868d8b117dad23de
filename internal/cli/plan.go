package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/internal/logging"
	"github.com/vvka-141/dwhetl/internal/services"
	"github.com/vvka-141/dwhetl/internal/ui"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the statements a run would send",
	Long: `Plan resolves the configuration and renders every statement in execution
order without connecting to the warehouse.

The role ARN and S3 locations appear in the rendered COPY statements.
Connection credentials are never printed.

Examples:
  # Human-readable plan with one-line previews
  dwhetl plan

  # Only the load stages, with full SQL
  dwhetl plan --stage copy --stage insert --sql

  # Machine-readable
  dwhetl plan --output yaml`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

type planFlagValues struct {
	configFlags
	stages  []string
	output  string
	showSQL bool
}

var planFlags planFlagValues

func init() {
	rootCmd.AddCommand(planCmd)

	registerConfigFlags(planCmd, &planFlags.configFlags)
	planCmd.Flags().StringSliceVar(&planFlags.stages, "stage", nil,
		"Limit the plan to stages: drop|create|copy|insert (default: all)")
	_ = planCmd.RegisterFlagCompletionFunc("stage", completeStages)
	planCmd.Flags().StringVarP(&planFlags.output, "output", "o", "text",
		"Output format: text|yaml")
	_ = planCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
	planCmd.Flags().BoolVar(&planFlags.showSQL, "sql", false,
		"Print full SQL instead of one-line previews (text output only)")
}

// planDocument is the yaml form of a plan.
type planDocument struct {
	Catalog       string               `yaml:"catalog"`
	Configuration dwhetl.Configuration `yaml:"configuration"`
	Stages        []planStage          `yaml:"stages"`
}

type planStage struct {
	Category   string          `yaml:"category"`
	Statements []planStatement `yaml:"statements"`
}

type planStatement struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	SQL   string `yaml:"sql"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	if planFlags.output != "text" && planFlags.output != "yaml" {
		return fmt.Errorf("invalid --output %q: must be text or yaml: %w", planFlags.output, dwhetl.ErrInvalidConfig)
	}

	stages, err := parseStages(planFlags.stages)
	if err != nil {
		return err
	}

	s, err := loadSettings(planFlags.configFlags, verbose)
	if err != nil {
		return err
	}

	rc := dwhetl.RunConfig{
		ConfigPath: planFlags.configPath,
		Overrides:  s.overrides,
		Stages:     stages,
		Verbose:    verbose,
	}
	cfg, rendered, err := services.NewPlanner(logging.NewConsoleLogger(verbose), catalog.Default(), s.opts...).Plan(rc)
	if err != nil {
		return err
	}

	fingerprint := catalog.Default().Fingerprint()
	if planFlags.output == "yaml" {
		return writePlanYAML(os.Stdout, fingerprint, cfg, rendered)
	}
	fmt.Fprint(os.Stdout, ui.NewRenderer(ui.UseStyles(os.Stdout)).Plan(rendered, fingerprint, planFlags.showSQL))
	return nil
}

func writePlanYAML(w io.Writer, fingerprint string, cfg dwhetl.Configuration, stages []catalog.RenderedStage) error {
	doc := planDocument{
		Catalog:       fingerprint,
		Configuration: cfg,
	}
	for _, st := range stages {
		ps := planStage{Category: st.Category.String()}
		for _, stmt := range st.Statements {
			ps.Statements = append(ps.Statements, planStatement{
				Index: stmt.OrderIndex,
				Name:  stmt.Name,
				SQL:   stmt.SQL,
			})
		}
		doc.Stages = append(doc.Stages, ps)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}
