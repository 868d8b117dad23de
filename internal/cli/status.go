package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/internal/db"
	"github.com/vvka-141/dwhetl/internal/logging"
	"github.com/vvka-141/dwhetl/internal/services"
	"github.com/vvka-141/dwhetl/internal/ui"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts of the star-schema tables",
	Long: `Status connects to the warehouse and prints the row count of each of the
seven tables, or "missing" for tables that do not exist.

Examples:
  dwhetl status
  dwhetl status -d dwh --output yaml`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

type statusFlagValues struct {
	configFlags
	connectionFlags
	output         string
	timeout        time.Duration
	connectRetries int
}

var statusFlags statusFlagValues

func init() {
	rootCmd.AddCommand(statusCmd)

	registerConfigFlags(statusCmd, &statusFlags.configFlags)
	registerConnectionFlags(statusCmd, &statusFlags.connectionFlags)
	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text",
		"Output format: text|yaml")
	_ = statusCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
	statusCmd.Flags().DurationVar(&statusFlags.timeout, "timeout", time.Minute,
		"Bound on connecting and counting")
	statusCmd.Flags().IntVar(&statusFlags.connectRetries, "connect-retries", dwhetl.DefaultRetryMaxAttempts,
		"Retries for transient connection failures (0 disables retrying)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	if statusFlags.output != "text" && statusFlags.output != "yaml" {
		return fmt.Errorf("invalid --output %q: must be text or yaml: %w", statusFlags.output, dwhetl.ErrInvalidConfig)
	}

	s, err := loadSettings(statusFlags.configFlags, verbose)
	if err != nil {
		return err
	}
	connConfig, err := resolveConnection(statusFlags.connectionFlags, s.resolver(statusFlags.configPath), verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if statusFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, statusFlags.timeout)
		defer cancel()
	}

	logger := logging.NewConsoleLogger(verbose)
	sm := services.NewSessionManager(db.NewConnector, logger)

	var session *dwhetl.Session
	acquire := func(ctx context.Context) error {
		var err error
		session, err = sm.Acquire(ctx, connConfig)
		return err
	}
	if statusFlags.connectRetries > 0 {
		err = newRetryExecutor(statusFlags.connectRetries, logger).Execute(ctx, acquire)
	} else {
		err = acquire(ctx)
	}
	if err != nil {
		return err
	}
	defer session.Close()

	statuses, err := services.TableStatuses(ctx, session.Conn(), catalog.Default().Tables())
	if err != nil {
		return err
	}

	if statusFlags.output == "yaml" {
		out, err := yaml.Marshal(map[string]any{
			"database": connConfig.Database,
			"tables":   statuses,
		})
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	fmt.Fprint(os.Stdout, ui.NewRenderer(ui.UseStyles(os.Stdout)).Status(connConfig.Database, statuses))
	return nil
}
