// ABOUTME: Root command wiring global flags, logging, and subcommands
// ABOUTME: Entry point for every chatdesk CLI invocation
package commands

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harper/chatdesk/internal/config"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	userFlag     string
	modeFlag     string
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██████╗ ███████╗███████╗██╗  ██╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝
██║     ███████║███████║   ██║   ██║  ██║█████╗  ███████╗█████╔╝
██║     ██╔══██║██╔══██║   ██║   ██║  ██║██╔══╝  ╚════██║██╔═██╗
╚██████╗██║  ██║██║  ██║   ██║   ██████╔╝███████╗███████║██║  ██╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatdesk",
		Short: "Terminal client for the SQL and SOP document assistant",
		Long: banner + `

Chat with the question-answering backend from your terminal.

Every question is routed either to the database (sql mode) or to the
uploaded SOP documents (pdf mode). Past conversations can be listed,
reopened, grouped by day, and exported from a local cache.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupGlobals,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Username (overrides CHATDESK_USERNAME and the saved login)")
	cmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Routing mode: sql or pdf (overrides CHATDESK_MODE)")

	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewTimelineCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewWhoamiCmd())
	cmd.AddCommand(NewUploadCmd())
	cmd.AddCommand(NewTablesCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// setupGlobals validates global flags and configures logging
func setupGlobals(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}
	switch outputFormat {
	case "auto", "table", "json":
	default:
		return errors.New("--format must be auto, table, or json")
	}

	// Load .env if present; real environment variables win
	_ = godotenv.Load()

	// Config errors surface when the command loads it; logging still needs a level
	level := zerolog.InfoLevel
	if cfg, _ := config.Load(); cfg != nil {
		level = cfg.Level()
	}
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: "15:04:05"})
	return nil
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
