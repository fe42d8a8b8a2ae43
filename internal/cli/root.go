// Package cli implements the freshfetch commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/freshfetch/internal/logger"
	"github.com/glorpus-work/freshfetch/pkg/download"
	"github.com/glorpus-work/freshfetch/pkg/errors"
	httpPkg "github.com/glorpus-work/freshfetch/pkg/http"
	"github.com/glorpus-work/freshfetch/pkg/orchestrator"
	"github.com/glorpus-work/freshfetch/pkg/profile"
)

// NewRootCmd creates the freshfetch command. Its only argument is the
// profile file to process.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "freshfetch [flags] PROFILE_FILE",
		Short: "Download new releases of remotely hosted files",
		Long: `freshfetch downloads the latest version of each file described in a
profile file. Files are only transferred when the remote copy is newer than
the local one, and are replaced only after the new content passed its checks.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runProfiles,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	ConfigPath = &configPath
	Verbose = &verbose
	LogFormat = &logFormat

	cmd.AddCommand(
		NewConfigCmd(),
		NewVersionCmd(),
	)

	return cmd
}

func runProfiles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return cmd.Usage()
	}

	path := args[0]
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		_, _ = fmt.Fprintf(out, "Profile file not found: %s\n", path)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runID := setupLogging(cfg.Settings)

	profiles, err := profile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	logger.Info("Processing profiles", logger.Fields{"file": path, "count": len(profiles)})

	client := httpPkg.NewClient(cfg.HTTP)
	defer client.Close()

	orch := orchestrator.New(client, download.NewManager(client, nil), nil)
	orch.Hooks.OnEvent = func(e orchestrator.Event) {
		logger.Debug("Progress", logger.Fields{"phase": e.Phase, "profile": e.ID, "detail": e.Msg})
	}

	results := orch.Run(cmd.Context(), profiles)
	printSummary(out, results)

	logger.Info("Run finished", logger.Fields{"run_id": runID})
	return nil
}

func printSummary(out io.Writer, results []orchestrator.Result) {
	counts := map[orchestrator.Status]int{}

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "PROFILE\tSTATUS\tDETAIL")
	for _, r := range results {
		counts[r.Status]++
		detail := r.Path
		status := r.Status.String()
		if r.Status == orchestrator.StatusFailed {
			status = fmt.Sprintf("%s (%s)", status, errors.KindOf(r.Err))
			detail = r.Err.Error()
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\n", r.Profile.DisplayName(), status, detail)
	}
	_ = tabWriter.Flush()

	_, _ = fmt.Fprintf(out, "\n%d fetched, %d unchanged, %d failed\n",
		counts[orchestrator.StatusFetched], counts[orchestrator.StatusUnchanged], counts[orchestrator.StatusFailed])
}
