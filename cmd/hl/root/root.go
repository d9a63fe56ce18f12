package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

const Version = "0.1.0"

var (
	configPath string
	assumeYes  bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hl",
		Short:         "habitline: local-first gamified habit tracker",
		Long:          "habitline tracks habits as progress grids across mind, body and spirit, with XP, coins, streak plans and optional cloud sync.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/habitline/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmations")

	cmd.AddCommand(
		newStatusCmd(),
		newListCmd(),
		newTaskCmd(),
		newGoalCmd(),
		newRewardCmd(),
		newPlanCmd(),
		newRoutineCmd(),
		newChallengeCmd(),
		newSyncCmd(),
		newConfigCmd(),
		newResetCmd(),
		newBoardCmd(),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			fmt.Fprintln(os.Stderr, ui.Muted.Render("Cancelled."))
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
