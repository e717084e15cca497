// Command analysis inspects xxh3 digests and measures Bloom filter false
// positive rates against the closed-form estimate.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcalabro/xxbloom/internal/cpu"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "analysis",
		Short:         "Diagnostics for xxh3 and xxbloom",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return err
		}
		if debug {
			logrus.SetLevel(logrus.DebugLevel)
			logrus.WithFields(logrus.Fields{
				"cpu":  cpu.Name(),
				"avx2": cpu.HasAVX2,
				"sse2": cpu.HasSSE2,
			}).Debug("host")
		}
		return nil
	}

	cmd.AddCommand(newSumCmd(), newFprateCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
