package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jcalabro/xxbloom/xxh3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sum [file ...]",
		Short: "Print the XXH3 64 and 128-bit digests of files or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := cmd.Flags().GetUint64("seed")
			if err != nil {
				return err
			}
			blockSize, err := cmd.Flags().GetInt("block-size")
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return sumReader(cmd.Context(), cmd.OutOrStdout(), os.Stdin, "-", seed, blockSize)
			}
			for _, name := range args {
				if err := sumFile(cmd.Context(), cmd.OutOrStdout(), name, seed, blockSize); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "Hash seed")
	cmd.Flags().Int("block-size", xxh3.DefaultReadBlockSize, "Read size in bytes")
	return cmd
}

func sumFile(ctx context.Context, w io.Writer, name string, seed uint64, blockSize int) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return sumReader(ctx, w, f, name, seed, blockSize)
}

func sumReader(ctx context.Context, w io.Writer, r io.Reader, name string, seed uint64, blockSize int) error {
	h := xxh3.NewSeed(seed)
	n, err := h.ReadFromContext(ctx, r, blockSize)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"file":  name,
		"bytes": n,
		"seed":  seed,
	}).Debug("hashed")

	_, err = fmt.Fprintf(w, "%016x  %s  %s\n", h.Sum64(), h.Sum128(), name)
	return err
}
