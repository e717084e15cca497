package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jcalabro/xxbloom"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type fprateConfig struct {
	keys    uint64
	fpRate  float64
	seed    uint64
	probes  int // overrides the table choice when non-zero
	queries uint64
}

type fprateResult struct {
	sizeBytes int
	probes    int
	measured  float64
	estimated float64
}

func newFprateCmd() *cobra.Command {
	var cfg fprateConfig

	cmd := &cobra.Command{
		Use:   "fprate",
		Short: "Measure the false positive rate of a filter against its estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := measureFpRate(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"keys":      cfg.keys,
				"target":    cfg.fpRate,
				"bytes":     res.sizeBytes,
				"probes":    res.probes,
				"measured":  res.measured,
				"estimated": res.estimated,
			}).Info("false positive rate")

			return printResult(cmd.OutOrStdout(), cfg, res)
		},
	}

	cmd.Flags().Uint64Var(&cfg.keys, "keys", 1_000_000, "Number of keys to add")
	cmd.Flags().Float64Var(&cfg.fpRate, "fp", 0.01, "Target false positive rate")
	cmd.Flags().Uint64Var(&cfg.seed, "seed", 0, "Filter seed")
	cmd.Flags().IntVar(&cfg.probes, "probes", 0, "Probe count override (1-24)")
	cmd.Flags().Uint64Var(&cfg.queries, "queries", 1_000_000, "Number of absent keys to query")
	return cmd
}

func newFilter(cfg fprateConfig) (*xxbloom.Filter, error) {
	if cfg.probes == 0 {
		return xxbloom.NewForKeys(cfg.keys, cfg.fpRate, cfg.seed)
	}
	size, mbpk := xxbloom.EstimateSize(cfg.keys, cfg.fpRate)
	if est := xxbloom.EstimatedFpRate(max(cfg.keys, 1), uint64(size), xxbloom.ChooseNumProbes(mbpk), 64); est > cfg.fpRate {
		return nil, fmt.Errorf("%w: %d keys cannot reach false positive rate %g", xxbloom.ErrInvalidSize, cfg.keys, cfg.fpRate)
	}
	return xxbloom.NewWithProbes(size, cfg.probes, cfg.seed)
}

// measureFpRate adds keys 0..keys-1 and queries keys..keys+queries-1, all
// encoded as 8-byte little-endian integers.
func measureFpRate(ctx context.Context, cfg fprateConfig) (fprateResult, error) {
	if cfg.queries == 0 {
		return fprateResult{}, errors.New("queries must be positive")
	}

	f, err := newFilter(cfg)
	if err != nil {
		return fprateResult{}, err
	}

	var key [8]byte
	for i := uint64(0); i < cfg.keys; i++ {
		if i&0xffff == 0 && ctx.Err() != nil {
			return fprateResult{}, ctx.Err()
		}
		binary.LittleEndian.PutUint64(key[:], i)
		f.Add(key[:])
	}
	logrus.WithField("fill", f.EstimatedFillRatio()).Debug("filter populated")

	var hits uint64
	for i := uint64(0); i < cfg.queries; i++ {
		if i&0xffff == 0 && ctx.Err() != nil {
			return fprateResult{}, ctx.Err()
		}
		binary.LittleEndian.PutUint64(key[:], cfg.keys+i)
		if f.MayMatch(key[:]) {
			hits++
		}
	}

	return fprateResult{
		sizeBytes: f.Len(),
		probes:    f.NumProbes(),
		measured:  float64(hits) / float64(cfg.queries),
		estimated: f.EstimatedFalsePositiveRate(cfg.keys),
	}, nil
}

func printResult(w io.Writer, cfg fprateConfig, res fprateResult) error {
	bitsPerKey := float64(res.sizeBytes*8) / float64(max(cfg.keys, 1))
	_, err := fmt.Fprintf(w, "keys=%d bytes=%d bits/key=%.2f probes=%d measured=%.6f estimated=%.6f\n",
		cfg.keys, res.sizeBytes, bitsPerKey, res.probes, res.measured, res.estimated)
	return err
}
