package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vbauerster/mpb"
	"golang.org/x/term"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/coding"
	"github.com/willbeason/coding-reliability/pkg/comparison"
	"github.com/willbeason/coding-reliability/pkg/report"
)

const (
	FlagConfig     = "config"
	FlagDelimiter  = "delimiter"
	FlagEncoding   = "encoding"
	FlagCategories = "categories"
	FlagSeed       = "seed"
)

func init() {
	cmd.Flags().String(FlagConfig, "", "YAML options file applied to both inputs")
	cmd.Flags().String(FlagDelimiter, "\t", "field delimiter")
	cmd.Flags().String(FlagEncoding, "utf-8", "primary text encoding (utf-8 or gbk)")
	cmd.Flags().StringSlice(FlagCategories, nil, "valid category values (default a,b)")
	cmd.Flags().Int64(FlagSeed, 0, "bootstrap random seed")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:   "compare-reliability FILE1 FILE2 ITERATIONS",
	Short: "Statistically compare the agreement analyses of two coding tables",
	Long: `Runs the full agreement analysis on both input tables independently,
then compares them: independent t-tests on the Fisher z-transformed Kappa
sets, a two-proportion Z-test on the disagreement rates, Mann-Whitney U
verification, and Benjamini-Hochberg correction across the three p-values.
ITERATIONS bootstrap resamples estimate confidence intervals for the mean
Kappas of each analysis.`,
	Args:    cobra.ExactArgs(3),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrCompareReliability = errors.New("comparing coding reliability")

func runE(cmd *cobra.Command, args []string) error {
	iterations, err := strconv.Atoi(args[2])
	if err != nil || iterations <= 0 {
		return fmt.Errorf("%w: ITERATIONS must be a positive integer, got %q", ErrCompareReliability, args[2])
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompareReliability, err)
	}

	// Each analysis run reads its own copy of its input; the two tables
	// never alias.
	table1, err := coding.Load(args[0], opts)
	if err != nil {
		return fmt.Errorf("%w: loading first table: %w", ErrCompareReliability, err)
	}
	table2, err := coding.Load(args[1], opts)
	if err != nil {
		return fmt.Errorf("%w: loading second table: %w", ErrCompareReliability, err)
	}

	analysis1 := agreement.Analyze(table1)
	analysis2 := agreement.Analyze(table2)

	seed, err := getSeed(cmd)
	if err != nil {
		return fmt.Errorf("%w: getting seed: %w", ErrCompareReliability, err)
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 80
	}
	progress := mpb.New(mpb.WithWidth(width))

	boot1 := comparison.Bootstrap(table1, iterations, seed, progress)
	boot2 := comparison.Bootstrap(table2, iterations, seed+1, progress)

	result := comparison.Compare(analysis1, analysis2, boot1, boot2)
	fmt.Print(report.FormatComparison(result))

	written, err := report.WriteComparison(result)
	if len(written) > 0 {
		fmt.Println("\nResults saved to:")
		for _, artifact := range written {
			fmt.Printf("  - %s\n", artifact)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompareReliability, err)
	}
	return nil
}

func buildOptions(cmd *cobra.Command) (coding.Options, error) {
	var opts coding.Options

	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return opts, err
	}
	if configPath != "" {
		opts, err = coding.LoadOptions(configPath)
		if err != nil {
			return opts, err
		}
	}

	if cmd.Flags().Changed(FlagDelimiter) || opts.Delimiter == "" {
		opts.Delimiter, err = cmd.Flags().GetString(FlagDelimiter)
		if err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed(FlagEncoding) {
		opts.Encoding, err = cmd.Flags().GetString(FlagEncoding)
		if err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed(FlagCategories) {
		opts.Categories, err = cmd.Flags().GetStringSlice(FlagCategories)
		if err != nil {
			return opts, err
		}
	}

	return opts, nil
}

func getSeed(cmd *cobra.Command) (int64, error) {
	// Check if the user set the seed manually.
	seedSet := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == FlagSeed {
			seedSet = true
		}
	})

	if seedSet {
		// User-provided seed.
		seed, err := cmd.Flags().GetInt64(FlagSeed)
		if err != nil {
			return 0, err
		}
		return seed, nil
	} else {
		// Use time as seed.
		return time.Now().UnixNano(), nil
	}
}
