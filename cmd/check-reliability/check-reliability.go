package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/coding"
	"github.com/willbeason/coding-reliability/pkg/report"
)

const (
	FlagConfig     = "config"
	FlagDelimiter  = "delimiter"
	FlagEncoding   = "encoding"
	FlagHeader     = "header"
	FlagCategories = "categories"
	FlagRaters     = "raters"
	FlagReference  = "reference"
)

func init() {
	cmd.Flags().String(FlagConfig, "", "YAML options file")
	cmd.Flags().String(FlagDelimiter, "\t", "field delimiter")
	cmd.Flags().String(FlagEncoding, "utf-8", "primary text encoding (utf-8 or gbk)")
	cmd.Flags().Bool(FlagHeader, false, "treat the first line as a header row")
	cmd.Flags().StringSlice(FlagCategories, nil, "valid category values (default a,b)")
	cmd.Flags().IntSlice(FlagRaters, nil, "rater column indices (default: first five columns)")
	cmd.Flags().Int(FlagReference, -1, "reference column index (default: last column)")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:   "check-reliability [FILE]",
	Short: "Compute inter- and intra-rater agreement statistics for a coding table",
	Long: `Computes pairwise Cohen's Kappa between each AI rater and the human
reference, between the AI raters themselves, and the disagreement case sets,
then writes a narrative report and a per-case coding export next to the
input file. Prompts for the file path when none is given.`,
	Args:    cobra.MaximumNArgs(1),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrCheckReliability = errors.New("checking coding reliability")

func runE(cmd *cobra.Command, args []string) error {
	path, err := inputPath(cmd, args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckReliability, err)
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckReliability, err)
	}

	table, err := coding.Load(path, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckReliability, err)
	}
	fmt.Printf("Successfully loaded file: %s (%d bytes)\n", table.Path, table.BytesRead)
	fmt.Printf("Loaded %d cases, AI coders: %d, Human coder: 1\n\n", len(table.Rows), table.NRaters())

	analysis := agreement.Analyze(table)
	fmt.Print(report.FormatAnalysis(analysis))

	// Computation is complete; write failures are reported without
	// discarding artifacts that were already flushed.
	written, err := report.WriteAnalysis(analysis)
	if len(written) > 0 {
		fmt.Println("\nResults saved to:")
		for _, artifact := range written {
			fmt.Printf("  - %s\n", artifact)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckReliability, err)
	}
	return nil
}

// inputPath returns the file path argument, prompting on stdin when the
// argument was omitted.
func inputPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Please enter your file path (e.g., /path/to/your_file.txt): ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading file path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", errors.New("no file path given")
	}
	return path, nil
}

// buildOptions loads the YAML options file, if any, then applies flag
// overrides on top.
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
	if cmd.Flags().Changed(FlagHeader) {
		opts.Header, err = cmd.Flags().GetBool(FlagHeader)
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
	if cmd.Flags().Changed(FlagRaters) {
		indices, err := cmd.Flags().GetIntSlice(FlagRaters)
		if err != nil {
			return opts, err
		}
		opts.Raters = nil
		for _, index := range indices {
			opts.Raters = append(opts.Raters, coding.ByIndex(index))
		}
	}
	if cmd.Flags().Changed(FlagReference) {
		index, err := cmd.Flags().GetInt(FlagReference)
		if err != nil {
			return opts, err
		}
		selector := coding.ByIndex(index)
		opts.Reference = &selector
	}

	return opts, nil
}
