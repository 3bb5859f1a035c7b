package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
)

func (a *app) newDiffCmd() *cobra.Command {
	var omitFromValue, verify bool
	cmd := &cobra.Command{
		Use:   "diff <actual.json> <expected.json>",
		Short: "Diff two JSON arrays of documents",
		Long: `Prints the JSON Patch that turns the actual documents into the expected
ones. No engine is involved. Exits 1 when the documents differ.

With --verify the patch is replayed against the actual documents and the
command fails unless the result equals the expected documents.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actualVal, err := readDocument(args[0])
			if err != nil {
				return err
			}
			actual, ok := actualVal.AsSequence()
			if !ok {
				return fmt.Errorf("%s: must be an array, got %s", args[0], actualVal.Kind())
			}
			expectedVal, err := readDocument(args[1])
			if err != nil {
				return err
			}
			expected, err := compare.ValidateExpected(expectedVal)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			ops := jsondiff.Options{OmitFromValue: omitFromValue}.Diff(actual, expected)
			if verify {
				if err := verifyPatch(actual, expected, ops); err != nil {
					return err
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), map[string]any{"diff": ops}); err != nil {
				return err
			}
			if len(ops) > 0 {
				return diverged("%d operations", len(ops))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&omitFromValue, "omit-from-value", false, "leave fromValue out of replace operations")
	cmd.Flags().BoolVar(&verify, "verify", false, "replay the patch and check it reproduces the expected documents")
	return cmd
}

// verifyPatch replays ops against actual and checks the result is expected.
func verifyPatch(actual, expected []document.Value, ops []jsondiff.Operation) error {
	patched, err := jsondiff.Apply(actual, ops)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !document.Equal(document.Seq(patched...), document.Seq(expected...)) {
		return fmt.Errorf("verify: patched documents do not equal the expected documents")
	}
	return nil
}

func readDocument(path string) (document.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.Value{}, err
	}
	defer f.Close()
	v, err := document.Decode(f)
	if err != nil {
		return document.Value{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
