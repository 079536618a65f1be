package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"attrschema/internal/domain/entity"
	"attrschema/internal/errors"
	"attrschema/internal/transfer"
	"attrschema/internal/usecase"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	format          string
	output          string
	key             string
	statuses        []string
	groups          []string
	includeGroups   bool
	includeValues   bool
	includeSettings bool
}

func newExportCmd(root *rootFlags) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export definitions to a file, stdout or the export bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			var transferUC usecase.TransferUsecase
			stop, err := startApp(cmd.Context(), storageOptions(), &transferUC)
			if err != nil {
				return err
			}
			defer stop()

			ctx := actorContext(cmd.Context(), root)
			if flags.key != "" {
				if err := transferUC.ExportToStore(ctx, flags.key, flags.format, opts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", flags.key)

				return nil
			}

			doc, err := transferUC.Export(ctx, opts)
			if err != nil {
				return err
			}
			data, err := transfer.Encode(doc, flags.format)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), flags.output, data)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", transfer.FormatJSON, "document format (json or yaml)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&flags.key, "key", "", "write to this key of the export bucket instead of a file")
	cmd.Flags().StringSliceVar(&flags.statuses, "status", nil, "only export definitions with these statuses")
	cmd.Flags().StringSliceVar(&flags.groups, "group", nil, "only export definitions in these groups")
	cmd.Flags().BoolVar(&flags.includeGroups, "include-groups", true, "include group metadata")
	cmd.Flags().BoolVar(&flags.includeValues, "include-values", false, "include stored principal values")
	cmd.Flags().BoolVar(&flags.includeSettings, "include-settings", false, "include deployment settings")

	return cmd
}

func (f *exportFlags) options() (*usecase.ExportOptions, error) {
	if _, err := transfer.NormalizeFormat(f.format); err != nil {
		return nil, err
	}

	opts := &usecase.ExportOptions{
		Groups:          f.groups,
		IncludeGroups:   f.includeGroups,
		IncludeValues:   f.includeValues,
		IncludeSettings: f.includeSettings,
		Origin:          cliOrigin,
	}
	for _, raw := range f.statuses {
		status := entity.Status(raw)
		if !status.IsValid() {
			return nil, errors.Errorf("unknown status %q", raw)
		}
		opts.Statuses = append(opts.Statuses, status)
	}

	return opts, nil
}

type importFlags struct {
	format       string
	key          string
	conflictMode string
	dryRun       bool
	importValues bool
	importGroups bool
}

func newImportCmd(root *rootFlags) *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import definitions from a file, stdin or the export bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &usecase.ImportOptions{
				ConflictMode: flags.conflictMode,
				DryRun:       flags.dryRun,
				ImportValues: flags.importValues,
				ImportGroups: flags.importGroups,
			}

			var data []byte
			if flags.key == "" {
				source := "-"
				if len(args) == 1 {
					source = args[0]
				}
				var err error
				if data, err = readInput(cmd.InOrStdin(), source); err != nil {
					return err
				}
				if flags.format == "" {
					flags.format = transfer.FormatFromKey(source)
				}
			}

			var transferUC usecase.TransferUsecase
			stop, err := startApp(cmd.Context(), storageOptions(), &transferUC)
			if err != nil {
				return err
			}
			defer stop()

			ctx := actorContext(cmd.Context(), root)
			var result *usecase.ImportResult
			if flags.key != "" {
				result, err = transferUC.ImportFromStore(ctx, flags.key, opts)
			} else {
				result, err = transferUC.ImportBytes(ctx, data, flags.format, opts)
			}
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "document format; guessed from the file extension when empty")
	cmd.Flags().StringVar(&flags.key, "key", "", "read this key from the export bucket instead of a file")
	cmd.Flags().StringVar(&flags.conflictMode, "conflict", usecase.ConflictSkip, "what to do with existing names: skip, update or rename")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&flags.importValues, "values", false, "import principal values carried by the document")
	cmd.Flags().BoolVar(&flags.importGroups, "groups", true, "import group metadata carried by the document")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check an import document offline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			data, err := readInput(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}
			if format == "" {
				format = transfer.FormatFromKey(source)
			}

			doc, err := transfer.Decode(data, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document is valid: format %s, %d definitions\n",
				doc.FormatVersion, len(doc.Data.Definitions))

			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "document format; guessed from the file extension when empty")

	return cmd
}

func readInput(stdin io.Reader, source string) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}

		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", source)
	}

	return data, nil
}

func writeOutput(stdout io.Writer, target string, data []byte) error {
	if target == "-" {
		_, err := stdout.Write(data)

		return errors.Wrap(err, "failed to write stdout")
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}

	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(v), "failed to print result")
}
