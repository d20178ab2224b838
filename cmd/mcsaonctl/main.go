package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcsaonctl",
		Short: "Check, grade and convert multi-select questions",
		Long: `mcsaonctl works on question definition files without a server.

FILE may be YAML (one question, or a list under "questions") or a Moodle XML
quiz export. Options without an id are numbered 1, 2, 3, ... in file order.`,
		SilenceUsage: true,
	}

	var selectFlag []string
	var questionFlag string
	gradeCmd := &cobra.Command{
		Use:   "grade FILE",
		Short: "Grade a selection against a question",
		Long: `Grade a set of selected option ids.

Examples:
  mcsaonctl grade primes.yaml --select 1,2
  mcsaonctl grade bank.yaml --question primes --select a --select c`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(cmd.OutOrStdout(), args[0], questionFlag, selectFlag)
		},
	}
	gradeCmd.Flags().StringSliceVarP(&selectFlag, "select", "s", nil, "Selected option ids (comma separated or repeated)")
	gradeCmd.Flags().StringVarP(&questionFlag, "question", "q", "", "Question id when FILE holds several")

	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check the answer configuration of every question in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}

	var xlsxFlag string
	responsesCmd := &cobra.Command{
		Use:   "responses FILE",
		Short: "List the possible responses of a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResponses(cmd.OutOrStdout(), args[0], questionFlag, xlsxFlag)
		},
	}
	responsesCmd.Flags().StringVar(&xlsxFlag, "xlsx", "", "Write the analysis to this XLSX file instead of stdout")
	responsesCmd.Flags().StringVarP(&questionFlag, "question", "q", "", "Question id when FILE holds several")

	exportCmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Convert YAML definitions to Moodle XML on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), args[0])
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE.xml",
		Short: "Convert a Moodle XML quiz to YAML definitions on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(responsesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	return rootCmd
}
