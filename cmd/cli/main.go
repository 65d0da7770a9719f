package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/processor"
	"github.com/thisisjab/oafilter/querier/encoder"
	"github.com/thisisjab/oafilter/querier/lexer"
	"github.com/thisisjab/oafilter/querier/parser"
)

var logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

func main() {
	NewCLI().Run()
}

// CLI is the Cobra-based command-line interface.
type CLI struct {
	root *cobra.Command
}

// NewCLI sets up the CLI.
func NewCLI() *CLI {
	cli := &CLI{}
	cli.root = &cobra.Command{
		Use:           "oafilter",
		Short:         "Parse and serialize OGC API feature filter expressions",
		SilenceUsage:  true,
		SilenceErrors: true, // we'll output them ourselves in Run()
	}

	tokenizeCmd := &cobra.Command{
		Use:   "tokenize [expression]",
		Short: "Print the tokens of an expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return cli.tokenize(cmd.OutOrStdout(), text)
		},
	}

	parseCmd := &cobra.Command{
		Use:   "parse [expression]",
		Short: "Parse an expression into filter groups, printed as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("queryables")
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return cli.parse(cmd.OutOrStdout(), path, text)
		},
	}
	parseCmd.Flags().StringP("queryables", "q", "", "Queryables document (JSON Schema or JSON array)")
	_ = parseCmd.MarkFlagRequired("queryables")

	serializeCmd := &cobra.Command{
		Use:   "serialize [groups.json]",
		Short: "Serialize JSON filter groups into an expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			return cli.serialize(cmd.OutOrStdout(), data)
		},
	}

	cli.root.AddCommand(tokenizeCmd, parseCmd, serializeCmd)

	return cli
}

// readInput returns the expression given as argument, or read from stdin when there is
// none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (cli *CLI) tokenize(w io.Writer, text string) error {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPAN\tTYPE\tRAW\tLITERAL\tOPERATOR")
	for _, tok := range tokens {
		fmt.Fprintf(tw, "%d-%d\t%s\t%s\t%q\t%s\n", tok.Start, tok.End, tok.Type, tok.Raw, tok.Literal, tok.Operator)
	}
	return tw.Flush()
}

func (cli *CLI) parse(w io.Writer, queryablesPath, text string) error {
	doc, err := os.ReadFile(queryablesPath)
	if err != nil {
		return fmt.Errorf("cannot read queryables: %w", err)
	}

	queryables, err := processor.DecodeDocument(doc)
	if err != nil {
		return err
	}

	groups, err := parser.Parse(text, queryables)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(groups)
}

func (cli *CLI) serialize(w io.Writer, data []byte) error {
	var groups []entity.FilterGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return fmt.Errorf("cannot decode filter groups: %w", err)
	}

	_, err := fmt.Fprintln(w, encoder.Encode(groups))
	return err
}

// Run runs the CLI.
func (cli *CLI) Run() {
	if err := cli.root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
