package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/textblock"
)

var identifyHints struct {
	namespace string
	name      string
	key       string
}

var identifyCmd = &cobra.Command{
	Use:   "identify [FILE]",
	Short: "Guess what kind of data a file holds",
	Long: `Guess the format of a file the way the info pane does for ConfigMap and Secret values:
binary signatures first, then naming rules on --namespace, --name and --key (the file name
by default), then content signatures.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := readArg(args)
		if err := checkStdin(path); err != nil {
			return err
		}
		data, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		hints := identifyHintsFor(path)
		id := textblock.Identify(data, hints)
		text, err := formatter.FormatYAML(map[string]any{
			"label":  id.Label,
			"format": id.Format.String(),
			"lexer":  id.Lexer,
			"binary": id.Binary,
		}, formatter.YAMLFormatOptions{})
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}

func identifyHintsFor(path string) textblock.Hints {
	h := textblock.Hints{Namespace: identifyHints.namespace, Name: identifyHints.name, Key: identifyHints.key}
	if h.Key == "" && path != "-" {
		h.Key = filepath.Base(path)
	}
	return h
}

func init() {
	f := identifyCmd.Flags()
	f.StringVar(&identifyHints.namespace, "namespace", "", "namespace of the object holding the data")
	f.StringVar(&identifyHints.name, "name", "", "name of the object holding the data")
	f.StringVar(&identifyHints.key, "key", "", "key the data is stored under (default: the file name)")
}
