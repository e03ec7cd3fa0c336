// Command xmlcore is a small front end over the parser/builder/dom/xpath packages: parse,
// validate, pretty-print and run XPath queries against a document from the command line.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r2/xmlcore/builder"
	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/parser"
	"github.com/r2/xmlcore/xpath"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xmlcore",
		Short: "parse, validate, format and query XML 1.0 documents",
	}
	root.AddCommand(newParseCmd(), newValidateCmd(), newFmtCmd(), newXPathCmd())
	return root
}

// inputReader opens path, or falls back to stdin when path is empty or "-".
func inputReader(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func readAll(path string) ([]byte, error) {
	r, err := inputReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func newParseCmd() *cobra.Command {
	var namespaceAware bool
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "parse a document and report its element count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readAll(firstArg(args))
			if err != nil {
				return err
			}
			var opts []parser.Option
			if namespaceAware {
				opts = append(opts, parser.WithNamespaceValidation())
			}
			doc, err := builder.Build(data, opts)
			if err != nil {
				return err
			}
			count := 0
			var walk func(*dom.Node)
			walk = func(n *dom.Node) {
				if n.Type == dom.ElementNode {
					count++
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
			}
			walk(doc.Node())
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d elements\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&namespaceAware, "namespace", false, "enforce namespace well-formedness")
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "parse a document and validate it against its internal DTD subset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readAll(firstArg(args))
			if err != nil {
				return err
			}
			if _, err := builder.Build(data, []parser.Option{parser.WithValidation(), parser.WithNamespaceValidation()}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	return cmd
}

func newFmtCmd() *cobra.Command {
	var indentWidth int
	var collapse bool
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "pretty-print a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readAll(firstArg(args))
			if err != nil {
				return err
			}
			doc, err := builder.ReadDocument(data)
			if err != nil {
				return err
			}
			out, err := doc.WriteToString(dom.Format{
				Indent:       true,
				IndentWidth:  indentWidth,
				CollapseTags: collapse,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&indentWidth, "indent", 2, "number of spaces per indent level")
	cmd.Flags().BoolVar(&collapse, "collapse-empty", true, "render childless elements as <a/>")
	return cmd
}

func newXPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xpath <expr> [file]",
		Short: "evaluate an XPath 1.0 expression against a document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[0]
			var file string
			if len(args) == 2 {
				file = args[1]
			}
			data, err := readAll(file)
			if err != nil {
				return err
			}
			doc, err := builder.ReadDocument(data)
			if err != nil {
				return err
			}
			v, err := xpath.Eval(expr, doc.Node())
			if err != nil {
				return err
			}
			printValue(cmd.OutOrStdout(), v)
			return nil
		},
	}
	return cmd
}

func printValue(w io.Writer, v xpath.Value) {
	if ns, ok := v.(xpath.NodeSet); ok {
		var lines []string
		for _, n := range ns {
			s, err := n.WriteToString(dom.Format{})
			if err != nil || n.Type != dom.ElementNode {
				s = nodeText(n)
			}
			lines = append(lines, s)
		}
		fmt.Fprintln(w, strings.Join(lines, "\n"))
		return
	}
	fmt.Fprintln(w, xpath.ToString(v))
}

func nodeText(n *dom.Node) string {
	switch n.Type {
	case dom.AttributeNode, dom.CommentNode, dom.ProcInstNode, dom.NamespaceNode:
		return n.Data
	default:
		return n.Text()
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
