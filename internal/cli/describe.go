package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mirror/internal/mirror"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Paths   []string
	OnError string
}

// DescribedNode is one mirrored node in describe output.
type DescribedNode struct {
	Path       string `json:"path"`
	Role       string `json:"role"`
	Static     bool   `json:"static"`
	ReturnType string `json:"return_type,omitempty"`
	Depth      int    `json:"depth"`
}

// DescribeResult is the describe payload.
type DescribeResult struct {
	Nodes   []DescribedNode `json:"nodes"`
	Added   int             `json:"added"`
	Skipped []string        `json:"skipped,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <descriptors>",
		Short: "Mirror paths and print the resulting tree",
		Long: `Mirror the given paths (or every published path when none are given)
and print the mirror tree with each node's role, static flag and return type.

Example:
  mirror describe lib.yaml --path lib.python.List.append --on-error skip`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Paths, "path", nil, "dotted path to mirror (repeatable)")
	cmd.Flags().StringVar(&opts.OnError, "on-error", "fail", "population policy (fail|skip)")

	return cmd
}

func runDescribe(opts *DescribeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	policy, err := mirror.ParsePolicy(opts.OnError)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid --on-error", err)
	}

	table, err := loadTable(formatter, path)
	if err != nil {
		return err
	}

	var specs []mirror.PathSpec
	for _, p := range opts.Paths {
		specs = append(specs, mirror.PathSpec{Path: p})
	}
	if len(specs) == 0 {
		specs = mirror.TablePaths(table)
	}

	tree := mirror.New(table)
	report, err := tree.Populate(specs, policy)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeMirror, "cannot mirror path", err)
	}

	result := DescribeResult{Nodes: describeTree(tree), Added: report.Added}
	for _, skipped := range report.Skipped {
		result.Skipped = append(result.Skipped, skipped.Path)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, n := range result.Nodes {
		fmt.Fprintln(formatter.Writer, formatNode(n))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(formatter.Writer, "skipped %d path(s): %s\n", len(result.Skipped), strings.Join(result.Skipped, ", "))
	}
	return nil
}

func describeTree(tree *mirror.Tree) []DescribedNode {
	nodes := []DescribedNode{}
	tree.Walk(func(n *mirror.Node, depth int) bool {
		nodes = append(nodes, DescribedNode{
			Path:       n.FullName(),
			Role:       n.Role().String(),
			Static:     n.IsStatic(),
			ReturnType: n.ReturnType(),
			Depth:      depth,
		})
		return true
	})
	return nodes
}

func formatNode(n DescribedNode) string {
	name := n.Path
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	line := strings.Repeat("  ", n.Depth) + name + " (" + n.Role
	if n.Role == mirror.RoleCallable.String() && n.Static {
		line += ", static"
	}
	line += ")"
	if n.ReturnType != "" && n.Role != mirror.RoleNamespace.String() {
		line += " -> " + n.ReturnType
	}
	return line
}
