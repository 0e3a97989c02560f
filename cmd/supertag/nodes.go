package main

import (
	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/store"
)

var nodesDepth int

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Inspect individual nodes: show, references, recently touched",
}

var nodesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a node and, with --depth, its children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		tree, err := loadNodeTree(s, args[0], nodesDepth)
		if err != nil {
			return err
		}
		if tree == nil {
			return superr.Newf(superr.NodeNotFound, "no node with id %q", args[0])
		}
		printResult(tree, func() string { return renderNodeTree(tree, 0) })
		return nil
	},
}

var nodesRefsCmd = &cobra.Command{
	Use:   "refs <id>",
	Short: "List outgoing references from a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		refs, err := store.References(s.DB(), args[0])
		if err != nil {
			return err
		}
		printResult(refs, func() string {
			rows := make([][]string, 0, len(refs))
			for _, r := range refs {
				rows = append(rows, []string{r.ToNode, r.RefType})
			}
			if len(rows) == 0 {
				return "no references"
			}
			return table([]string{"TO", "TYPE"}, rows)
		})
		return nil
	},
}

var nodesRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently updated nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		limit := searchLimit
		if limit <= 0 {
			limit = 20
		}
		rows, err := s.DB().Query(
			`SELECT id, name, doc_type FROM nodes WHERE updated IS NOT NULL ORDER BY updated DESC LIMIT ?`, limit)
		if err != nil {
			return superr.Wrap(superr.InternalError, err, "listing recent nodes")
		}
		defer rows.Close()
		var nodes []*store.Node
		for rows.Next() {
			n := &store.Node{}
			if err := rows.Scan(&n.ID, &n.Name, &n.DocType); err != nil {
				return superr.Wrap(superr.InternalError, err, "scanning recent node row")
			}
			nodes = append(nodes, n)
		}
		printResult(nodes, func() string { return renderNodeTable(nodes) })
		return nil
	},
}

// nodeResult is a node optionally expanded with its children, for
// `nodes show --depth`.
type nodeResult struct {
	ID       string       `json:"id"`
	Name     string       `json:"name,omitempty"`
	DocType  string       `json:"doc_type,omitempty"`
	Children []nodeResult `json:"children,omitempty"`
}

func childIDs(s *store.Store, parentID string) ([]string, error) {
	rows, err := s.DB().Query(`SELECT id FROM nodes WHERE parent_id = ? ORDER BY id`, parentID)
	if err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "listing children of "+parentID)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, superr.Wrap(superr.InternalError, err, "scanning child id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadNodeTree(s *store.Store, id string, depth int) (*nodeResult, error) {
	n, err := store.GetNode(s.DB(), id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	r := &nodeResult{ID: n.ID}
	if n.Name.Valid {
		r.Name = n.Name.String
	}
	if n.DocType.Valid {
		r.DocType = n.DocType.String
	}
	if depth <= 0 {
		return r, nil
	}
	ids, err := childIDs(s, id)
	if err != nil {
		return nil, err
	}
	for _, cid := range ids {
		child, err := loadNodeTree(s, cid, depth-1)
		if err != nil {
			return nil, err
		}
		if child != nil {
			r.Children = append(r.Children, *child)
		}
	}
	return r, nil
}

func renderNodeTree(n *nodeResult, depth int) string {
	out := ""
	for i := 0; i < depth; i++ {
		out += "  "
	}
	out += n.ID
	if n.Name != "" {
		out += " " + n.Name
	}
	if n.DocType != "" {
		out += " (" + n.DocType + ")"
	}
	for _, child := range n.Children {
		out += "\n" + renderNodeTree(&child, depth+1)
	}
	return out
}

func init() {
	nodesShowCmd.Flags().IntVar(&nodesDepth, "depth", 0, "How many levels of children to include")
	nodesRecentCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")

	nodesCmd.AddCommand(nodesShowCmd, nodesRefsCmd, nodesRecentCmd)
}
