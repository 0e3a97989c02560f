package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/sink"
)

var (
	createFields  []string
	createJSON    string
	createChild   []string
	createDryRun  bool
)

var createCmd = &cobra.Command{
	Use:   "create <tag[,tag...]> <name>",
	Short: "Build and post a new node through the workspace's write sink",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags := strings.Split(args[0], ",")
		name := args[1]

		values, err := parseCreateValues()
		if err != nil {
			return err
		}

		_, svc, ws, err := app.Open()
		if err != nil {
			return err
		}
		payload, err := svc.BuildPayload(tags, name, values)
		if err != nil {
			return err
		}
		for _, child := range createChild {
			payload.Children = append(payload.Children, schema.PayloadChild{Name: child})
		}

		if createDryRun {
			printResult(payload, func() string { return renderPayload(payload) })
			return nil
		}

		s, err := app.Sink(ws)
		if err != nil {
			return err
		}
		if err := s.Post(cmd.Context(), sink.Target(ws.Target), payload); err != nil {
			return err
		}
		printSuccess("created %s", name)
		return nil
	},
}

func parseCreateValues() (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if createJSON != "" {
		if err := json.Unmarshal([]byte(createJSON), &values); err != nil {
			return nil, superr.Wrap(superr.InvalidFormat, err, "parsing --json field values")
		}
	}
	for _, kv := range createFields {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, superr.Newf(superr.InvalidFormat, "--field expects name=value, got %q", kv)
		}
		values[k] = v
	}
	return values, nil
}

func renderPayload(p *schema.Payload) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return p.Name
	}
	return string(data)
}

func init() {
	createCmd.Flags().StringArrayVar(&createFields, "field", nil, "A field value as name=value (repeatable)")
	createCmd.Flags().StringVar(&createJSON, "json-values", "", "Field values as a JSON object")
	createCmd.Flags().StringArrayVarP(&createChild, "child", "c", nil, "A bare-name child node to attach (repeatable)")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Build the payload without posting it")
}
