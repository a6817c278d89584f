package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nuuday/NDCiscoISE/pkg/category"
	"github.com/nuuday/NDCiscoISE/pkg/ers"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the supported ERS categories and their capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Category", "Path", "Filter", "Names", "Patch", "Bulk"})

			for _, name := range category.Names() {
				cat, err := category.Resolve(name)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{
					name, cat.BasePath,
					yesNo(cat.SupportsFilter), yesNo(cat.SupportsNames),
					yesNo(cat.SupportsPatch), yesNo(cat.SupportsBulk),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	var (
		filter     string
		filterType string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "get <category> [id...]",
		Short: "Fetch all resources of a category, or specific resources by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if len(args) > 1 {
				result, err := client.GetByIDs(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				return printOutcomes(cmd, args[1:], result, outputJSON)
			}

			var opts []ers.QueryOption
			if filter != "" {
				opts = append(opts, ers.WithFilter(filter))
			}
			if filterType != "" {
				opts = append(opts, ers.WithFilterType(filterType))
			}
			collection, err := client.GetAll(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			if !collection.Complete() {
				fmt.Fprintf(os.Stderr, "warning: %d pages failed, result is partial\n", len(collection.PageErrors))
			}
			return printCollection(cmd, collection, outputJSON)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "ERS filter expression, e.g. name.CONTAINS.voice")
	cmd.Flags().StringVar(&filterType, "filter-type", "", "how multiple filters combine: AND or OR")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "emit raw JSON instead of a table")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <id...>",
		Short: "Delete resources by id; failures are reported per item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			result, err := client.DeleteByIDs(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			if err := printOutcomes(cmd, args[1:], result, false); err != nil {
				return err
			}
			return result.Err()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version <category>",
		Short: "Show current and supported API versions for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			info, err := client.Version(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Current", "Supported"})
			t.AppendRow(table.Row{info["currentServerVersion"], info["supportedVersions"]})
			t.Render()
			return nil
		},
	}
}

func printCollection(cmd *cobra.Command, collection *ers.Collection, outputJSON bool) error {
	if outputJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(collection.Resources)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Name", "Description"})
	for _, r := range collection.Resources {
		t.AppendRow(table.Row{r["id"], r["name"], r["description"]})
	}
	t.AppendFooter(table.Row{"Total", collection.Total, ""})
	t.Render()
	return nil
}

func printOutcomes(cmd *cobra.Command, keys []string, result ers.AggregatedResult, outputJSON bool) error {
	if outputJSON {
		payloads := make([]ers.Resource, len(result.Outcomes))
		for i, o := range result.Outcomes {
			payloads[i] = o.Payload
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(payloads)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Key", "Outcome", "Status", "Name"})
	for i, o := range result.Outcomes {
		var name any
		if o.Payload != nil {
			name = o.Payload["name"]
		}
		t.AppendRow(table.Row{keys[i], o.Status, o.HTTPStatus, name})
	}
	t.Render()
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
