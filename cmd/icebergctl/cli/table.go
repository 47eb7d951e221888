package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage Iceberg tables",
}

var tableListCmd = &cobra.Command{
	Use:   "list <namespace>",
	Short: "List tables in a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableList,
}

var tableCreateCmd = &cobra.Command{
	Use:   "create <namespace.table>",
	Short: "Create a table from --field name:type[:optional] flags",
	Long: `Create a table with a schema built from repeated --field flags.

Each --field has the form name:type or name:type:optional. Fields are
required unless ":optional" is appended. Field ids are assigned in
flag order starting at 1.

Examples:
  icebergctl table create db.events \
    --field "id:long" --field "name:string:optional" --field "created:timestamp"`,
	Args: cobra.ExactArgs(1),
	RunE: runTableCreate,
}

var tableDescribeCmd = &cobra.Command{
	Use:   "describe <namespace.table>",
	Short: "Show a table's current schema and snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableDescribe,
}

var tableDropCmd = &cobra.Command{
	Use:   "drop <namespace.table>",
	Short: "Drop a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableDrop,
}

var tableRenameCmd = &cobra.Command{
	Use:   "rename <from> <to>",
	Short: "Rename a table",
	Args:  cobra.ExactArgs(2),
	RunE:  runTableRename,
}

var tableFields []string
var tableDropPurge bool

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableListCmd, tableCreateCmd, tableDescribeCmd, tableDropCmd, tableRenameCmd)
	tableCreateCmd.Flags().StringArrayVar(&tableFields, "field", nil, "name:type[:optional], repeatable")
	tableDropCmd.Flags().BoolVar(&tableDropPurge, "purge", false, "also delete the table's data and metadata files")
}

func runTableList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	tables, err := cat.ListTables(cmd.Context(), parseIdentifier(args[0]))
	if err != nil {
		return err
	}
	for _, t := range tables {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(t, "."))
	}
	return nil
}

func runTableCreate(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	schema, err := buildSchemaFromFlags(tableFields)
	if err != nil {
		return err
	}
	meta, err := cat.CreateTable(cmd.Context(), parseIdentifier(args[0]), catalog.CreateTableRequest{Schema: schema})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s at %s (format-version %d)\n", args[0], meta.Location, meta.FormatVersion)
	return nil
}

// buildSchemaFromFlags parses repeated "name:type[:optional]" strings into a
// schema-id-0 Schema, assigning field ids in flag order starting at 1.
func buildSchemaFromFlags(specs []string) (*iceberg.Schema, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("icebergctl: at least one --field is required")
	}
	fields := make([]iceberg.NestedField, 0, len(specs))
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("icebergctl: invalid --field %q, want name:type[:optional]", spec)
		}
		name := parts[0]
		t, err := codec.ParsePrimitiveType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("icebergctl: --field %q: %w", spec, err)
		}
		required := true
		if len(parts) == 3 && parts[2] == "optional" {
			required = false
		}
		fields = append(fields, iceberg.NestedField{ID: i + 1, Name: name, Type: t, Required: required})
	}
	return iceberg.NewSchema(0, fields...), nil
}

func runTableDescribe(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	meta, err := cat.LoadTable(cmd.Context(), parseIdentifier(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "location: %s\n", meta.Location)
	fmt.Fprintf(out, "format-version: %d\n", meta.FormatVersion)
	fmt.Fprintf(out, "last-sequence-number: %d\n", meta.LastSequenceNumber)
	for _, s := range meta.Schemas {
		if s.SchemaID != meta.CurrentSchemaID {
			continue
		}
		fmt.Fprintln(out, "schema:")
		for _, f := range s.Struct.FieldList {
			fmt.Fprintf(out, "  %s\n", f.String())
		}
	}
	if meta.CurrentSnapshotID == nil {
		fmt.Fprintln(out, "current-snapshot-id: null")
		return nil
	}
	fmt.Fprintf(out, "current-snapshot-id: %d\n", *meta.CurrentSnapshotID)
	for _, snap := range meta.Snapshots {
		if snap.SnapshotID == *meta.CurrentSnapshotID {
			fmt.Fprintf(out, "  operation=%s sequence-number=%d timestamp-ms=%d\n",
				snap.Summary["operation"], snap.SequenceNumber, snap.TimestampMs)
		}
	}
	return nil
}

func runTableDrop(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	return cat.DropTable(cmd.Context(), parseIdentifier(args[0]), tableDropPurge)
}

func runTableRename(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	return cat.RenameTable(cmd.Context(), parseIdentifier(args[0]), parseIdentifier(args[1]))
}
