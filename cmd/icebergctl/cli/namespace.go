package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "Manage catalog namespaces",
}

var namespaceListCmd = &cobra.Command{
	Use:   "list [parent]",
	Short: "List namespaces, optionally under a parent",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNamespaceList,
}

var namespaceCreateCmd = &cobra.Command{
	Use:   "create <namespace>",
	Short: "Create a namespace (dot-separated for nested namespaces)",
	Args:  cobra.ExactArgs(1),
	RunE:  runNamespaceCreate,
}

var namespaceDropCmd = &cobra.Command{
	Use:   "drop <namespace>",
	Short: "Drop an empty namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runNamespaceDrop,
}

var namespaceProperties map[string]string

func init() {
	rootCmd.AddCommand(namespaceCmd)
	namespaceCmd.AddCommand(namespaceListCmd, namespaceCreateCmd, namespaceDropCmd)
	namespaceCreateCmd.Flags().StringToStringVar(&namespaceProperties, "property", nil, "namespace property (key=value), repeatable")
}

func parseIdentifier(s string) catalog.Identifier {
	return catalog.Identifier(strings.Split(s, "."))
}

func runNamespaceList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	var parent catalog.Identifier
	if len(args) == 1 {
		parent = parseIdentifier(args[0])
	}
	nss, err := cat.ListNamespaces(cmd.Context(), parent)
	if err != nil {
		return err
	}
	for _, ns := range nss {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ns, "."))
	}
	return nil
}

func runNamespaceCreate(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	props := iceberg.Properties{}
	for k, v := range namespaceProperties {
		props[k] = v
	}
	return cat.CreateNamespace(cmd.Context(), parseIdentifier(args[0]), props)
}

func runNamespaceDrop(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	return cat.DropNamespace(cmd.Context(), parseIdentifier(args[0]))
}
