package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/loader"
	"github.com/ridoystarlord/easymodel/relationships"
	"github.com/ridoystarlord/easymodel/schema"
)

var rootCmd = &cobra.Command{
	Use:   "easymodel",
	Short: "Auto-detected relationships and fingerprint-based migrations for PostgreSQL",
	Long: `easymodel keeps your database schema in sync with declared entities.

It infers foreign-key relationships between entities, fingerprints each
entity's structure, and applies only the schema changes the fingerprints
say are needed.

Examples:

  easymodel init
  easymodel check
  easymodel plan --sql
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

var schemaFile string

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "file", "f", "schema.yaml", "Entity definition file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(healthCmd)
}

// loadRegistry reads the entity file, registers everything, and resolves
// relationship attributes so every command sees the same entity graph.
func loadRegistry() (*schema.Registry, []*schema.Entity, error) {
	entities, err := loader.LoadEntitiesFromYAML(schemaFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading entities: %w", err)
	}

	registry := schema.NewRegistry()
	for _, entity := range entities {
		if err := registry.Register(entity); err != nil {
			return nil, nil, err
		}
	}

	warnings, err := relationships.NewResolver(registry).ResolveAll()
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		fmt.Printf("⚠️  %s\n", w)
	}

	return registry, registry.Entities(), nil
}
