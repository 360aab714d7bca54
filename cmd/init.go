package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/database"
	"github.com/ridoystarlord/easymodel/introspect"
	"github.com/ridoystarlord/easymodel/migrate"
	"github.com/ridoystarlord/easymodel/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Resolve relationships and migrate all entities",
	Long: `Resolve relationship attributes, detect schema drift, and apply the
needed migrations entity by entity. Each entity migrates inside its own
transaction; a failure for one entity does not block the others.

Examples:
  easymodel init                  # Migrate entities from schema.yaml
  easymodel init -f custom.yaml   # Use a custom entity file
`,
	Run: func(cmd *cobra.Command, args []string) {
		_, entities, err := loadRegistry()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		st, err := store.Open("")
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		pool, err := database.GetPool()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer database.ClosePool()

		migrator := migrate.New(st, introspect.NewPgSource(pool), database.NewDDLExecutor(pool))
		results, err := migrator.MigrateAll(context.Background(), entities)
		if err != nil {
			fmt.Println("❌ Migration run failed:", err)
			os.Exit(1)
		}

		if len(results) == 0 {
			fmt.Println("✅ All entities up to date.")
			return
		}
		printResults(results)
	},
}

func printResults(results map[string]migrate.Result) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		result := results[name]
		if result.Err != nil {
			red.Printf("  ❌ %s: %v\n", name, result.Err)
			failed++
			continue
		}
		green.Printf("  ✅ %s: %d operation(s) applied\n", name, len(result.Operations))
		for _, op := range result.Operations {
			fmt.Printf("     - %s\n", op)
		}
	}

	if failed > 0 {
		fmt.Printf("⚠️  %d of %d entities failed to migrate\n", failed, len(results))
		os.Exit(1)
	}
	fmt.Printf("✅ Migrated %d entities.\n", len(results))
}
