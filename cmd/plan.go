package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/database"
	"github.com/ridoystarlord/easymodel/introspect"
	"github.com/ridoystarlord/easymodel/migrate"
	"github.com/ridoystarlord/easymodel/store"
)

var planShowSQL bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the operations a migration run would apply",
	Long: `Plan the migration for every drifted entity without applying anything.

Examples:
  easymodel plan          # Show planned operations
  easymodel plan --sql    # Show the DDL that would run
`,
	Run: func(cmd *cobra.Command, args []string) {
		registry, entities, err := loadRegistry()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		st, err := store.Open("")
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		migrator := migrate.Migrator{Store: st}
		changes, err := migrator.DetectChanges(entities)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		if len(changes) == 0 {
			fmt.Println("✅ Nothing to plan, no schema drift detected.")
			return
		}

		pool, err := database.GetPool()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		defer database.ClosePool()

		live, err := introspect.NewPgSource(pool).Tables(context.Background())
		if err != nil {
			fmt.Println("❌ Error introspecting database:", err)
			os.Exit(1)
		}

		names := make([]string, 0, len(changes))
		for name := range changes {
			names = append(names, name)
		}
		sort.Strings(names)

		total := 0
		for _, name := range names {
			entity, _ := registry.Get(name)
			ops := migrate.Plan(entity, live)
			if len(ops) == 0 {
				continue
			}
			fmt.Printf("📋 %s:\n", name)
			if planShowSQL {
				stmts, err := database.GenerateSQL(entity, ops)
				if err != nil {
					fmt.Println("❌", err)
					os.Exit(1)
				}
				for _, stmt := range stmts {
					fmt.Printf("   %s\n", stmt)
				}
			} else {
				for _, op := range ops {
					fmt.Printf("   - %s\n", op)
				}
			}
			total += len(ops)
		}
		fmt.Printf("Planned %d operation(s). Run 'easymodel init' to apply.\n", total)
	},
}

func init() {
	planCmd.Flags().BoolVar(&planShowSQL, "sql", false, "Show the SQL statements instead of operation summaries")
}
