package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/migrate"
	"github.com/ridoystarlord/easymodel/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which entities have drifted (read-only)",
	Long: `Compare each entity's structural fingerprint with the stored one and
report which entities are new or modified. Nothing is written.

Examples:
  easymodel check
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

		migrator := migrate.Migrator{Store: st}
		changes, err := migrator.DetectChanges(entities)
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		if len(changes) == 0 {
			fmt.Println("✅ No schema drift detected.")
			return
		}

		green := color.New(color.FgGreen, color.Bold)
		yellow := color.New(color.FgYellow, color.Bold)

		names := make([]string, 0, len(changes))
		for name := range changes {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			switch changes[name].Status {
			case migrate.StatusNew:
				green.Printf("  ➕ %s: new entity\n", name)
			case migrate.StatusModified:
				yellow.Printf("  ✏️  %s: structure changed\n", name)
			}
		}
		fmt.Printf("Found %d entities needing migration. Run 'easymodel init' to apply.\n", len(changes))
	},
}
