package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/migrate"
	"github.com/ridoystarlord/easymodel/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show applied migrations",
	Long: `Show the append-only migration history, newest first.

Examples:
  easymodel history             # Show all recorded migrations
  easymodel history --limit 5   # Show the five most recent
`,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := store.Open("")
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		records, err := st.History()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("✅ No migrations recorded yet.")
			return
		}

		cyan := color.New(color.FgCyan, color.Bold)
		shown := 0
		for i := len(records) - 1; i >= 0; i-- {
			if historyLimit > 0 && shown >= historyLimit {
				break
			}
			record := records[i]
			cyan.Printf("%s  %s\n", record.Timestamp.Format("2006-01-02 15:04:05"), record.Model)

			var ops []migrate.Operation
			if err := json.Unmarshal(record.Changes, &ops); err != nil {
				fmt.Printf("   (unreadable changes: %v)\n", err)
			} else {
				for _, op := range ops {
					fmt.Printf("   - %s\n", op)
				}
			}
			shown++
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the N most recent migrations")
}
