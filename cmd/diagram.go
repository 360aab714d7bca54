package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/easymodel/diagram"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print a mermaid ER diagram of the entity graph",
	Long: `Render the registered entities and their resolved relationships as a
mermaid erDiagram block.

Examples:
  easymodel diagram > schema.mmd
`,
	Run: func(cmd *cobra.Command, args []string) {
		registry, _, err := loadRegistry()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		fmt.Print(diagram.Mermaid(registry))
	},
}
