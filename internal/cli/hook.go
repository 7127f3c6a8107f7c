package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/brainbox/internal/hooks"
)

var hookCmd = &cobra.Command{
	Use:   "hook <event>",
	Short: "Handle an agent hook event (reads JSON from stdin)",
	Long: "Dispatches a host hook event to the brainbox server.\n" +
		"Events: tool (PostToolUse), submit (UserPromptSubmit).",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hooks.Handle(args[0], os.Stdin)
	},
}
