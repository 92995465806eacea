package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fourbar.

Besides command names, the scripts complete assembly branches
(fourbar solve --branch <TAB> offers open and crossed), output formats for
sweep and render, and .toml/.yaml files for --config.

Bash:
  $ source <(fourbar completion bash)
  $ fourbar completion bash > /etc/bash_completion.d/fourbar

Zsh (needs "autoload -U compinit; compinit" in ~/.zshrc):
  $ fourbar completion zsh > "${fpath[1]}/_fourbar"

Fish:
  $ fourbar completion fish > ~/.config/fish/completions/fourbar.fish

PowerShell:
  PS> fourbar completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// valueCompletion completes a flag from a fixed set of values.
func valueCompletion(values ...string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

var branchCompletion = valueCompletion(configurationNames()...)

func configurationNames() []string {
	out := make([]string, len(linkage.Configurations))
	for i, cfg := range linkage.Configurations {
		out[i] = string(cfg)
	}
	return out
}
