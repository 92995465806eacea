package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

// classifyOutput is the --json form of `fourbar classify`.
type classifyOutput struct {
	Lengths  [4]float64            `json:"lengths"`
	Type     linkage.MechanismType `json:"type"`
	Grashof  bool                  `json:"grashof"`
	Shortest string                `json:"shortest"`
}

func (c *CLI) classifyCommand() *cobra.Command {
	var (
		flags  linkageFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a linkage by the Grashof criterion",
		Example: `  fourbar classify --lengths 120,30,90,80
  fourbar classify --config linkage.toml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lengths, err := flags.resolve(c)
			if err != nil {
				return err
			}
			kind := linkage.Classify(lengths[0], lengths[1], lengths[2], lengths[3])
			shortest := linkage.ShortestLink(lengths[0], lengths[1], lengths[2], lengths[3])

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(classifyOutput{
					Lengths:  lengths,
					Type:     kind,
					Grashof:  kind.IsGrashof(),
					Shortest: shortest.String(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render(kind.Description()))
			printKeyValue("lengths", formatLengths(lengths))
			printKeyValue("shortest", shortest.String())
			printKeyValue("grashof", fmt.Sprint(kind.IsGrashof()))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
