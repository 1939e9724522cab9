package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List available styles and their stages",
	RunE:  runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)
	stylesCmd.Flags().Bool("json", false, "Print styles as JSON")
}

type styleListing struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Stages      []string `json:"stages"`
}

func runStyles(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	styles := reg.Styles()
	out := cmd.OutOrStdout()
	if asJSON {
		listing := make([]styleListing, len(styles))
		for i, st := range styles {
			listing[i] = styleListing{Name: st.Name, Label: st.Label, Description: st.Description, Stages: st.Ops()}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tSTAGES")
	for _, st := range styles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", st.Name, st.Label, strings.Join(st.Ops(), " > "))
	}
	return tw.Flush()
}
