package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/layout"
)

// settingsFlags collects the layout settings flags shared by the
// layout, evaluate and serve commands. Flag values override the
// settings file, which overrides the defaults.
type settingsFlags struct {
	file                string
	rankSep             float64
	nodeSep             float64
	vertical            bool
	omitAccessNodes     bool
	largeGraphThreshold int
}

// register adds the settings flags to cmd.
func (f *settingsFlags) register(cmd *cobra.Command) {
	defaults := layout.DefaultSettings()
	cmd.Flags().StringVar(&f.file, "settings", "", "TOML settings file")
	cmd.Flags().Float64Var(&f.rankSep, "ranksep", defaults.RankSep, "vertical separation between ranks")
	cmd.Flags().Float64Var(&f.nodeSep, "nodesep", defaults.NodeSep, "horizontal separation within a rank")
	cmd.Flags().BoolVar(&f.vertical, "vertical", false, "use the vertical state-machine strategy")
	cmd.Flags().BoolVar(&f.omitAccessNodes, "omit-access-nodes", false, "hide access nodes and draw shortcut edges")
	cmd.Flags().IntVar(&f.largeGraphThreshold, "large-graph-threshold", defaults.LargeGraphThreshold, "node count switching to cheap ranking")
}

// resolve merges defaults, the settings file, and explicitly set flags.
func (f *settingsFlags) resolve(cmd *cobra.Command) (layout.Settings, error) {
	s := layout.DefaultSettings()
	if f.file != "" {
		loaded, err := layout.LoadSettings(f.file)
		if err != nil {
			return layout.Settings{}, err
		}
		s = loaded
	}
	if cmd.Flags().Changed("ranksep") {
		s.RankSep = f.rankSep
	}
	if cmd.Flags().Changed("nodesep") {
		s.NodeSep = f.nodeSep
	}
	if cmd.Flags().Changed("vertical") {
		s.VerticalLayout = f.vertical
	}
	if cmd.Flags().Changed("omit-access-nodes") {
		s.OmitAccessNodes = f.omitAccessNodes
	}
	if cmd.Flags().Changed("large-graph-threshold") {
		s.LargeGraphThreshold = f.largeGraphThreshold
	}
	return s, nil
}
