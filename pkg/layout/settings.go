package layout

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Geometry constants shared by sizing, connector placement and the
// evaluator. RowHeight is the base unit every formula is expressed in.
const (
	// RowHeight is the base vertical unit of node sizing.
	RowHeight = 20.0

	// CharWidth approximates label text width per character. Exact text
	// measurement belongs to the rendering surface, not this core.
	CharWidth = 10.0

	// ConnectorSize is the width and height of a connector box.
	ConnectorSize = RowHeight / 2

	// ConnectorPitch is the horizontal distance between neighbouring
	// connector centers. The connector-count minimum width formula
	// (2*RowHeight*count - RowHeight) follows from this pitch.
	ConnectorPitch = 2 * RowHeight

	// ScopeMargin is the padding between an expanded element's border and
	// its child layout, on all four sides.
	ScopeMargin = 3 * RowHeight

	// BranchSpacing separates conditional branches and reserves room for
	// the per-branch condition label.
	BranchSpacing = 2 * RowHeight

	// ClauseHeight is the vertical space reserved per present loop clause
	// (init, condition, update).
	ClauseHeight = 1.5 * RowHeight

	// SummarizeThreshold is the connector count above which a node's edge
	// bundles are marked summarized for simplified single-arrow rendering.
	SummarizeThreshold = 10
)

// Settings configures a layout pass. The zero value is not usable; start
// from DefaultSettings.
type Settings struct {
	// RankSep is the vertical separation between placement ranks.
	RankSep float64 `toml:"ranksep" json:"ranksep" bson:"ranksep"`

	// NodeSep is the horizontal separation between nodes of one rank.
	NodeSep float64 `toml:"nodesep" json:"nodesep" bson:"nodesep"`

	// VerticalLayout selects the alternative vertical state-machine
	// placement strategy. It falls back to the default placer when the
	// control flow cannot be handled (a recoverable condition).
	VerticalLayout bool `toml:"vertical_layout" json:"vertical_layout" bson:"vertical_layout"`

	// OmitAccessNodes hides access nodes from display. Edges incident to
	// hidden nodes are replaced by synthesized shortcut edges.
	OmitAccessNodes bool `toml:"omit_access_nodes" json:"omit_access_nodes" bson:"omit_access_nodes"`

	// LargeGraphThreshold is the node count at which a scope switches to
	// the cheaper ranking strategy.
	LargeGraphThreshold int `toml:"large_graph_threshold" json:"large_graph_threshold" bson:"large_graph_threshold"`
}

// DefaultSettings returns the settings used when no configuration file or
// flags override them.
func DefaultSettings() Settings {
	return Settings{
		RankSep:             30,
		NodeSep:             20,
		LargeGraphThreshold: 1000,
	}
}

// LoadSettings reads settings from a TOML file, applying defaults for
// absent keys.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	return s, nil
}

// WriteSettings writes settings as TOML, for seeding a config file.
func WriteSettings(s Settings, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(s)
}
