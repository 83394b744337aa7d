// Package model defines the Comparison Memory configuration and its
// validation rules. Definitions are plain values: the engine treats them as
// immutable snapshots, so edits always produce a new ComparisonMemory rather
// than mutating one in place.
package model

// GroupOperator combines the latched results of all groups in a rule.
type GroupOperator string

const (
	OperatorAnd GroupOperator = "AND"
	OperatorOr  GroupOperator = "OR"
	OperatorXor GroupOperator = "XOR"
)

// ComparisonMode selects how a group's inputs are compared.
type ComparisonMode string

const (
	ModeDigital ComparisonMode = "DIGITAL"
	ModeAnalog  ComparisonMode = "ANALOG"
)

// CompareType is the analog comparison applied to each input value.
// It is meaningful only when the group's mode is ANALOG.
type CompareType string

const (
	CompareEqual    CompareType = "EQUAL"
	CompareNotEqual CompareType = "NOT_EQUAL"
	CompareHigher   CompareType = "HIGHER"
	CompareLower    CompareType = "LOWER"
	CompareBetween  CompareType = "BETWEEN"
)

// DigitalValue is the value each input of a DIGITAL group is compared against.
type DigitalValue string

const (
	DigitalOff DigitalValue = "0"
	DigitalOn  DigitalValue = "1"
)

// ComparisonMemory converts readings from a set of monitored input points
// into a single digital output. Groups vote independently; their latched
// results are merged with Operator, optionally inverted, debounced for
// DurationSeconds and written to OutputItemID every IntervalSeconds.
type ComparisonMemory struct {
	ID              string            `json:"id" yaml:"id"`
	Name            string            `json:"name,omitempty" yaml:"name,omitempty"`
	Operator        GroupOperator     `json:"group_operator" yaml:"group_operator"`
	OutputItemID    string            `json:"output_item_id" yaml:"output_item_id"`
	IntervalSeconds int               `json:"interval_seconds" yaml:"interval_seconds"`
	DurationSeconds int               `json:"duration_seconds" yaml:"duration_seconds"`
	Disabled        bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	InvertOutput    bool              `json:"invert_output,omitempty" yaml:"invert_output,omitempty"`
	Groups          []ComparisonGroup `json:"groups" yaml:"groups"`
}

// ComparisonGroup is one N-out-of-M voting block. Each input point produces a
// boolean vote; the group is on when at least RequiredVotes +
// VotingHysteresis inputs vote true, and off again only when fewer than
// RequiredVotes do.
type ComparisonGroup struct {
	ID                  string         `json:"id" yaml:"id"`
	Name                string         `json:"name,omitempty" yaml:"name,omitempty"`
	InputItemIDs        []string       `json:"input_item_ids" yaml:"input_item_ids"`
	RequiredVotes       int            `json:"required_votes" yaml:"required_votes"`
	Mode                ComparisonMode `json:"comparison_mode" yaml:"comparison_mode"`
	CompareType         CompareType    `json:"compare_type,omitempty" yaml:"compare_type,omitempty"`
	Threshold1          *float64       `json:"threshold1,omitempty" yaml:"threshold1,omitempty"`
	Threshold2          *float64       `json:"threshold2,omitempty" yaml:"threshold2,omitempty"`
	ThresholdHysteresis float64        `json:"threshold_hysteresis,omitempty" yaml:"threshold_hysteresis,omitempty"`
	VotingHysteresis    int            `json:"voting_hysteresis,omitempty" yaml:"voting_hysteresis,omitempty"`
	DigitalValue        DigitalValue   `json:"digital_value,omitempty" yaml:"digital_value,omitempty"`
}

// Clone returns a deep copy, so callers can hand the engine a snapshot that
// later edits cannot reach.
func (m ComparisonMemory) Clone() ComparisonMemory {
	out := m
	out.Groups = make([]ComparisonGroup, len(m.Groups))
	for i, g := range m.Groups {
		out.Groups[i] = g.clone()
	}
	return out
}

func (g ComparisonGroup) clone() ComparisonGroup {
	out := g
	out.InputItemIDs = append([]string(nil), g.InputItemIDs...)
	if g.Threshold1 != nil {
		v := *g.Threshold1
		out.Threshold1 = &v
	}
	if g.Threshold2 != nil {
		v := *g.Threshold2
		out.Threshold2 = &v
	}
	return out
}

// StructureEquals reports whether two groups have the same voting structure:
// the same inputs in the same order, RequiredVotes and VotingHysteresis.
// Runtime latches survive an edit only while the structure is unchanged.
func (g ComparisonGroup) StructureEquals(other ComparisonGroup) bool {
	if g.RequiredVotes != other.RequiredVotes || g.VotingHysteresis != other.VotingHysteresis {
		return false
	}
	if len(g.InputItemIDs) != len(other.InputItemIDs) {
		return false
	}
	for i, id := range g.InputItemIDs {
		if other.InputItemIDs[i] != id {
			return false
		}
	}
	return true
}

// Group returns the group with the given id, if present.
func (m ComparisonMemory) Group(id string) (ComparisonGroup, bool) {
	for _, g := range m.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return ComparisonGroup{}, false
}
