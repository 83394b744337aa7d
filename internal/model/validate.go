package model

import "fmt"

// Error codes returned by Validate. They are stable identifiers: the REST
// layer and CLI surface them verbatim so editors can map them onto fields.
const (
	CodeOutputRequired              = "outputRequired"
	CodeIntervalTooSmall            = "intervalTooSmall"
	CodeDurationNegative            = "durationNegative"
	CodeOperatorInvalid             = "operatorInvalid"
	CodeNoGroups                    = "noGroups"
	CodeNoInputs                    = "noInputs"
	CodeDuplicateInput              = "duplicateInput"
	CodeRequiredVotesOutOfRange     = "requiredVotesOutOfRange"
	CodeModeInvalid                 = "modeInvalid"
	CodeCompareTypeInvalid          = "compareTypeInvalid"
	CodeThreshold1Required          = "threshold1Required"
	CodeThreshold2Required          = "threshold2Required"
	CodeThreshold2NotAbove          = "threshold2NotAbove"
	CodeThresholdHysteresisNegative = "thresholdHysteresisNegative"
	CodeVotingHysteresisNegative    = "votingHysteresisNegative"
	CodeVotingHysteresisTooHigh     = "votingHysteresisTooHigh"
	CodeDigitalValueInvalid         = "digitalValueInvalid"
)

// FieldError is a single validation failure, scoped to a field and, for
// group-level failures, the offending group's id.
type FieldError struct {
	Field   string `json:"field"`
	GroupID string `json:"group_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.GroupID != "" {
		return fmt.Sprintf("%s (group %s): %s", e.Field, e.GroupID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every invariant a ComparisonMemory must satisfy before it
// may be persisted or evaluated. It never mutates the definition. An empty
// result means the definition is accepted.
func Validate(m ComparisonMemory) []FieldError {
	var errs []FieldError

	if m.OutputItemID == "" {
		errs = append(errs, FieldError{
			Field: "output_item_id", Code: CodeOutputRequired,
			Message: "an output point is required",
		})
	}
	if m.IntervalSeconds < 1 {
		errs = append(errs, FieldError{
			Field: "interval_seconds", Code: CodeIntervalTooSmall,
			Message: fmt.Sprintf("interval must be at least 1 second, got %d", m.IntervalSeconds),
		})
	}
	if m.DurationSeconds < 0 {
		errs = append(errs, FieldError{
			Field: "duration_seconds", Code: CodeDurationNegative,
			Message: fmt.Sprintf("duration cannot be negative, got %d", m.DurationSeconds),
		})
	}
	switch m.Operator {
	case OperatorAnd, OperatorOr, OperatorXor:
	default:
		errs = append(errs, FieldError{
			Field: "group_operator", Code: CodeOperatorInvalid,
			Message: fmt.Sprintf("unknown group operator %q", m.Operator),
		})
	}
	if len(m.Groups) == 0 {
		errs = append(errs, FieldError{
			Field: "groups", Code: CodeNoGroups,
			Message: "at least one comparison group is required",
		})
	}

	for _, g := range m.Groups {
		errs = append(errs, validateGroup(g)...)
	}
	return errs
}

func validateGroup(g ComparisonGroup) []FieldError {
	var errs []FieldError
	groupErr := func(field, code, msg string) {
		errs = append(errs, FieldError{Field: field, GroupID: g.ID, Code: code, Message: msg})
	}

	inputs := len(g.InputItemIDs)
	if inputs == 0 {
		groupErr("input_item_ids", CodeNoInputs, "at least one input point is required")
	}
	seen := make(map[string]bool, inputs)
	for _, id := range g.InputItemIDs {
		if seen[id] {
			groupErr("input_item_ids", CodeDuplicateInput,
				fmt.Sprintf("input point %q listed more than once", id))
		}
		seen[id] = true
	}

	if g.RequiredVotes < 1 || (inputs > 0 && g.RequiredVotes > inputs) {
		groupErr("required_votes", CodeRequiredVotesOutOfRange,
			fmt.Sprintf("required votes must be between 1 and %d, got %d", inputs, g.RequiredVotes))
	}
	if g.VotingHysteresis < 0 {
		groupErr("voting_hysteresis", CodeVotingHysteresisNegative,
			fmt.Sprintf("voting hysteresis cannot be negative, got %d", g.VotingHysteresis))
	}
	// The turn-on threshold must stay achievable: a group that can never
	// collect RequiredVotes+VotingHysteresis true votes can never turn on.
	if g.RequiredVotes >= 1 && g.VotingHysteresis >= 0 && g.RequiredVotes+g.VotingHysteresis > inputs {
		groupErr("voting_hysteresis", CodeVotingHysteresisTooHigh,
			fmt.Sprintf("turn-on requires %d votes (%d required + %d hysteresis) but only %d inputs are available",
				g.RequiredVotes+g.VotingHysteresis, g.RequiredVotes, g.VotingHysteresis, inputs))
	}

	switch g.Mode {
	case ModeAnalog:
		errs = append(errs, validateAnalog(g)...)
	case ModeDigital:
		if g.DigitalValue != DigitalOff && g.DigitalValue != DigitalOn {
			groupErr("digital_value", CodeDigitalValueInvalid,
				fmt.Sprintf(`digital value must be "0" or "1", got %q`, g.DigitalValue))
		}
	default:
		groupErr("comparison_mode", CodeModeInvalid,
			fmt.Sprintf("unknown comparison mode %q", g.Mode))
	}

	return errs
}

func validateAnalog(g ComparisonGroup) []FieldError {
	var errs []FieldError
	groupErr := func(field, code, msg string) {
		errs = append(errs, FieldError{Field: field, GroupID: g.ID, Code: code, Message: msg})
	}

	switch g.CompareType {
	case CompareEqual, CompareNotEqual, CompareHigher, CompareLower, CompareBetween:
	default:
		groupErr("compare_type", CodeCompareTypeInvalid,
			fmt.Sprintf("unknown compare type %q", g.CompareType))
	}

	if g.Threshold1 == nil {
		groupErr("threshold1", CodeThreshold1Required, "threshold is required in analog mode")
	}
	if g.CompareType == CompareBetween {
		switch {
		case g.Threshold2 == nil:
			groupErr("threshold2", CodeThreshold2Required, "upper threshold is required for BETWEEN")
		case g.Threshold1 != nil && *g.Threshold2 <= *g.Threshold1:
			groupErr("threshold2", CodeThreshold2NotAbove,
				fmt.Sprintf("upper threshold %v must be above lower threshold %v", *g.Threshold2, *g.Threshold1))
		}
	}
	if g.ThresholdHysteresis < 0 {
		groupErr("threshold_hysteresis", CodeThresholdHysteresisNegative,
			fmt.Sprintf("threshold hysteresis cannot be negative, got %v", g.ThresholdHysteresis))
	}
	return errs
}
