package models

// Action is a user action label offered by a round
type Action string

const (
	ActionUnknown             Action = ""
	ActionExplainApproach     Action = "Explain Approach"
	ActionRunCode             Action = "Run Code"
	ActionAskForHint          Action = "Ask for Hint"
	ActionProposeDesign       Action = "Propose Design"
	ActionClarifyRequirement  Action = "Clarify Requirement"
	ActionProposeArchitecture Action = "Propose Architecture"
	ActionAskForClarification Action = "Ask for Clarification"
	ActionSubmitAnswer        Action = "Submit Answer"
)

var knownActions = map[Action]struct{}{
	ActionExplainApproach:     {},
	ActionRunCode:             {},
	ActionAskForHint:          {},
	ActionProposeDesign:       {},
	ActionClarifyRequirement:  {},
	ActionProposeArchitecture: {},
	ActionAskForClarification: {},
	ActionSubmitAnswer:        {},
}

// ParseAction returns the matching action, or ActionUnknown for labels outside the closed set
func ParseAction(label string) Action {
	a := Action(label)
	if _, ok := knownActions[a]; ok {
		return a
	}
	return ActionUnknown
}

// RequiresInput reports whether the action needs a non-empty user submission.
// Clarification requests carry no candidate input.
func (a Action) RequiresInput() bool {
	switch a {
	case ActionClarifyRequirement, ActionAskForClarification:
		return false
	default:
		return true
	}
}
