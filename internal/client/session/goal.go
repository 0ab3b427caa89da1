package session

import "strings"

// Goal is a user's fitness goal. The values are the ones stored in account
// metadata.
type Goal string

const (
	GoalWeightLoss         Goal = "체중 감량"
	GoalMuscleGain         Goal = "근육 증가"
	GoalGeneralHealth      Goal = "건강 관리"
	GoalFitnessImprovement Goal = "체력 향상"
)

// Goals lists every known goal in display order.
var Goals = []Goal{GoalWeightLoss, GoalMuscleGain, GoalGeneralHealth, GoalFitnessImprovement}

var goalAliases = map[string]Goal{
	"weight-loss":    GoalWeightLoss,
	"muscle-gain":    GoalMuscleGain,
	"general-health": GoalGeneralHealth,
	"fitness":        GoalFitnessImprovement,
}

// ParseGoal accepts a stored goal value or one of its English aliases.
func ParseGoal(s string) (Goal, bool) {
	s = strings.TrimSpace(s)
	for _, g := range Goals {
		if string(g) == s {
			return g, true
		}
	}
	g, ok := goalAliases[strings.ToLower(s)]
	return g, ok
}

// Valid reports whether g is one of Goals. Aliases are not valid goals.
func (g Goal) Valid() bool {
	for _, known := range Goals {
		if g == known {
			return true
		}
	}
	return false
}

// Alias returns the English alias of g, or "" for an unknown goal.
func (g Goal) Alias() string {
	for alias, goal := range goalAliases {
		if goal == g {
			return alias
		}
	}
	return ""
}
