package session

import (
	"encoding/json"
	"math"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
)

// Metadata keys written at registration and read back into a Profile.
const (
	mdName         = "name"
	mdGoal         = "goal"
	mdHeight       = "height"
	mdWeight       = "weight"
	mdTargetWeight = "targetWeight"
)

// Profile is the application's view of the signed-in user. Height is in
// centimetres, Weight and TargetWeight in kilograms.
type Profile struct {
	ID           string   `json:"id,omitempty"`
	Email        string   `json:"email"`
	Name         string   `json:"name,omitempty"`
	Goal         Goal     `json:"goal,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	TargetWeight *float64 `json:"targetWeight,omitempty"`
}

// ProfileFromUser normalizes a backend user record. Metadata values of the
// wrong type, unknown goals and non-positive measurements are dropped.
func ProfileFromUser(u identity.User) *Profile {
	p := &Profile{ID: u.ID, Email: u.Email}

	if name, ok := u.Metadata[mdName].(string); ok {
		p.Name = name
	}
	if s, ok := u.Metadata[mdGoal].(string); ok {
		if g, ok := ParseGoal(s); ok {
			p.Goal = g
		}
	}
	p.Height = positive(u.Metadata[mdHeight])
	p.Weight = positive(u.Metadata[mdWeight])
	p.TargetWeight = positive(u.Metadata[mdTargetWeight])

	return p
}

func positive(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return nil
		}
		f = x
	default:
		return nil
	}
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// Draft is the input of Register.
type Draft struct {
	Email        string
	Password     string
	Name         string
	Goal         Goal
	Height       *float64
	Weight       *float64
	TargetWeight *float64
}

// Metadata returns the optional fields of d that are set.
func (d Draft) Metadata() identity.Metadata {
	md := identity.Metadata{}
	if d.Name != "" {
		md[mdName] = d.Name
	}
	if d.Goal != "" {
		md[mdGoal] = string(d.Goal)
	}
	if d.Height != nil {
		md[mdHeight] = *d.Height
	}
	if d.Weight != nil {
		md[mdWeight] = *d.Weight
	}
	if d.TargetWeight != nil {
		md[mdTargetWeight] = *d.TargetWeight
	}
	return md
}
