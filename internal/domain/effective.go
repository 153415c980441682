package domain

// Experience levels ordered from least to most demanding.
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
	ExperienceExpert       = "expert"
)

// Risk levels.
const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskExtreme = "extreme"
)

var experienceRank = map[string]int{
	ExperienceBeginner:     0,
	ExperienceIntermediate: 1,
	ExperienceAdvanced:     2,
	ExperienceExpert:       3,
}

// ExperienceRank maps a level name to its position in the experience order.
// Unknown levels rank above expert so bad data never loosens a filter.
func ExperienceRank(level string) int {
	if r, ok := experienceRank[level]; ok {
		return r
	}
	return len(experienceRank)
}

// FilterAttributes are the leg attributes that participate in the
// leg-overrides-journey merge.
type FilterAttributes struct {
	Skills        []string
	RiskLevel     string
	MinExperience string
}

// EffectiveAttributes merges a leg's filter attributes with its parent
// journey's. Skills are the union of both sets; risk level and minimum
// experience take the leg's value when present, the journey's otherwise.
func EffectiveAttributes(leg, journey FilterAttributes) FilterAttributes {
	merged := FilterAttributes{
		RiskLevel:     journey.RiskLevel,
		MinExperience: journey.MinExperience,
	}
	if leg.RiskLevel != "" {
		merged.RiskLevel = leg.RiskLevel
	}
	if leg.MinExperience != "" {
		merged.MinExperience = leg.MinExperience
	}

	seen := make(map[string]struct{}, len(leg.Skills)+len(journey.Skills))
	for _, set := range [][]string{leg.Skills, journey.Skills} {
		for _, s := range set {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			merged.Skills = append(merged.Skills, s)
		}
	}

	return merged
}

// Effective returns the leg's merged filter attributes. A leg without a
// loaded journey merges against empty journey attributes.
func (l *Leg) Effective() FilterAttributes {
	legAttrs := FilterAttributes{
		Skills:        l.Skills,
		RiskLevel:     l.RiskLevel,
		MinExperience: l.MinExperience,
	}
	var journeyAttrs FilterAttributes
	if l.Journey != nil {
		journeyAttrs = FilterAttributes{
			Skills:        l.Journey.Skills,
			RiskLevel:     l.Journey.RiskLevel,
			MinExperience: l.Journey.MinExperience,
		}
	}
	return EffectiveAttributes(legAttrs, journeyAttrs)
}
