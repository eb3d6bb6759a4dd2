package scoring

// Option applies a configuration option to the FitnessScorer.
type Option func(*FitnessScorer)

// WithWeights sets the skill and availability weights. Negative values are ignored.
func WithWeights(skill, availability float64) Option {
	return func(s *FitnessScorer) {
		if skill >= 0 {
			s.skillWeight = skill
		}
		if availability >= 0 {
			s.availabilityWeight = availability
		}
	}
}

// WithBonuses sets the relevance and high-priority bonuses.
func WithBonuses(relevance, priority float64) Option {
	return func(s *FitnessScorer) {
		if relevance >= 0 {
			s.relevanceBonus = relevance
		}
		if priority >= 0 {
			s.priorityBonus = priority
		}
	}
}

// WithPrioritySkillThreshold sets the skill a worker must exceed to earn the priority bonus.
func WithPrioritySkillThreshold(threshold float64) Option {
	return func(s *FitnessScorer) {
		if threshold >= 0 {
			s.prioritySkillThreshold = threshold
		}
	}
}

// WithRelevanceFromConfig adds department keywords on top of the defaults.
func WithRelevanceFromConfig(keywords map[string][]string) Option {
	return func(s *FitnessScorer) {
		if len(keywords) > 0 {
			s.relevance = s.relevance.Merge(NewRelevanceTable(keywords))
		}
	}
}

// WithRelevanceTable replaces the relevance table.
func WithRelevanceTable(t RelevanceTable) Option {
	return func(s *FitnessScorer) {
		if t != nil {
			s.relevance = t
		}
	}
}

// WithSkillSource swaps the skill input.
func WithSkillSource(src SkillSource) Option {
	return func(s *FitnessScorer) {
		if src != nil {
			s.skills = src
		}
	}
}
