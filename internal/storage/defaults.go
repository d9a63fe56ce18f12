package storage

// LanguageFlags and SpiritualFlags are the daily checklist keys of each plan.
var (
	LanguageFlags  = []string{"theory", "production", "immersion"}
	SpiritualFlags = []string{"practice", "study", "meditation"}
)

// DefaultState returns a fresh state with every field populated.
func DefaultState() *State {
	return &State{
		XP:         map[Category]int{CategoryMental: 0, CategoryPhysical: 0, CategorySpiritual: 0},
		Coins:      0,
		Tasks:      DefaultTasks(),
		Goals:      map[Category][]Goal{CategoryMental: {}, CategoryPhysical: {}, CategorySpiritual: {}},
		Rewards:    DefaultRewards(),
		Challenges: DefaultChallenges(),
		Routines:   DefaultRoutines(),
		English:    DefaultLanguagePlan(),
		Spiritual:  DefaultSpiritualPlan(),
	}
}

func DefaultTasks() map[Category][]Task {
	seed := func(id, text string, xp int) []Task {
		return []Task{{
			ID:        id,
			Text:      text,
			XP:        xp,
			Frequency: FrequencyDaily,
			Progress:  make([]bool, FrequencyDaily.GridSize()),
		}}
	}
	return map[Category][]Task{
		CategoryMental:    seed("m1", "Read 10 pages", 15),
		CategoryPhysical:  seed("f1", "30 min of exercise", 25),
		CategorySpiritual: seed("e1", "Meditate 10 min", 20),
	}
}

func DefaultRewards() []Reward {
	return []Reward{
		{ID: "r1", Name: "Watch one episode", Cost: 100},
		{ID: "r2", Name: "Buy a snack", Cost: 50},
		{ID: "r3", Name: "Book: The Ancient Secret of the Flower of Life", Cost: 500},
		{ID: "r4", Name: "Professional metal compass", Cost: 300},
		{ID: "r5", Name: "Herkimer vision quartz", Cost: 400},
		{ID: "r6", Name: "Dictionary of symbols", Cost: 250},
	}
}

func DefaultChallenges() map[ChallengeKind]*Challenge {
	return map[ChallengeKind]*Challenge{
		ChallengeSocial: {
			Options: []string{"Call a friend", "Organize an outing", "Write a letter", "Invite someone for coffee"},
			Current: "Call a friend",
		},
		ChallengeSavings: {
			Options: []string{"Save 2,000 in a week", "Save 10,000 in a month", "Spend nothing today", "Cook at home"},
			Current: "Save 2,000 in a week",
		},
	}
}

// DefaultRoutines is the weekday template per category (0 = Sunday).
func DefaultRoutines() map[Category]map[int]Routine {
	return map[Category]map[int]Routine{
		CategoryPhysical: {
			1: {Name: "Strength A (Legs)", Subs: []string{"Squat 4x10", "Lunges 3x12", "Leg extensions 3x15", "Calves 4x20"}},
			2: {Name: "Strength B (Push)", Subs: []string{"Bench/Push-ups 4x10", "Overhead press 3x10", "Lateral raises 3x15", "Triceps 3x12"}},
			3: {Name: "Cardio HIIT", Subs: []string{"20 min bike intervals", "5 min jump rope", "Abs 3x20"}},
			4: {Name: "Strength C (Pull)", Subs: []string{"Pull-ups/Rows 4x10", "Dumbbell row 3x12", "Biceps curl 3x12", "Face pull 3x15"}},
			5: {Name: "Easy Cardio", Subs: []string{"45 min easy walk/bike", "Full body stretching"}},
			6: {Name: "Strength D (Full Body)", Subs: []string{"Deadlift 3x10", "Bench press 3x10", "Squat 3x10", "Plank 3x1min"}},
			0: {Name: "Active Rest", Subs: []string{"30 min walk", "Yoga/Stretching", "Extra meditation"}},
		},
		CategoryMental: {
			1: {Name: "Deep Study", Subs: []string{"Read 30 min", "Take notes", "Review concepts"}},
			2: {Name: "Active Practice", Subs: []string{"Topic exercises", "Flashcards", "Quiz"}},
			3: {Name: "Personal Project", Subs: []string{"Work on project", "Document progress"}},
			4: {Name: "Weekly Review", Subs: []string{"Review notes", "Find gaps", "Plan next week"}},
			5: {Name: "Creativity", Subs: []string{"Brainstorming", "Mind mapping", "Free writing"}},
			6: {Name: "Consolidation", Subs: []string{"Summarize learnings", "Make connections", "Teach someone"}},
			0: {Name: "Mental Rest", Subs: []string{"Light reading", "Interesting podcast", "Documentary"}},
		},
		CategorySpiritual: {
			1: {Name: "Basic Geometry", Subs: []string{"Perfect circles", "Straight lines", "Proportions"}},
			2: {Name: "Sacred Symbols", Subs: []string{"Draw the month's symbol", "Meditate on it", "Study its meaning"}},
			3: {Name: "Subtle Energy", Subs: []string{"Singing bowl", "Quartz cleansing", "Conscious breathing"}},
			4: {Name: "Dowsing", Subs: []string{"Pendulum practice", "Calibrate answers", "Simple questions"}},
			5: {Name: "Contemplation", Subs: []string{"Obsidian mirror", "Candle", "Silence"}},
			6: {Name: "Integration", Subs: []string{"Complex drawing", "Tarot + geometry", "Spiritual journaling"}},
			0: {Name: "Sacred Rest", Subs: []string{"Walk in nature", "Ritual bath", "Gratitude"}},
		},
	}
}

func DefaultLanguagePlan() PlanState {
	return PlanState{
		Daily: newDaily(LanguageFlags),
		Plan: []PlanTopic{
			{Title: "Month 1: Complex connectors", Desc: "however, although, despite. Drop plain and/but."},
			{Title: "Month 2: Narrative tenses", Desc: "Past continuous, past perfect."},
			{Title: "Month 3: Modal verbs", Desc: "Probability and advice (might, should have)."},
			{Title: "Month 4: Conditionals 1 & 2", Desc: "Dreams and real possibilities."},
			{Title: "Month 5: Passive voice", Desc: "Formal and business (The process was done...)."},
			{Title: "Month 6: Phrasal verbs", Desc: "Top 50 most common."},
			{Title: "Month 7: Third conditional", Desc: "Regrets (I would have...)."},
			{Title: "Month 8: Reported speech", Desc: "He said that..."},
			{Title: "Month 9: Gerunds vs infinitives", Desc: "Going vs to go."},
			{Title: "Month 10: Perfect modals", Desc: "Deduction (must have been)."},
			{Title: "Month 11: Idioms", Desc: "Native colloquial language."},
			{Title: "Month 12: Debate and argument", Desc: "Defend complex points of view."},
		},
	}
}

func DefaultSpiritualPlan() PlanState {
	return PlanState{
		Daily: newDaily(SpiritualFlags),
		Plan: []PlanTopic{
			{Title: "Month 1: Sacred geometry", Desc: "Seed of Life, one perfect drawing a day."},
			{Title: "Month 2: Tarot and archetypes", Desc: "One major arcana a day plus hidden geometry."},
			{Title: "Month 3: Vibrational cleansing", Desc: "Singing bowl and quartz before drawing."},
			{Title: "Month 4: The pendulum", Desc: "Answer boards with sacred geometry."},
			{Title: "Month 5: Programming quartz", Desc: "Charge crystals with frequencies."},
			{Title: "Month 6: The personal seal", Desc: "Design a personal sigil with circles."},
			{Title: "Month 7: Scrying", Desc: "5-10 min gazing into obsidian."},
			{Title: "Month 8: Metatron's cube", Desc: "Complex figure, maximum protection."},
			{Title: "Month 9: Shadows", Desc: "Tarot on what was seen in the mirror."},
			{Title: "Month 10: Platonic solids", Desc: "A different solid each week."},
			{Title: "Month 11: Mirror geometry", Desc: "Visualize figures over obsidian."},
			{Title: "Month 12: Master mandala", Desc: "Integrate the year's symbolism."},
		},
	}
}

func newDaily(flags []string) map[string]bool {
	d := make(map[string]bool, len(flags))
	for _, f := range flags {
		d[f] = false
	}
	return d
}
