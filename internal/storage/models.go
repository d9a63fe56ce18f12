package storage

import "time"

// Category is one of the three fixed XP tracks. The wire names predate the
// Go port and are kept so existing blobs keep loading.
type Category string

const (
	CategoryMental    Category = "mental"
	CategoryPhysical  Category = "fisico"
	CategorySpiritual Category = "espiritual"
)

// Categories lists the tracks in display order.
var Categories = []Category{CategoryMental, CategoryPhysical, CategorySpiritual}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMental, CategoryPhysical, CategorySpiritual:
		return true
	default:
		return false
	}
}

// Frequency is the recurrence class of a task.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// GridSize is the number of progress slots in one cycle.
func (f Frequency) GridSize() int {
	switch f {
	case FrequencyWeekly:
		return 4
	case FrequencyMonthly:
		return 12
	default:
		return 7
	}
}

// SlotXP is the XP granted per checked slot.
func (f Frequency) SlotXP() int {
	switch f {
	case FrequencyWeekly:
		return 50
	case FrequencyMonthly:
		return 100
	default:
		return 15
	}
}

type State struct {
	XP           map[Category]int             `json:"xp"`
	Coins        int                          `json:"coins"`
	Tasks        map[Category][]Task          `json:"tasks"`
	Goals        map[Category][]Goal          `json:"goals"`
	Rewards      []Reward                     `json:"rewards"`
	Challenges   map[ChallengeKind]*Challenge `json:"challenges"`
	Routines     map[Category]map[int]Routine `json:"routines"`
	English      PlanState                    `json:"englishState"`
	Spiritual    PlanState                    `json:"spiritualState"`
	LastModified time.Time                    `json:"lastModified"`
}

type Task struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	XP              int       `json:"xp"`
	Completed       bool      `json:"completed"`
	Frequency       Frequency `json:"frequency"`
	GoalID          *string   `json:"goalId"`
	Progress        []bool    `json:"progress"`
	CyclesCompleted int       `json:"cyclesCompleted"`
	Subtasks        []Subtask `json:"subtasks,omitempty"`
	LastUpdate      string    `json:"lastUpdate,omitempty"`
}

type Subtask struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type Goal struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Reward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

type Routine struct {
	Name string   `json:"name" yaml:"name"`
	Subs []string `json:"subs" yaml:"subs"`
}

type PlanTopic struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type PlanState struct {
	CurrentMonth   int             `json:"currentMonth"`
	WeeklyStreak   int             `json:"weeklyStreak"`
	Savings        int             `json:"savings"`
	LastDate       string          `json:"lastDate"`
	LastStreakDate string          `json:"lastStreakDate,omitempty"`
	Daily          map[string]bool `json:"daily"`
	Plan           []PlanTopic     `json:"plan"`
}

type ChallengeKind string

const (
	ChallengeSocial  ChallengeKind = "social"
	ChallengeSavings ChallengeKind = "savings"
)

func (k ChallengeKind) IsValid() bool {
	return k == ChallengeSocial || k == ChallengeSavings
}

type Challenge struct {
	Options   []string `json:"options"`
	Current   string   `json:"current"`
	Completed bool     `json:"completed"`
}

// SyncEntry is one row of the local sync journal.
type SyncEntry struct {
	ID     int64
	At     time.Time
	Action string
	Detail string
}
