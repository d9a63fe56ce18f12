package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EncodeState serializes the whole state into the blob format shared by the
// local store and the cloud table.
func EncodeState(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a blob, migrates legacy routines and fills every missing
// field with its default. migrated reports whether the routine migration ran.
func DecodeState(data []byte) (s *State, migrated bool, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}

	var routines map[Category]map[int]Routine
	if rr, ok := raw["routines"]; ok && !isNull(rr) {
		routines, migrated, err = decodeRoutines(rr)
		if err != nil {
			return nil, false, err
		}
		delete(raw, "routines")
	}

	rest, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}
	var st State
	if err := json.Unmarshal(rest, &st); err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}
	st.Routines = routines

	Repair(&st)
	return &st, migrated, nil
}

// decodeRoutines accepts both the category-indexed shape and the legacy flat
// weekday mapping. Legacy entries land in the physical category.
func decodeRoutines(data json.RawMessage) (map[Category]map[int]Routine, bool, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, false, fmt.Errorf("decode routines: %w", err)
	}

	legacy := false
	for k := range keys {
		if _, err := strconv.Atoi(k); err == nil {
			legacy = true
			break
		}
	}

	if !legacy {
		var out map[Category]map[int]Routine
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, false, fmt.Errorf("decode routines: %w", err)
		}
		return out, false, nil
	}

	var old map[int]*Routine
	if err := json.Unmarshal(data, &old); err != nil {
		return nil, false, fmt.Errorf("decode legacy routines: %w", err)
	}
	out := DefaultRoutines()
	for day := 0; day <= 6; day++ {
		r := old[day]
		if r == nil {
			continue
		}
		subs := r.Subs
		if subs == nil {
			subs = []string{}
		}
		out[CategoryPhysical][day] = Routine{Name: r.Name, Subs: subs}
	}
	return out, true, nil
}

func isNull(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}

// Repair fills missing fields with defaults and clamps values that would
// break invariants. It never fails.
func Repair(s *State) {
	if s.XP == nil {
		s.XP = map[Category]int{}
	}
	if s.Tasks == nil {
		s.Tasks = DefaultTasks()
	}
	if s.Goals == nil {
		s.Goals = map[Category][]Goal{}
	}
	for _, c := range Categories {
		if v, ok := s.XP[c]; !ok || v < 0 {
			s.XP[c] = 0
		}
		if s.Tasks[c] == nil {
			s.Tasks[c] = []Task{}
		}
		if s.Goals[c] == nil {
			s.Goals[c] = []Goal{}
		}
	}
	if s.Coins < 0 {
		s.Coins = 0
	}

	for _, c := range Categories {
		for i := range s.Tasks[c] {
			t := &s.Tasks[c][i]
			if !t.Frequency.IsValid() {
				t.Frequency = FrequencyDaily
			}
			if t.Progress == nil {
				t.Progress = make([]bool, t.Frequency.GridSize())
			}
			if t.CyclesCompleted < 0 {
				t.CyclesCompleted = 0
			}
		}
	}

	if s.Rewards == nil {
		s.Rewards = DefaultRewards()
	}

	defChallenges := DefaultChallenges()
	if s.Challenges == nil {
		s.Challenges = defChallenges
	}
	for kind, ch := range defChallenges {
		if s.Challenges[kind] == nil {
			s.Challenges[kind] = ch
		}
	}

	defRoutines := DefaultRoutines()
	if s.Routines == nil {
		s.Routines = defRoutines
	}
	for _, c := range Categories {
		if s.Routines[c] == nil {
			s.Routines[c] = defRoutines[c]
		}
	}

	repairPlan(&s.English, DefaultLanguagePlan(), LanguageFlags)
	repairPlan(&s.Spiritual, DefaultSpiritualPlan(), SpiritualFlags)

	if !s.LastModified.IsZero() {
		s.LastModified = Stamp(s.LastModified)
	}
}

func repairPlan(p *PlanState, def PlanState, flags []string) {
	if len(p.Plan) != len(def.Plan) {
		p.Plan = def.Plan
	}
	if p.Daily == nil {
		p.Daily = def.Daily
	}
	for _, f := range flags {
		if _, ok := p.Daily[f]; !ok {
			p.Daily[f] = false
		}
	}
	n := len(p.Plan)
	p.CurrentMonth = ((p.CurrentMonth % n) + n) % n
	if p.WeeklyStreak < 0 || p.WeeklyStreak >= 7 {
		p.WeeklyStreak = 0
	}
	if p.Savings < 0 {
		p.Savings = 0
	}
}

// Stamp normalizes a modification time to the precision both tiers can
// round-trip (milliseconds, UTC).
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
