package engine

import (
	"context"
	"fmt"
	"slices"

	"habitline/internal/storage"
)

// PlanResult reports what a flag toggle did to the streak.
type PlanResult struct {
	Checked       bool
	DayCompleted  bool
	WeekCompleted bool
	Streak        int
	Savings       int
}

func planOf(st *storage.State, kind PlanKind) *storage.PlanState {
	if kind == PlanSpiritual {
		return &st.Spiritual
	}
	return &st.English
}

// rollover clears the daily flags when the stored date is not today.
func rollover(p *storage.PlanState, flags []string, today string) bool {
	if p.LastDate == today {
		return false
	}
	p.Daily = make(map[string]bool, len(flags))
	for _, f := range flags {
		p.Daily[f] = false
	}
	p.LastDate = today
	return true
}

// RolloverPlans applies the day change to both plans and saves only if
// something changed.
func (s *Service) RolloverPlans(ctx context.Context) error {
	today := s.Today()
	return s.mutate(ctx, "plan rollover", func(st *storage.State) error {
		a := rollover(&st.English, PlanLanguage.Flags(), today)
		b := rollover(&st.Spiritual, PlanSpiritual.Flags(), today)
		if !a && !b {
			return errNoChange
		}
		return nil
	})
}

// TogglePlanFlag flips one daily flag. The first time all three are true on
// a given date the streak advances; the seventh day closes the week.
func (s *Service) TogglePlanFlag(ctx context.Context, kind PlanKind, flag string) (*PlanResult, error) {
	if !kind.IsValid() {
		return nil, ValidationError{Field: "plan", Reason: string(kind)}
	}
	if !slices.Contains(kind.Flags(), flag) {
		return nil, ValidationError{Field: "flag", Reason: fmt.Sprintf("%s plan has no flag %q", kind, flag)}
	}
	today := s.Today()

	res := &PlanResult{}
	err := s.mutate(ctx, "toggle plan flag", func(st *storage.State) error {
		p := planOf(st, kind)
		rollover(p, kind.Flags(), today)
		p.Daily[flag] = !p.Daily[flag]
		res.Checked = p.Daily[flag]

		if allFlags(p.Daily, kind.Flags()) && p.LastStreakDate != today {
			p.WeeklyStreak++
			p.LastStreakDate = today
			st.Coins += PlanDayCoins
			addXP(st, kind.Category(), PlanDayXP)
			res.DayCompleted = true

			if p.WeeklyStreak >= PlanWeekLength {
				p.WeeklyStreak = 0
				p.Savings += PlanWeekSavings
				addXP(st, kind.Category(), PlanWeekXP)
				res.WeekCompleted = true
				s.announce("Week completed", fmt.Sprintf("%s plan: 7 days in a row, +%d XP and %d savings", kind, PlanWeekXP, PlanWeekSavings))
			} else {
				s.announce("Day completed", fmt.Sprintf("%s plan: streak %d/%d", kind, p.WeeklyStreak, PlanWeekLength))
			}
		}
		res.Streak = p.WeeklyStreak
		res.Savings = p.Savings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ChangePlanMonth moves the month pointer by delta, wrapping modulo 12.
func (s *Service) ChangePlanMonth(ctx context.Context, kind PlanKind, delta int) (int, error) {
	if !kind.IsValid() {
		return 0, ValidationError{Field: "plan", Reason: string(kind)}
	}
	var month int
	err := s.mutate(ctx, "change plan month", func(st *storage.State) error {
		p := planOf(st, kind)
		n := len(p.Plan)
		if n == 0 {
			return ValidationError{Field: "plan", Reason: "has no topics"}
		}
		p.CurrentMonth = ((p.CurrentMonth+delta)%n + n) % n
		month = p.CurrentMonth
		return nil
	})
	return month, err
}

// EditPlanTopic replaces the description of the current month's topic.
func (s *Service) EditPlanTopic(ctx context.Context, kind PlanKind, desc string) error {
	if !kind.IsValid() {
		return ValidationError{Field: "plan", Reason: string(kind)}
	}
	d, err := normalizeText("description", desc)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "edit plan topic", func(st *storage.State) error {
		p := planOf(st, kind)
		if p.CurrentMonth < 0 || p.CurrentMonth >= len(p.Plan) {
			return ValidationError{Field: "plan", Reason: "current month out of range"}
		}
		p.Plan[p.CurrentMonth].Desc = d
		return nil
	})
}

// CurrentTopic returns the plan and its current topic after applying the
// day rollover.
func (s *Service) CurrentTopic(ctx context.Context, kind PlanKind) (storage.PlanState, storage.PlanTopic, error) {
	if err := s.RolloverPlans(ctx); err != nil {
		return storage.PlanState{}, storage.PlanTopic{}, err
	}
	st, err := s.State()
	if err != nil {
		return storage.PlanState{}, storage.PlanTopic{}, err
	}
	p := *planOf(st, kind)
	var topic storage.PlanTopic
	if p.CurrentMonth >= 0 && p.CurrentMonth < len(p.Plan) {
		topic = p.Plan[p.CurrentMonth]
	}
	return p, topic, nil
}

func allFlags(daily map[string]bool, flags []string) bool {
	for _, f := range flags {
		if !daily[f] {
			return false
		}
	}
	return true
}
