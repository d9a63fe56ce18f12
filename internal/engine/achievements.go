package engine

import (
	"habitline/internal/storage"
)

// Achievement represents a badge the player can earn.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      bool
}

// AchievementChecker derives badges from a state snapshot. Nothing is stored.
type AchievementChecker struct {
	state *storage.State
}

func NewAchievementChecker(st *storage.State) *AchievementChecker {
	return &AchievementChecker{state: st}
}

// GetAchievements returns all achievements with their earned status.
func (c *AchievementChecker) GetAchievements() []Achievement {
	return []Achievement{
		// Level milestones
		c.levelAchievement("getting_started", "Getting Started", "Reach level 2", "🌱", 2),
		c.levelAchievement("on_the_path", "On the Path", "Reach level 5", "🌿", 5),
		c.levelAchievement("seasoned", "Seasoned", "Reach level 10", "🌳", 10),
		c.levelAchievement("master", "Master", "Reach level 20", "💫", 20),

		// Archived cycles across all tasks
		c.cycleAchievement("first_cycle", "Full Circle", "Archive 1 cycle", "🔄", 1),
		c.cycleAchievement("consistent", "Consistent", "Archive 10 cycles", "📋", 10),
		c.cycleAchievement("relentless", "Relentless", "Archive 50 cycles", "🏆", 50),

		// Category XP
		c.categoryAchievement("scholar", "Scholar", "1000 Mind XP", "🧠", storage.CategoryMental, 1000),
		c.categoryAchievement("athlete", "Athlete", "1000 Body XP", "💪", storage.CategoryPhysical, 1000),
		c.categoryAchievement("mystic", "Mystic", "1000 Spirit XP", "✨", storage.CategorySpiritual, 1000),

		// Plans
		c.planAchievement("polyglot_week", "Language Week", "Complete a 7-day language streak", "🗣️", PlanLanguage),
		c.planAchievement("sacred_week", "Sacred Week", "Complete a 7-day spiritual streak", "🕯️", PlanSpiritual),

		c.challengeAchievement("challenger", "Challenger", "Complete an active challenge", "🎯"),
		c.coinAchievement("saver", "Saver", "Hold 1000 coins", "🪙", 1000),
	}
}

// CountEarned returns how many achievements have been earned.
func (c *AchievementChecker) CountEarned() int {
	count := 0
	for _, a := range c.GetAchievements() {
		if a.Earned {
			count++
		}
	}
	return count
}

// CountTotal returns total number of achievements.
func (c *AchievementChecker) CountTotal() int {
	return len(c.GetAchievements())
}

func (c *AchievementChecker) levelAchievement(id, name, desc, icon string, level int) Achievement {
	earned := Level(TotalXP(c.state)) >= level
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

func (c *AchievementChecker) cycleAchievement(id, name, desc, icon string, count int) Achievement {
	cycles := 0
	for _, cat := range storage.Categories {
		for _, t := range c.state.Tasks[cat] {
			cycles += t.CyclesCompleted
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: cycles >= count}
}

func (c *AchievementChecker) categoryAchievement(id, name, desc, icon string, cat storage.Category, xp int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.state.XP[cat] >= xp}
}

// A closed week is the only way savings grow, so savings > 0 means one happened.
func (c *AchievementChecker) planAchievement(id, name, desc, icon string, kind PlanKind) Achievement {
	earned := planOf(c.state, kind).Savings > 0
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

func (c *AchievementChecker) challengeAchievement(id, name, desc, icon string) Achievement {
	earned := false
	for _, ch := range c.state.Challenges {
		if ch != nil && ch.Completed {
			earned = true
			break
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

func (c *AchievementChecker) coinAchievement(id, name, desc, icon string, coins int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.state.Coins >= coins}
}
