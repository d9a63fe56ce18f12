package engine

import (
	"context"

	"habitline/internal/storage"
)

// LevelSize is the XP span of one level.
const LevelSize = 1000

// Level returns floor(totalXP/1000)+1.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/LevelSize + 1
}

// LevelProgress returns the XP earned inside the current level and the
// matching percentage.
func LevelProgress(totalXP int) (xpInLevel int, percent float64) {
	if totalXP < 0 {
		totalXP = 0
	}
	xpInLevel = totalXP % LevelSize
	return xpInLevel, float64(xpInLevel) / LevelSize * 100
}

// TotalXP sums the three categories.
func TotalXP(st *storage.State) int {
	total := 0
	for _, c := range storage.Categories {
		total += st.XP[c]
	}
	return total
}

// AddXP grants amount to a category and the same amount of coins.
func (s *Service) AddXP(ctx context.Context, cat storage.Category, amount int) error {
	if !cat.IsValid() {
		return ValidationError{Field: "category", Reason: string(cat)}
	}
	return s.mutate(ctx, "add xp", func(st *storage.State) error {
		if amount >= 0 {
			addXP(st, cat, amount)
		} else {
			subtractXP(st, cat, -amount)
		}
		return nil
	})
}

func addXP(st *storage.State, cat storage.Category, amount int) {
	st.XP[cat] += amount
	st.Coins += amount
}

// subtractXP undoes a grant. Both balances are clamped at zero.
func subtractXP(st *storage.State, cat storage.Category, amount int) {
	st.XP[cat] = max(0, st.XP[cat]-amount)
	st.Coins = max(0, st.Coins-amount)
}
