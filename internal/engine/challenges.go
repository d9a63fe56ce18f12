package engine

import (
	"context"
	"fmt"
	"slices"

	"habitline/internal/storage"
)

func challengeOf(st *storage.State, kind storage.ChallengeKind) *storage.Challenge {
	c := st.Challenges[kind]
	if c == nil {
		c = storage.DefaultChallenges()[kind]
		st.Challenges[kind] = c
	}
	return c
}

func (s *Service) AddChallengeOption(ctx context.Context, kind storage.ChallengeKind, text string) error {
	if !kind.IsValid() {
		return invalidChallenge(string(kind))
	}
	t, err := normalizeText("challenge", text)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "add challenge option", func(st *storage.State) error {
		c := challengeOf(st, kind)
		if slices.Contains(c.Options, t) {
			return errNoChange
		}
		c.Options = append(c.Options, t)
		return nil
	})
}

// SetActiveChallenge picks the current challenge and clears its completion.
// Text not yet in the catalogue is added to it.
func (s *Service) SetActiveChallenge(ctx context.Context, kind storage.ChallengeKind, text string) error {
	if !kind.IsValid() {
		return invalidChallenge(string(kind))
	}
	t, err := normalizeText("challenge", text)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "set challenge", func(st *storage.State) error {
		c := challengeOf(st, kind)
		if !slices.Contains(c.Options, t) {
			c.Options = append(c.Options, t)
		}
		c.Current = t
		c.Completed = false
		return nil
	})
}

// CompleteChallenge grants ChallengeXP to every category, once per active
// challenge. It reports false when already completed.
func (s *Service) CompleteChallenge(ctx context.Context, kind storage.ChallengeKind) (bool, error) {
	if !kind.IsValid() {
		return false, invalidChallenge(string(kind))
	}
	granted := false
	err := s.mutate(ctx, "complete challenge", func(st *storage.State) error {
		c := challengeOf(st, kind)
		if c.Completed {
			return errNoChange
		}
		c.Completed = true
		for _, cat := range storage.Categories {
			addXP(st, cat, ChallengeXP)
		}
		granted = true
		s.announce("Challenge completed", fmt.Sprintf("%q done, +%d XP", c.Current, ChallengeXP*len(storage.Categories)))
		return nil
	})
	return granted, err
}
