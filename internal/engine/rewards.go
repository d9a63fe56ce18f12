package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"habitline/internal/storage"
)

func validateCost(cost int) error {
	if cost <= 0 {
		return ValidationError{Field: "cost", Reason: "must be positive"}
	}
	return nil
}

func (s *Service) AddReward(ctx context.Context, name string, cost int) (*storage.Reward, error) {
	n, err := normalizeText("reward", name)
	if err != nil {
		return nil, err
	}
	if err := validateCost(cost); err != nil {
		return nil, err
	}
	r := storage.Reward{ID: uuid.NewString(), Name: n, Cost: cost}
	err = s.mutate(ctx, "add reward", func(st *storage.State) error {
		st.Rewards = append(st.Rewards, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// EditReward changes name and/or cost; empty name or zero cost keep the
// current value.
func (s *Service) EditReward(ctx context.Context, id, name string, cost int) error {
	if cost != 0 {
		if err := validateCost(cost); err != nil {
			return err
		}
	}
	return s.mutate(ctx, "edit reward", func(st *storage.State) error {
		r, err := findReward(st, id)
		if err != nil {
			return err
		}
		if n, err := normalizeText("reward", name); err == nil {
			r.Name = n
		}
		if cost != 0 {
			r.Cost = cost
		}
		return nil
	})
}

func (s *Service) DeleteReward(ctx context.Context, id string) error {
	s.mu.Lock()
	r, err := findReward(s.state, id)
	var name string
	if err == nil {
		name = r.Name
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.confirm(ctx, fmt.Sprintf("Delete reward %q?", name)); err != nil {
		return err
	}
	return s.mutate(ctx, "delete reward", func(st *storage.State) error {
		for i := range st.Rewards {
			if st.Rewards[i].ID == id {
				st.Rewards = append(st.Rewards[:i:i], st.Rewards[i+1:]...)
				return nil
			}
		}
		return NotFoundError{Kind: "reward", ID: id}
	})
}

// RedeemReward spends coins on a reward. XP is untouched.
func (s *Service) RedeemReward(ctx context.Context, id string) (*storage.Reward, error) {
	var redeemed storage.Reward
	err := s.mutate(ctx, "redeem reward", func(st *storage.State) error {
		r, err := findReward(st, id)
		if err != nil {
			return err
		}
		if st.Coins < r.Cost {
			return InsufficientCoinsError{Cost: r.Cost, Balance: st.Coins}
		}
		st.Coins -= r.Cost
		redeemed = *r
		s.announce("Reward redeemed", fmt.Sprintf("You redeemed %s for %d coins", r.Name, r.Cost))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &redeemed, nil
}

func findReward(st *storage.State, id string) (*storage.Reward, error) {
	for i := range st.Rewards {
		if st.Rewards[i].ID == id {
			return &st.Rewards[i], nil
		}
	}
	return nil, NotFoundError{Kind: "reward", ID: id}
}
