package engine

import (
	"context"
	"time"

	"habitline/internal/storage"
)

const (
	// ArchiveBonusShort is granted when a daily grid is archived.
	ArchiveBonusShort = 200
	// ArchiveBonusLong is granted for weekly and monthly grids.
	ArchiveBonusLong = 500

	PlanDayCoins    = 100
	PlanDayXP       = 50
	PlanWeekXP      = 300
	PlanWeekSavings = 3
	PlanWeekLength  = 7

	ChallengeXP = 50

	RoutineTaskXP = 200
)

// PlanKind names one of the two month-indexed plans.
type PlanKind string

const (
	PlanLanguage  PlanKind = "language"
	PlanSpiritual PlanKind = "spiritual"
)

func (k PlanKind) IsValid() bool {
	return k == PlanLanguage || k == PlanSpiritual
}

// Category is the XP track a plan's bonuses go to.
func (k PlanKind) Category() storage.Category {
	if k == PlanSpiritual {
		return storage.CategorySpiritual
	}
	return storage.CategoryMental
}

// Flags lists the three daily checklist keys.
func (k PlanKind) Flags() []string {
	if k == PlanSpiritual {
		return storage.SpiritualFlags
	}
	return storage.LanguageFlags
}

// StateStore persists the serialized state blob.
type StateStore interface {
	Load(ctx context.Context) (*storage.StoredState, error)
	Save(ctx context.Context, data []byte, lastModified time.Time) error
}

// Syncer receives every persisted blob. Implementations must not block.
type Syncer interface {
	NotifyMutation(ctx context.Context, data []byte, lastModified time.Time)
}

// Renderer redraws whatever view shows the state.
type Renderer interface {
	RenderAll()
}

// Announcer surfaces milestone messages (cycle archived, week completed...).
type Announcer interface {
	Announce(title, message string)
}

// Confirmer asks the user before destructive edits.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type noopSyncer struct{}

func (noopSyncer) NotifyMutation(context.Context, []byte, time.Time) {}

type noopRenderer struct{}

func (noopRenderer) RenderAll() {}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(string, string) {}

// AutoConfirm answers yes to everything.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }
