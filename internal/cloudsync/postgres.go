package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// gameState is one row per user holding the whole serialized state.
type gameState struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	StateData string    `gorm:"column:state_data;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Version   int       `gorm:"column:version;not null;default:1"`
}

func (gameState) TableName() string { return "game_states" }

// OpenPostgres prepares the remote store. It does not dial; the first query
// does, so an unreachable server surfaces as a connection error there.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// PostgresRemote is the Remote backed by the game_states table. The session
// comes from a configured access token.
type PostgresRemote struct {
	db     *gorm.DB
	token  string
	secret string
}

func NewPostgresRemote(db *gorm.DB, accessToken, jwtSecret string) *PostgresRemote {
	return &PostgresRemote{db: db, token: accessToken, secret: jwtSecret}
}

// EnsureSchema creates game_states when missing.
func (r *PostgresRemote) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&gameState{}); err != nil {
		return fmt.Errorf("migrate game_states: %w", err)
	}
	return nil
}

func (r *PostgresRemote) GetSession(ctx context.Context) (*Session, error) {
	if r.token == "" {
		return nil, nil
	}
	s, err := ParseAccessToken(r.token, r.secret)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRemote) FetchState(ctx context.Context, userID string) (*RemoteRecord, error) {
	var row gameState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch game state: %w", err)
	}
	return &RemoteRecord{
		StateData: []byte(row.StateData),
		UpdatedAt: row.UpdatedAt,
		Version:   row.Version,
	}, nil
}

// UpsertState writes the blob keyed by user id and bumps the version.
func (r *PostgresRemote) UpsertState(ctx context.Context, userID string, stateData []byte, updatedAt time.Time) error {
	row := gameState{
		UserID:    userID,
		StateData: string(stateData),
		UpdatedAt: updatedAt.UTC(),
		Version:   1,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"state_data": gorm.Expr("excluded.state_data"),
			"updated_at": gorm.Expr("excluded.updated_at"),
			"version":    gorm.Expr("game_states.version + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert game state: %w", err)
	}
	return nil
}
