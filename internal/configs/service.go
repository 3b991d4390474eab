package configs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew   = "configs.service.new"
	opCreate       = "configs.create"
	opGet          = "configs.get"
	opUpdate       = "configs.update"
	opDelete       = "configs.delete"
	opAddVersion   = "configs.add_version"
	opListVersions = "configs.list_versions"
)

// Identity is the resolved caller identity supplied by the authentication gate.
type Identity struct {
	ID       string
	Username string
}

// ServiceConfig describes the dependencies required by the configuration service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// IDProvider issues store-assigned configuration identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Service owns the configuration entity lifecycle: creation, versioned
// updates, ownership-gated mutation and the collaboration operations.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the configuration service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateInput carries the caller-supplied fields for a new configuration.
type CreateInput struct {
	Game        string
	Description string
	Content     string
	Tags        []string
}

// UpdateInput carries a partial update: nil fields leave the stored value untouched.
type UpdateInput struct {
	Game        *string
	Description *string
	Content     *string
	Tags        []string
}

// Create persists a new configuration owned by the caller. The initial
// content is seeded as the first version snapshot.
func (s *Service) Create(ctx context.Context, identity Identity, input CreateInput) (*Config, error) {
	if err := validateIdentity(opCreate, identity); err != nil {
		return nil, err
	}
	game := strings.TrimSpace(input.Game)
	if game == "" {
		return nil, newServiceError(opCreate, "missing_game", fmt.Errorf("%w: game is required", ErrValidation))
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, newServiceError(opCreate, "missing_content", fmt.Errorf("%w: content is required", ErrValidation))
	}

	configID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err)
		return nil, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC().Unix()
	record := Config{
		ConfigID:    configID,
		Game:        game,
		Description: input.Description,
		Content:     input.Content,
		Tags:        datatypes.NewJSONSlice(dedupeStrings(input.Tags)),
		AuthorID:    identity.ID,
		AuthorName:  identity.Username,
		LikeCount:   0,
		LikedBy:     datatypes.NewJSONSlice([]string{}),
		Comments:    datatypes.NewJSONSlice([]Comment{}),
		Versions: datatypes.NewJSONSlice([]VersionSnapshot{
			{Content: input.Content, CreatedAtSeconds: now},
		}),
		CreatedAtSeconds: now,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opCreate, "insert_failed", err, zap.String("config_id", configID))
		return nil, newServiceError(opCreate, "insert_failed", storeFailure(err))
	}

	return &record, nil
}

// Get loads a single configuration by identifier.
func (s *Service) Get(ctx context.Context, rawID string) (*Config, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return nil, newServiceError(opGet, "invalid_id", err)
	}

	var stored Config
	err = s.db.WithContext(ctx).
		Where("config_id = ?", configID.String()).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(opGet, "not_found", fmt.Errorf("%w: %s", ErrNotFound, configID))
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.String("config_id", configID.String()))
		return nil, newServiceError(opGet, "query_failed", storeFailure(err))
	}

	return &stored, nil
}

// Update applies a partial update to a configuration owned by the caller.
// When content is replaced, the pre-update content is appended to the version
// history first; both steps commit in a single store transaction.
func (s *Service) Update(ctx context.Context, rawID string, identity Identity, input UpdateInput) (*Config, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return nil, newServiceError(opUpdate, "invalid_id", err)
	}
	if err := validateIdentity(opUpdate, identity); err != nil {
		return nil, err
	}
	if input.Game != nil && strings.TrimSpace(*input.Game) == "" {
		return nil, newServiceError(opUpdate, "missing_game", fmt.Errorf("%w: game must not be empty", ErrValidation))
	}
	if input.Content != nil && strings.TrimSpace(*input.Content) == "" {
		return nil, newServiceError(opUpdate, "missing_content", fmt.Errorf("%w: content must not be empty", ErrValidation))
	}

	var updated Config
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opUpdate, configID)
		if err != nil {
			return err
		}
		if stored.AuthorID != identity.ID {
			return newServiceError(opUpdate, "not_author", fmt.Errorf("%w: %s", ErrForbidden, identity.ID))
		}

		if input.Content != nil {
			stored.Versions = append(stored.Versions, VersionSnapshot{
				Content:          stored.Content,
				CreatedAtSeconds: s.clock().UTC().Unix(),
			})
			stored.Content = *input.Content
		}
		if input.Game != nil {
			stored.Game = strings.TrimSpace(*input.Game)
		}
		if input.Description != nil {
			stored.Description = *input.Description
		}
		if input.Tags != nil {
			stored.Tags = datatypes.NewJSONSlice(dedupeStrings(input.Tags))
		}

		if err := tx.Save(stored).Error; err != nil {
			s.logError(opUpdate, "save_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opUpdate, "save_failed", storeFailure(err))
		}
		updated = *stored
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &updated, nil
}

// Delete removes a configuration owned by the caller. Deletion is terminal;
// identifiers are store-assigned, so a deleted id can never be recreated.
func (s *Service) Delete(ctx context.Context, rawID string, identity Identity) error {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return newServiceError(opDelete, "invalid_id", err)
	}
	if err := validateIdentity(opDelete, identity); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opDelete, configID)
		if err != nil {
			return err
		}
		if stored.AuthorID != identity.ID {
			return newServiceError(opDelete, "not_author", fmt.Errorf("%w: %s", ErrForbidden, identity.ID))
		}

		if err := tx.Where("config_id = ?", configID.String()).Delete(&Config{}).Error; err != nil {
			s.logError(opDelete, "delete_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opDelete, "delete_failed", storeFailure(err))
		}
		return nil
	})
}

// AddVersion appends caller-supplied content as a new version snapshot while
// leaving the live fields untouched.
func (s *Service) AddVersion(ctx context.Context, rawID string, identity Identity, content string) ([]VersionSnapshot, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return nil, newServiceError(opAddVersion, "invalid_id", err)
	}
	if err := validateIdentity(opAddVersion, identity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, newServiceError(opAddVersion, "missing_content", fmt.Errorf("%w: content is required", ErrValidation))
	}

	var versions []VersionSnapshot
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opAddVersion, configID)
		if err != nil {
			return err
		}
		if stored.AuthorID != identity.ID {
			return newServiceError(opAddVersion, "not_author", fmt.Errorf("%w: %s", ErrForbidden, identity.ID))
		}

		stored.Versions = append(stored.Versions, VersionSnapshot{
			Content:          content,
			CreatedAtSeconds: s.clock().UTC().Unix(),
		})
		if err := tx.Save(stored).Error; err != nil {
			s.logError(opAddVersion, "save_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opAddVersion, "save_failed", storeFailure(err))
		}
		versions = stored.Versions
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return versions, nil
}

// ListVersions returns the version history, oldest snapshot first.
func (s *Service) ListVersions(ctx context.Context, rawID string) ([]VersionSnapshot, error) {
	stored, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return stored.Versions, nil
}

// lockConfig loads a configuration row under a row lock inside the supplied
// transaction, so read-modify-write sequences serialize at the store.
func (s *Service) lockConfig(tx *gorm.DB, operation string, configID ConfigID) (*Config, error) {
	var stored Config
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("config_id = ?", configID.String()).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(operation, "not_found", fmt.Errorf("%w: %s", ErrNotFound, configID))
	}
	if err != nil {
		s.logError(operation, "select_failed", err, zap.String("config_id", configID.String()))
		return nil, newServiceError(operation, "select_failed", storeFailure(err))
	}
	return &stored, nil
}

func validateIdentity(operation string, identity Identity) error {
	if _, err := NewUserID(identity.ID); err != nil {
		return newServiceError(operation, "invalid_identity", err)
	}
	return nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("configs service error", attrs...)
}
