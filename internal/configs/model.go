package configs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidConfigID indicates that an identifier cannot be resolved to the store's key format.
	ErrInvalidConfigID = errors.New("configs: invalid config id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("configs: invalid user id")
)

// ConfigID represents a validated configuration identifier.
type ConfigID string

// NewConfigID validates raw input against the store's UUID key format.
func NewConfigID(rawInput string) (ConfigID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidConfigID)
	}
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidConfigID, trimmed)
	}
	return ConfigID(trimmed), nil
}

// String returns the underlying string identifier.
func (id ConfigID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// VersionSnapshot captures a configuration payload at a point in time. Immutable once appended.
type VersionSnapshot struct {
	Content          string `json:"content"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

// Comment is an annotation left by any authenticated caller. Immutable once appended.
type Comment struct {
	AuthorID         string `json:"author_id"`
	AuthorName       string `json:"author_name"`
	Text             string `json:"text"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

// Config models the persisted configuration document. The tags, liked_by,
// comments and versions collections are value-owned by the row and stored as
// JSON columns; they have no independent lifecycle.
type Config struct {
	ConfigID         string                               `gorm:"column:config_id;primaryKey;size:190;not null"`
	Game             string                               `gorm:"column:game;size:190;not null;index:idx_configs_game"`
	Description      string                               `gorm:"column:description;type:text;not null;default:''"`
	Content          string                               `gorm:"column:content;type:text;not null"`
	Tags             datatypes.JSONSlice[string]          `gorm:"column:tags"`
	AuthorID         string                               `gorm:"column:author_id;size:190;not null;index:idx_configs_author"`
	AuthorName       string                               `gorm:"column:author_name;size:190;not null"`
	LikeCount        int64                                `gorm:"column:like_count;not null;default:0;index:idx_configs_likes"`
	LikedBy          datatypes.JSONSlice[string]          `gorm:"column:liked_by"`
	Comments         datatypes.JSONSlice[Comment]         `gorm:"column:comments"`
	Versions         datatypes.JSONSlice[VersionSnapshot] `gorm:"column:versions"`
	CreatedAtSeconds int64                                `gorm:"column:created_at_s;not null;index:idx_configs_created"`
}

// TableName provides the explicit table binding for GORM.
func (Config) TableName() string {
	return "configurations"
}

// LikedByContains reports whether the given user id is present in the liked_by set.
func (c *Config) LikedByContains(userID string) bool {
	for _, id := range c.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// dedupeStrings drops empty entries and duplicates while preserving first-seen order.
func dedupeStrings(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
