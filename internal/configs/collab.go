package configs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opAddComment   = "configs.add_comment"
	opListComments = "configs.list_comments"
	opLike         = "configs.like"
	opUnlike       = "configs.unlike"
)

// AddComment appends a comment from any authenticated caller and returns the
// updated comment sequence. There is no ownership gate on commenting.
func (s *Service) AddComment(ctx context.Context, rawID string, identity Identity, text string) ([]Comment, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return nil, newServiceError(opAddComment, "invalid_id", err)
	}
	if err := validateIdentity(opAddComment, identity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, newServiceError(opAddComment, "missing_text", fmt.Errorf("%w: text is required", ErrValidation))
	}

	var comments []Comment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opAddComment, configID)
		if err != nil {
			return err
		}

		stored.Comments = append(stored.Comments, Comment{
			AuthorID:         identity.ID,
			AuthorName:       identity.Username,
			Text:             text,
			CreatedAtSeconds: s.clock().UTC().Unix(),
		})
		if err := tx.Save(stored).Error; err != nil {
			s.logError(opAddComment, "save_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opAddComment, "save_failed", storeFailure(err))
		}
		comments = stored.Comments
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return comments, nil
}

// ListComments returns the comment sequence, oldest first.
func (s *Service) ListComments(ctx context.Context, rawID string) ([]Comment, error) {
	stored, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return stored.Comments, nil
}

// Like records that the caller likes the configuration. Liking twice is a
// no-op: the liked_by set keeps at most one entry per caller and like_count
// always equals its size. Returns the resulting like count.
func (s *Service) Like(ctx context.Context, rawID string, identity Identity) (int64, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return 0, newServiceError(opLike, "invalid_id", err)
	}
	if err := validateIdentity(opLike, identity); err != nil {
		return 0, err
	}

	var likeCount int64
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opLike, configID)
		if err != nil {
			return err
		}

		if stored.LikedByContains(identity.ID) {
			likeCount = stored.LikeCount
			return nil
		}

		stored.LikedBy = append(stored.LikedBy, identity.ID)
		stored.LikedBy = dedupeStrings(stored.LikedBy)
		stored.LikeCount = int64(len(stored.LikedBy))
		if err := tx.Save(stored).Error; err != nil {
			s.logError(opLike, "save_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opLike, "save_failed", storeFailure(err))
		}
		likeCount = stored.LikeCount
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	return likeCount, nil
}

// Unlike removes the caller from the liked_by set. Removing an absent entry
// is a no-op, not an error. Returns the resulting like count.
func (s *Service) Unlike(ctx context.Context, rawID string, identity Identity) (int64, error) {
	configID, err := NewConfigID(rawID)
	if err != nil {
		return 0, newServiceError(opUnlike, "invalid_id", err)
	}
	if err := validateIdentity(opUnlike, identity); err != nil {
		return 0, err
	}

	var likeCount int64
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.lockConfig(tx, opUnlike, configID)
		if err != nil {
			return err
		}

		if !stored.LikedByContains(identity.ID) {
			likeCount = stored.LikeCount
			return nil
		}

		remaining := make([]string, 0, len(stored.LikedBy))
		for _, userID := range stored.LikedBy {
			if userID != identity.ID {
				remaining = append(remaining, userID)
			}
		}
		stored.LikedBy = remaining
		stored.LikeCount = int64(len(stored.LikedBy))
		if err := tx.Save(stored).Error; err != nil {
			s.logError(opUnlike, "save_failed", err, zap.String("config_id", configID.String()))
			return newServiceError(opUnlike, "save_failed", storeFailure(err))
		}
		likeCount = stored.LikeCount
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	return likeCount, nil
}
