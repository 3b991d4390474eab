package configs

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

const (
	opList = "configs.list"

	// SortPopular orders listings by descending like count instead of recency.
	SortPopular = "popular"

	defaultPageSize = 20
	maxPageSize     = 100
)

// ListRequest describes a filtered, sorted, paginated listing.
type ListRequest struct {
	Query string
	Game  string
	Tag   string
	Sort  string
	Page  int
	Limit int
}

// ListResult is the listing outcome. Total counts every document matching
// the filters, independent of the requested page.
type ListResult struct {
	Total    int64
	Page     int
	PageSize int
	Results  []Config
}

// List composes the filter, sort and pagination contract into a single
// deterministic read. Filters AND together; an out-of-range page yields an
// empty result set with the correct total.
func (s *Service) List(ctx context.Context, request ListRequest) (ListResult, error) {
	page := request.Page
	if page < 1 {
		page = 1
	}
	limit := request.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := buildListFilter(request)

	var total int64
	if err := filter(s.db.WithContext(ctx).Model(&Config{})).Count(&total).Error; err != nil {
		s.logError(opList, "count_failed", err)
		return ListResult{}, newServiceError(opList, "count_failed", storeFailure(err))
	}

	order := "created_at_s DESC"
	if strings.TrimSpace(request.Sort) == SortPopular {
		order = "like_count DESC"
	}

	var results []Config
	err := filter(s.db.WithContext(ctx).Model(&Config{})).
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		s.logError(opList, "query_failed", err)
		return ListResult{}, newServiceError(opList, "query_failed", storeFailure(err))
	}

	return ListResult{
		Total:    total,
		Page:     page,
		PageSize: limit,
		Results:  results,
	}, nil
}

func buildListFilter(request ListRequest) func(*gorm.DB) *gorm.DB {
	game := strings.TrimSpace(request.Game)
	tag := strings.TrimSpace(request.Tag)
	query := strings.TrimSpace(request.Query)

	return func(db *gorm.DB) *gorm.DB {
		if game != "" {
			db = db.Where("LOWER(game) LIKE ?", "%"+strings.ToLower(game)+"%")
		}
		if tag != "" {
			db = db.Where(
				"EXISTS (SELECT 1 FROM json_each(configurations.tags) WHERE json_each.value = ?)",
				tag,
			)
		}
		if query != "" {
			pattern := "%" + strings.ToLower(query) + "%"
			db = db.Where(
				"(LOWER(game) LIKE ? OR LOWER(description) LIKE ? OR LOWER(content) LIKE ? OR LOWER(tags) LIKE ?)",
				pattern, pattern, pattern, pattern,
			)
		}
		return db
	}
}
