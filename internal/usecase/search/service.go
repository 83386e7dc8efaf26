// Package search implements filtered, paginated resource queries.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/scimd/internal/domain/filter"
	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
	"github.com/kailas-cloud/scimd/internal/metrics"
)

// Result is one page of matching resources with the full match count.
type Result struct {
	TotalResults int
	StartIndex   int
	Resources    []domres.Resource
}

// Service handles resource search.
type Service struct {
	repo ResourceLister

	maxFilterLength int
	maxFilterDepth  int
	defaultPageSize int
	maxPageSize     int
}

// New creates a search service.
func New(repo ResourceLister) *Service {
	return &Service{
		repo:            repo,
		maxFilterLength: 1000,
		maxFilterDepth:  50,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithFilterLimits configures filter complexity caps.
func (s *Service) WithFilterLimits(maxLength, maxDepth int) *Service {
	if maxLength > 0 {
		s.maxFilterLength = maxLength
	}
	if maxDepth > 0 {
		s.maxFilterDepth = maxDepth
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search returns the resources of a type matching rawFilter, paginated
// with SCIM 1-based indexing. An empty rawFilter matches everything.
// count < 0 requests the default page size; count == 0 returns only the
// match total.
func (s *Service) Search(
	ctx context.Context, resourceType, rawFilter string, startIndex, count int,
) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(resourceType).Observe(time.Since(start).Seconds())
	}()

	expr, err := s.parseFilter(rawFilter)
	if err != nil {
		metrics.FilterParseErrorsTotal.Inc()
		return Result{}, err
	}

	resources, err := s.repo.List(ctx, resourceType)
	if err != nil {
		return Result{}, fmt.Errorf("list resources: %w", err)
	}

	matched := resources
	if expr != nil {
		matched = make([]domres.Resource, 0, len(resources))
		for _, res := range resources {
			ok, err := filter.Evaluate(expr, res.Document())
			if err != nil {
				metrics.FilterEvaluationsTotal.WithLabelValues(resourceType, "error").Inc()
				return Result{}, fmt.Errorf("evaluate filter against %s: %w", res.ID(), err)
			}
			if ok {
				metrics.FilterEvaluationsTotal.WithLabelValues(resourceType, "match").Inc()
				matched = append(matched, res)
			} else {
				metrics.FilterEvaluationsTotal.WithLabelValues(resourceType, "no_match").Inc()
			}
		}
	}

	return paginate(matched, startIndex, count, s.defaultPageSize, s.maxPageSize), nil
}

func (s *Service) parseFilter(rawFilter string) (*filter.Expression, error) {
	if rawFilter == "" {
		return nil, nil
	}
	if len(rawFilter) > s.maxFilterLength {
		return nil, fmt.Errorf(
			"%w: filter exceeds %d characters", filter.ErrInvalidFilter, s.maxFilterLength,
		)
	}
	expr, err := filter.Parse(rawFilter)
	if err != nil {
		return nil, err
	}
	if expr.Depth() > s.maxFilterDepth {
		return nil, fmt.Errorf(
			"%w: filter exceeds nesting depth %d", filter.ErrInvalidFilter, s.maxFilterDepth,
		)
	}
	return expr, nil
}

func paginate(matched []domres.Resource, startIndex, count, defaultSize, maxSize int) Result {
	// RFC 7644 section 3.4.2.4: startIndex is 1-based, values < 1 are
	// treated as 1; count == 0 returns no resources, only the total.
	if startIndex < 1 {
		startIndex = 1
	}
	switch {
	case count < 0:
		count = defaultSize
	case count > maxSize:
		count = maxSize
	}

	total := len(matched)
	offset := startIndex - 1
	if offset > total {
		offset = total
	}
	end := offset + count
	if end > total {
		end = total
	}

	return Result{
		TotalResults: total,
		StartIndex:   startIndex,
		Resources:    matched[offset:end],
	}
}
