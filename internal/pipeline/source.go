package pipeline

import (
	"context"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

// Fetcher pages through one upstream endpoint for one partition. The
// upstream.Client satisfies it; tests substitute fakes.
type Fetcher interface {
	FetchPartition(ctx context.Context, path, partition string, pageSize int) ([]domain.RawRow, error)
}

// Endpoint pairs an upstream path with the record kind its rows normalize
// into.
type Endpoint struct {
	Path string
	Kind domain.RecordKind
}

// ComplianceEndpoints lists the compliance export tables in fetch order.
var ComplianceEndpoints = []Endpoint{
	{Path: "permits", Kind: domain.KindPermit},
	{Path: "violations", Kind: domain.KindViolation},
	{Path: "monitoring", Kind: domain.KindMonitoring},
	{Path: "enforcement", Kind: domain.KindEnforcement},
}

// WaterQualityEndpoints lists the water-quality export tables in fetch
// order, using the portal's path vocabulary.
var WaterQualityEndpoints = []Endpoint{
	{Path: "Station/search", Kind: domain.KindSite},
	{Path: "Result/search", Kind: domain.KindReading},
}

// Source describes one upstream system feeding one cache store.
type Source struct {
	Name       string
	Endpoints  []Endpoint
	Partitions []string
	PageSize   int

	// KeepPartials controls what happens when a fetch dies mid-partition:
	// compliance discards the partition (cross-endpoint consistency
	// matters more than coverage), water quality keeps the rows it got
	// (independent samples, coverage matters more).
	KeepPartials bool

	// PartitionValue encodes a jurisdiction code for the upstream query;
	// nil means the code is used as-is. Water quality needs FIPS encoding.
	PartitionValue func(code string) string

	// Hooks run after a successful publish, in order, best-effort.
	Hooks []Hook
}

func (s Source) partitionValue(code string) string {
	if s.PartitionValue == nil {
		return code
	}
	return s.PartitionValue(code)
}
