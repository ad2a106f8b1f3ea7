package services

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
)

// DiagnosticReason classifies why a reference was excluded from the graph
type DiagnosticReason string

const (
	// ReasonUnresolvedTarget means the target slug is not in the known set
	ReasonUnresolvedTarget DiagnosticReason = "unresolved_target"
	// ReasonSelfLink means a document linked to itself
	ReasonSelfLink DiagnosticReason = "self_link"
	// ReasonMalformedSyntax means the token parsed as a reference shape but
	// carried no usable target
	ReasonMalformedSyntax DiagnosticReason = "malformed_syntax"
)

// Diagnostic is one excluded reference, emitted for the external validator.
// Diagnostics never fail a build.
type Diagnostic struct {
	SourceSlug      valueobjects.Slug `json:"source_slug"`
	TargetReference string            `json:"target_reference"`
	Reason          DiagnosticReason  `json:"reason"`
	Context         string            `json:"context,omitempty"`
	ByteOffset      int               `json:"byte_offset"`
}

// GraphBuilder resolves extracted references against the document set and
// produces an immutable GraphSnapshot. Every step is a pure function of the
// input set: input order never influences the output.
type GraphBuilder struct {
	extractor *LinkExtractor
	logger    *zap.Logger
	now       func() time.Time
}

// NewGraphBuilder creates a graph builder
func NewGraphBuilder(extractor *LinkExtractor, logger *zap.Logger) *GraphBuilder {
	if extractor == nil {
		extractor = NewLinkExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphBuilder{
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Build constructs the link graph for a document set.
//
// The only fatal condition is two documents normalizing to the same slug:
// slug is the identity key and the ambiguity cannot be repaired. Everything
// else — malformed tokens, unresolved targets, self-links — degrades to a
// diagnostic.
func (b *GraphBuilder) Build(docs []entities.DocumentRecord) (*aggregates.GraphSnapshot, []Diagnostic, error) {
	known := make(map[valueobjects.Slug]struct{}, len(docs))
	slugs := make([]valueobjects.Slug, 0, len(docs))
	bodies := make(map[valueobjects.Slug]string, len(docs))

	for _, doc := range docs {
		slug := doc.NormalizedSlug()
		if slug.IsEmpty() {
			return nil, nil, pkgerrors.NewValidation(
				fmt.Sprintf("document %q normalizes to an empty slug", doc.Slug))
		}
		if _, exists := known[slug]; exists {
			return nil, nil, pkgerrors.NewConflict(
				fmt.Sprintf("duplicate slug %q: two documents share one identity", slug))
		}
		known[slug] = struct{}{}
		slugs = append(slugs, slug)
		bodies[slug] = doc.Body
	}

	// Deterministic iteration regardless of input order.
	sort.Slice(slugs, func(i, j int) bool { return slugs[i] < slugs[j] })

	diagnostics := make([]Diagnostic, 0)
	linkCounts := make(map[valueobjects.Slug]map[valueobjects.Slug]int)
	inbound := make(map[valueobjects.Slug]int)

	for _, source := range slugs {
		scanner := b.extractor.Scan(bodies[source])
		for {
			ref, ok := scanner.Next()
			if !ok {
				break
			}

			switch {
			case ref.IsMalformed():
				diagnostics = append(diagnostics, diagnosticFor(source, ref, ReasonMalformedSyntax))
			case ref.TargetSlug == source:
				diagnostics = append(diagnostics, diagnosticFor(source, ref, ReasonSelfLink))
			default:
				if _, resolved := known[ref.TargetSlug]; !resolved {
					diagnostics = append(diagnostics, diagnosticFor(source, ref, ReasonUnresolvedTarget))
					continue
				}
				if linkCounts[source] == nil {
					linkCounts[source] = make(map[valueobjects.Slug]int)
				}
				linkCounts[source][ref.TargetSlug]++
				// Every resolved reference counts toward the target's
				// inbound total, duplicates included.
				inbound[ref.TargetSlug]++
			}
		}
	}

	snapshot := b.assemble(slugs, linkCounts, inbound)

	b.logger.Info("link graph built",
		zap.Int("documents", len(slugs)),
		zap.Int("total_connections", snapshot.TotalConnections),
		zap.Int("bidirectional_pairs", snapshot.BidirectionalPairs),
		zap.Int("direct_links", snapshot.DirectLinks),
		zap.Int("diagnostics", len(diagnostics)),
	)

	return snapshot, diagnostics, nil
}

// assemble folds resolved link counts into the snapshot structure
func (b *GraphBuilder) assemble(
	slugs []valueobjects.Slug,
	linkCounts map[valueobjects.Slug]map[valueobjects.Slug]int,
	inbound map[valueobjects.Slug]int,
) *aggregates.GraphSnapshot {
	documents := make(map[valueobjects.Slug]aggregates.DocumentConnections, len(slugs))

	totalConnections := 0
	directLinks := 0
	bidirectionalEdges := 0

	for _, source := range slugs {
		targets := linkCounts[source]

		connections := make([]entities.ConnectionEdge, 0, len(targets))
		for target, count := range targets {
			bidirectional := linkCounts[target][source] > 0
			edgeType := entities.ConnectionDirect
			if bidirectional {
				edgeType = entities.ConnectionBidirectional
				bidirectionalEdges++
			} else {
				directLinks++
			}
			connections = append(connections, entities.ConnectionEdge{
				Source:        source,
				Target:        target,
				Type:          edgeType,
				Bidirectional: bidirectional,
				LinkCount:     count,
			})
			totalConnections++
		}
		sort.Slice(connections, func(i, j int) bool {
			return connections[i].Target < connections[j].Target
		})

		documents[source] = aggregates.DocumentConnections{
			Connections:   connections,
			InboundCount:  inbound[source],
			OutboundCount: len(targets),
		}
	}

	return &aggregates.GraphSnapshot{
		GeneratedAt:        b.now(),
		Documents:          documents,
		TotalConnections:   totalConnections,
		BidirectionalPairs: bidirectionalEdges / 2,
		DirectLinks:        directLinks,
	}
}

func diagnosticFor(source valueobjects.Slug, ref entities.LinkReference, reason DiagnosticReason) Diagnostic {
	return Diagnostic{
		SourceSlug:      source,
		TargetReference: ref.RawTarget,
		Reason:          reason,
		Context:         ref.Context,
		ByteOffset:      ref.ByteOffset,
	}
}
