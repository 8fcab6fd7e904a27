// Package pipeline runs persona-driven document analysis: it fans
// documents out to a worker pool, turns each into an outline and
// sections, scores every section against the persona query, and merges
// the results into one ranked answer. It also hosts the asynchronous
// job machinery used by the HTTP server.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/doc"
	"github.com/dgallion1/docrank/internal/outline"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/section"
	"github.com/dgallion1/docrank/internal/similarity"
)

// Runner executes analysis requests.
type Runner struct {
	workers    int
	timeout    time.Duration
	outlineCfg outline.Config
	sectionCfg section.Config
	rankCfg    rank.Config
	sim        *similarity.Selector
	log        zerolog.Logger
}

func NewRunner(cfg config.Config, sim *similarity.Selector, log zerolog.Logger) *Runner {
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		workers: workers,
		timeout: cfg.Pipeline.Timeout.Std(),
		outlineCfg: outline.Config{
			ConfidenceThreshold: cfg.Outline.ConfidenceThreshold,
			MaxHeadingChars:     cfg.Outline.MaxHeadingChars,
			BoilerplateFraction: cfg.Outline.BoilerplateFraction,
			TitleLengthCap:      cfg.Outline.TitleLengthCap,
			TitleFallbackBlocks: cfg.Outline.TitleFallbackBlocks,
		},
		sectionCfg: section.Config{
			CharCap:      cfg.Section.CharCap,
			RefinedChars: cfg.Section.RefinedTextCap,
		},
		rankCfg: rank.Config{
			MaxSections:    cfg.Rank.MaxSections,
			MaxSubsections: cfg.Rank.MaxSubsections,
			Salience:       cfg.Rank.SalienceThreshold,
			TopKeywords:    cfg.Rank.KeywordLimit,
		},
		sim: sim,
		log: log,
	}
}

type docOutcome struct {
	idx      int
	sections []doc.Section
	pages    int
	err      error
}

// Run analyzes every document in the request and ranks the collected
// sections against the persona query. Documents that fail to parse or
// miss the run deadline are skipped and counted; the error return is
// reserved for runs that produce nothing at all.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := r.log.With().Str("run_id", runID).Logger()
	started := time.Now()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log.Info().Int("documents", len(req.Documents)).
		Str("role", req.Persona.Role).
		Msg("analysis run started")

	results := make(chan docOutcome, len(req.Documents))
	sem := make(chan struct{}, r.workers)
	for i, ref := range req.Documents {
		go func(i int, ref DocumentRef) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- docOutcome{idx: i, err: ctx.Err()}
				return
			}
			out := r.processDocument(ctx, ref)
			out.idx = i
			results <- out
		}(i, ref)
	}

	outcomes := make([]docOutcome, len(req.Documents))
	skipped := 0
	for range req.Documents {
		out := <-results
		outcomes[out.idx] = out
		if out.err != nil {
			skipped++
			evt := log.Warn().Err(out.err).Str("document", req.Documents[out.idx].Name)
			if errors.Is(out.err, context.DeadlineExceeded) {
				evt.Msg("document dropped, run deadline passed")
			} else {
				evt.Msg("document skipped")
			}
		}
	}

	if skipped == len(req.Documents) {
		return nil, fmt.Errorf("no documents could be analyzed (%d skipped)", skipped)
	}

	// Collect sections in input-document order regardless of which
	// worker finished first.
	var items []rank.Item
	var texts []string
	for i := range outcomes {
		if outcomes[i].err != nil {
			continue
		}
		for j, s := range outcomes[i].sections {
			items = append(items, rank.Item{
				Section:    s,
				DocOrder:   i,
				Extraction: j,
				PageCount:  outcomes[i].pages,
			})
			texts = append(texts, sectionText(s))
		}
	}

	q := rank.BuildQuery(req.Persona, r.rankCfg.TopKeywords)
	info := r.sim.Info()
	simFailed := false
	if len(items) > 0 {
		scores, simInfo, err := r.sim.Score(ctx, texts, q.Text())
		info = simInfo
		if err != nil {
			// Deadline or cancellation mid-scoring: rank on the overlap
			// signals alone rather than losing the whole run.
			log.Warn().Err(err).Msg("similarity scoring incomplete, ranking without semantic signal")
			simFailed = true
		} else {
			for k := range items {
				items[k].SemanticSim = scores[k]
			}
		}
	}

	ranked := rank.Rank(items, q, r.rankCfg)

	res := r.assemble(req, ranked, info)
	res.Metadata.ProcessingTimeSeconds = round2(time.Since(started).Seconds())
	res.Metadata.PartialResults = skipped > 0 || simFailed
	res.Metadata.DocumentsSkipped = skipped

	log.Info().
		Int("sections_ranked", len(ranked)).
		Int("documents_skipped", skipped).
		Msg("analysis run finished")
	return res, nil
}

func (r *Runner) processDocument(ctx context.Context, ref DocumentRef) docOutcome {
	if err := ctx.Err(); err != nil {
		return docOutcome{err: err}
	}
	src, err := parser.ForFile(ref.Path)
	if err != nil {
		return docOutcome{err: err}
	}
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return docOutcome{err: fmt.Errorf("read document: %w", err)}
	}
	blocks, err := src.Extract(bytes.NewReader(data), ref.Name)
	if err != nil {
		return docOutcome{err: fmt.Errorf("extract blocks: %w", err)}
	}
	a := outline.NewExtractor(r.outlineCfg).Analyze(ref.Name, blocks)
	return docOutcome{
		sections: section.Extract(a, blocks, r.sectionCfg),
		pages:    a.Stats.PageCount,
	}
}

// AnalyzeOutline runs heading extraction alone on a single in-memory
// document, as used by the upload endpoint and the outline CLI mode.
func (r *Runner) AnalyzeOutline(filename string, data []byte) (doc.Outline, error) {
	src, err := parser.ForFile(filename)
	if err != nil {
		return doc.Outline{}, err
	}
	name := filepath.Base(filename)
	blocks, err := src.Extract(bytes.NewReader(data), name)
	if err != nil {
		return doc.Outline{}, fmt.Errorf("extract blocks: %w", err)
	}
	return outline.NewExtractor(r.outlineCfg).Analyze(name, blocks).Result(), nil
}

func (r *Runner) assemble(req Request, ranked []rank.RankedSection, info similarity.Info) *Result {
	names := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		names[i] = d.Name
	}

	res := &Result{
		Metadata: Metadata{
			InputDocuments:      names,
			Persona:             req.Persona.Role,
			JobToBeDone:         req.Persona.Job,
			ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
			SimilarityProvider:  info,
		},
		Extracted:   make([]ExtractedSection, 0, len(ranked)),
		Subsections: make([]SubsectionAnalysis, 0, r.rankCfg.MaxSubsections),
	}

	for _, rs := range ranked {
		exp := rs.Explanation
		if exp == nil {
			exp = []string{}
		}
		res.Extracted = append(res.Extracted, ExtractedSection{
			Document:       names[rs.DocOrder],
			PageNumber:     rs.Section.Page,
			SectionTitle:   rs.Section.Title,
			ImportanceRank: rs.Rank,
			RelevanceScore: round4(rs.Score),
			Explanation:    exp,
		})
	}

	limit := r.rankCfg.MaxSubsections
	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	for _, rs := range ranked[:limit] {
		res.Subsections = append(res.Subsections, SubsectionAnalysis{
			Document:       names[rs.DocOrder],
			PageNumber:     rs.Section.Page,
			RefinedText:    section.Refined(rs.Section, r.sectionCfg.RefinedChars),
			RelevanceScore: round4(rs.Score),
		})
	}
	return res
}

// sectionText is what the similarity provider sees for one section. The
// title appears twice so heading terms outweigh body terms.
func sectionText(s doc.Section) string {
	return strings.TrimSpace(s.Title + " " + s.Title + " " + s.BodyText)
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
