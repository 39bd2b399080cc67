package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

type CompareInput struct {
	SetA         model.LabeledCellset `json:"set_a"`
	SetB         model.LabeledCellset `json:"set_b"`
	IncludeCells bool                 `json:"include_cells,omitempty"`
}

type CompareOutput struct {
	SetALabel        string   `json:"set_a_label"`
	SetBLabel        string   `json:"set_b_label"`
	SetACount        int      `json:"set_a_count"`
	SetBCount        int      `json:"set_b_count"`
	OverlapCount     int      `json:"overlap_count"`
	OnlyACount       int      `json:"only_a_count"`
	OnlyBCount       int      `json:"only_b_count"`
	OverlapRatioA    float64  `json:"overlap_ratio_a"`
	OverlapRatioB    float64  `json:"overlap_ratio_b"`
	JaccardIndex     float64  `json:"jaccard_index"`
	OverlapCellsetID string   `json:"overlap_cellset_id,omitempty"`
	OnlyACellsetID   string   `json:"only_a_cellset_id,omitempty"`
	OnlyBCellsetID   string   `json:"only_b_cellset_id,omitempty"`
	OverlapCells     []string `json:"overlap_cells"`
	OnlyACells       []string `json:"only_a_cells"`
	OnlyBCells       []string `json:"only_b_cells"`
	Summary          string   `json:"summary"`
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Compare splits two cellsets into overlap and exclusive parts. Non-empty
// parts are stored and returned as handles.
func (e *Engine) Compare(ctx context.Context, in CompareInput) (out CompareOutput, err error) {
	defer e.observe(ctx, "compare", time.Now(), &err)

	a, err := e.cellsets.Resolve(in.SetA.Cellset)
	if err != nil {
		return CompareOutput{}, err
	}
	b, err := e.cellsets.Resolve(in.SetB.Cellset)
	if err != nil {
		return CompareOutput{}, err
	}

	overlap := a.Intersect(b)
	onlyA := a.Difference(b)
	onlyB := b.Difference(a)
	union := a.Union(b)

	out = CompareOutput{
		SetALabel:     in.SetA.Label,
		SetBLabel:     in.SetB.Label,
		SetACount:     a.Len(),
		SetBCount:     b.Len(),
		OverlapCount:  overlap.Len(),
		OnlyACount:    onlyA.Len(),
		OnlyBCount:    onlyB.Len(),
		OverlapRatioA: ratio(overlap.Len(), a.Len()),
		OverlapRatioB: ratio(overlap.Len(), b.Len()),
		JaccardIndex:  ratio(overlap.Len(), union.Len()),

		OverlapCellsetID: e.store(ctx, "compare", overlap),
		OnlyACellsetID:   e.store(ctx, "compare", onlyA),
		OnlyBCellsetID:   e.store(ctx, "compare", onlyB),
	}
	if in.IncludeCells {
		out.OverlapCells = overlap.Members()
		out.OnlyACells = onlyA.Members()
		out.OnlyBCells = onlyB.Members()
	}
	out.Summary = fmt.Sprintf("%d of %d %s cells overlap with %s. %d of %d %s cells are exclusive.",
		out.OverlapCount, out.SetACount, in.SetA.Label, in.SetB.Label,
		out.OnlyBCount, out.SetBCount, in.SetB.Label)
	return out, nil
}

// Metric scores a pair of sets in CompareMany.
type Metric string

const (
	MetricJaccard      Metric = "jaccard"
	MetricOverlapRatio Metric = "overlap_ratio"
)

const DefaultTopK = 5

// CompareManyInput defaults Metric to jaccard and an omitted TopK to DefaultTopK.
type CompareManyInput struct {
	Sets         []model.LabeledCellset `json:"sets" validate:"min=2,dive"`
	Metric       Metric                 `json:"matrix_metric,omitempty" validate:"omitempty,oneof=jaccard overlap_ratio"`
	IncludeCells bool                   `json:"include_cells,omitempty"`
	ReturnMode   model.ReturnMode       `json:"return_mode,omitempty" validate:"omitempty,oneof=summary stats"`
	TopK         *int                   `json:"top_k,omitempty" validate:"omitempty,gte=1"`
}

type SetStats struct {
	Label     string `json:"label"`
	CellCount int    `json:"cell_count"`
}

type OverlapPair struct {
	A            string  `json:"a"`
	B            string  `json:"b"`
	OverlapCount int     `json:"overlap_count"`
	Score        float64 `json:"score"`
}

type OverlapCellset struct {
	A         string `json:"a"`
	B         string `json:"b"`
	CellsetID string `json:"cellset_id"`
}

type CompareManyOutput struct {
	SetStats        []SetStats       `json:"set_stats"`
	OverlapCounts   [][]int          `json:"overlap_counts"`
	OverlapMatrix   [][]float64      `json:"overlap_matrix"`
	TopOverlaps     []OverlapPair    `json:"top_overlaps"`
	OverlapCellsets []OverlapCellset `json:"overlap_cellsets"`
	Summary         string           `json:"summary"`
}

// CompareMany scores every pair of labeled sets and ranks the overlapping
// pairs by (score, overlap count), highest first. Jaccard yields one entry
// per pair; overlap_ratio yields one per direction. Full matrices are only
// built for the stats return mode.
func (e *Engine) CompareMany(ctx context.Context, in CompareManyInput) (out CompareManyOutput, err error) {
	defer e.observe(ctx, "compare_many", time.Now(), &err)

	metric := cmp.Or(in.Metric, MetricJaccard)
	if metric != MetricJaccard && metric != MetricOverlapRatio {
		return CompareManyOutput{}, apperr.Invalid("unsupported matrix_metric: %s", metric)
	}
	topK := DefaultTopK
	if in.TopK != nil {
		topK = *in.TopK
	}
	if topK < 1 {
		return CompareManyOutput{}, apperr.Invalid("top_k must be >= 1, got %d", topK)
	}
	if len(in.Sets) < 2 {
		return CompareManyOutput{}, apperr.Invalid("at least two sets are required")
	}

	n := len(in.Sets)
	labels := make([]string, n)
	sets := make([]cellset.Cellset, n)
	seen := make(map[string]struct{}, n)
	out.SetStats = make([]SetStats, n)
	for i, ls := range in.Sets {
		s, err := e.cellsets.Resolve(ls.Cellset)
		if err != nil {
			return CompareManyOutput{}, err
		}
		labels[i], sets[i] = ls.Label, s
		out.SetStats[i] = SetStats{Label: ls.Label, CellCount: s.Len()}
	}
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			return CompareManyOutput{}, apperr.Invalid("set labels must be unique: %q repeats", l)
		}
		seen[l] = struct{}{}
	}

	dict := cellset.NewDictionary()
	bitmaps := make([]*roaring.Bitmap, n)
	for i, s := range sets {
		bitmaps[i] = dict.Encode(s)
	}
	e.logger.DebugContext(ctx, "compare_many encoded",
		"sets", n,
		"distinct_cells", dict.Len(),
		"metric", string(metric),
	)

	withMatrix := in.ReturnMode == model.ReturnStats
	if withMatrix {
		out.OverlapCounts = make([][]int, n)
		out.OverlapMatrix = make([][]float64, n)
		for i := range n {
			out.OverlapCounts[i] = make([]int, n)
			out.OverlapMatrix[i] = make([]float64, n)
			out.OverlapCounts[i][i] = sets[i].Len()
			if !sets[i].IsEmpty() {
				out.OverlapMatrix[i][i] = 1
			}
		}
	}

	var pairs []OverlapPair
	for i := range n {
		for j := i + 1; j < n; j++ {
			ov := int(bitmaps[i].AndCardinality(bitmaps[j]))
			ni, nj := sets[i].Len(), sets[j].Len()

			var sij, sji float64
			if metric == MetricJaccard {
				sij = ratio(ov, ni+nj-ov)
				sji = sij
			} else {
				sij, sji = ratio(ov, ni), ratio(ov, nj)
			}
			if withMatrix {
				out.OverlapCounts[i][j], out.OverlapCounts[j][i] = ov, ov
				out.OverlapMatrix[i][j], out.OverlapMatrix[j][i] = sij, sji
			}
			if ov == 0 {
				continue
			}
			pairs = append(pairs, OverlapPair{A: labels[i], B: labels[j], OverlapCount: ov, Score: sij})
			if metric == MetricOverlapRatio {
				pairs = append(pairs, OverlapPair{A: labels[j], B: labels[i], OverlapCount: ov, Score: sji})
			}
		}
	}

	slices.SortStableFunc(pairs, func(x, y OverlapPair) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(y.OverlapCount, x.OverlapCount)
	})
	out.TopOverlaps = pairs[:min(topK, len(pairs))]
	if out.TopOverlaps == nil {
		out.TopOverlaps = []OverlapPair{}
	}

	if in.IncludeCells {
		index := make(map[string]int, n)
		for i, l := range labels {
			index[l] = i
		}
		out.OverlapCellsets = make([]OverlapCellset, 0, len(out.TopOverlaps))
		for _, p := range out.TopOverlaps {
			ov := sets[index[p.A]].Intersect(sets[index[p.B]])
			out.OverlapCellsets = append(out.OverlapCellsets, OverlapCellset{
				A:         p.A,
				B:         p.B,
				CellsetID: e.cellsets.Save(ov),
			})
		}
	}

	if len(out.TopOverlaps) == 0 {
		out.Summary = "No overlaps between sets."
	} else {
		top := out.TopOverlaps[0]
		out.Summary = fmt.Sprintf("Strongest overlap: %s vs %s (%s %.2f).", top.A, top.B, metric, top.Score)
	}
	return out, nil
}
