package scraper

// PageBatch is an inclusive page range walked by one worker.
type PageBatch struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len is the number of pages in the batch.
func (b PageBatch) Len() int { return b.End - b.Start + 1 }

// Batch splits [1, min(totalPages, pageCap)] into at most workers contiguous ranges whose
// sizes differ by at most one. The first remainder ranges get the extra page. Empty ranges
// are omitted, so fewer batches than workers come back when pages are scarce.
func Batch(totalPages, workers, pageCap int) []PageBatch {
	pages := min(totalPages, pageCap)
	if pages <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	per, rem := pages/workers, pages%workers
	out := make([]PageBatch, 0, min(workers, pages))
	start := 1
	for i := 0; i < workers; i++ {
		end := start + per
		if i < rem {
			end++
		}
		if start < end {
			out = append(out, PageBatch{Start: start, End: end - 1})
		}
		start = end
	}
	return out
}
