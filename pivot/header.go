package pivot

import "strings"

// MaxHeaderScan is how many leading rows are searched for the header.
const MaxHeaderScan = 20

const (
	minKeywordScore = 2
	minDenseCells   = 8
	defaultHeader   = 1
)

var headerKeywords = []string{"test condition", "media type", "unit"}

// HeaderMethod records which rule picked the header row.
type HeaderMethod string

const (
	HeaderByKeywords HeaderMethod = "keywords"
	HeaderByDensity  HeaderMethod = "density"
	HeaderByDefault  HeaderMethod = "default"
)

// HeaderDetection is the located header row (0-indexed) and how it was found.
type HeaderDetection struct {
	Row    int          `json:"row"`
	Score  int          `json:"score"`
	Method HeaderMethod `json:"method"`
}

// DetectHeaderRow finds the header within the first MaxHeaderScan rows. The
// row mentioning the most of "test condition", "media type" and "unit" wins
// when it mentions at least two; otherwise the first row with eight filled
// cells is used, and failing that row 1.
func DetectHeaderRow(grid [][]string) HeaderDetection {
	limit := len(grid)
	if limit > MaxHeaderScan {
		limit = MaxHeaderScan
	}
	best, bestScore := -1, 0
	for i := 0; i < limit; i++ {
		if score := keywordScore(grid[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore >= minKeywordScore {
		return HeaderDetection{Row: best, Score: bestScore, Method: HeaderByKeywords}
	}
	for i := 0; i < limit; i++ {
		if n := denseCells(grid[i]); n >= minDenseCells {
			return HeaderDetection{Row: i, Score: n, Method: HeaderByDensity}
		}
	}
	return HeaderDetection{Row: defaultHeader, Method: HeaderByDefault}
}

func keywordScore(row []string) int {
	score := 0
	for _, kw := range headerKeywords {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), kw) {
				score++
				break
			}
		}
	}
	return score
}

func denseCells(row []string) int {
	n := 0
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		switch strings.ToLower(cell) {
		case "", "nan", "none":
			continue
		}
		n++
	}
	return n
}
