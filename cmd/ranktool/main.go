// Command ranktool scores a lexeme vector against a query offline, printing
// both the standard and cover-density scores.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rank"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/textproc"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsquery"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/tsvector"
)

func main() {
	vectorText := flag.String("vector", "", "lexeme vector in text form, e.g. 'cat:1A dog:3,5'")
	text := flag.String("text", "", "raw document text to vectorize instead of -vector")
	title := flag.String("title", "", "document title, weighted A when vectorizing -text")
	queryText := flag.String("query", "", "query in text form, e.g. 'cat & dog | !fish'")
	weightsFlag := flag.String("weights", "", "comma-separated weights D,C,B,A (default 0.1,0.2,0.4,1.0)")
	method := flag.Int("method", 0, "normalization method bitmask")
	flag.Parse()

	if *queryText == "" || (*vectorText == "" && *text == "") {
		fmt.Fprintln(os.Stderr, "usage: ranktool -query <query> (-vector <vector> | -text <text> [-title <title>]) [-weights w,w,w,w] [-method n]")
		os.Exit(2)
	}

	var vec *tsvector.TSVector
	var err error
	if *vectorText != "" {
		vec, err = tsvector.Parse(*vectorText)
		if err != nil {
			fatal("parsing vector: %v", err)
		}
	} else {
		vec = textproc.BuildVector(*title, *text)
	}

	q, err := tsquery.Parse(*queryText)
	if err != nil {
		fatal("parsing query: %v", err)
	}

	weights, err := parseWeights(*weightsFlag)
	if err != nil {
		fatal("parsing weights: %v", err)
	}

	standard, err := rank.RankWeightedMethod(weights, vec, q, *method)
	if err != nil {
		fatal("rank: %v", err)
	}
	coverDensity, err := rank.RankCDWeightedMethod(weights, vec, q, *method)
	if err != nil {
		fatal("rank_cd: %v", err)
	}

	fmt.Printf("vector:        %s\n", vec.String())
	fmt.Printf("query:         %s\n", q.String())
	fmt.Printf("rank:          %.6g\n", standard)
	fmt.Printf("rank_cd:       %.6g\n", coverDensity)
}

func parseWeights(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	weights := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		weights = append(weights, float32(f))
	}
	return weights, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
