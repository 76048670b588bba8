// Package extract resolves the title and publication date of an article page.
package extract

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Result holds whatever a strategy could find. Zero fields mean "not found".
type Result struct {
	Title string
	Date  time.Time
}

func (r Result) complete() bool {
	return r.Title != "" && !r.Date.IsZero()
}

// Strategy looks at a parsed page and returns what it recognizes.
type Strategy func(doc *goquery.Document, pageURL string, loc *time.Location) Result

// Chain runs strategies in order. Title and date are resolved independently:
// each one is taken from the first strategy that yields it.
type Chain struct {
	strategies []Strategy
	loc        *time.Location
}

func NewChain(loc *time.Location, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		loc:        loc,
	}
}

// Default builds the usual chain: JSON-LD, meta/time tags, URL path, title
// tags with titleSuffix stripped and readability as the last resort.
func Default(loc *time.Location, titleSuffix *regexp.Regexp) *Chain {
	return NewChain(
		loc,
		JSONLD,
		MetaTags,
		URLPath,
		TitleTags(titleSuffix),
		Readability,
	)
}

func (c *Chain) Extract(doc *goquery.Document, pageURL string) Result {
	var res Result

	for _, strategy := range c.strategies {
		found := strategy(doc, pageURL, c.loc)

		if res.Title == "" {
			res.Title = found.Title
		}
		if res.Date.IsZero() {
			res.Date = found.Date
		}

		if res.complete() {
			break
		}
	}

	return res
}

// ExtractReader parses an HTML body and runs the chain over it.
func (c *Chain) ExtractReader(r io.Reader, pageURL string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return c.Extract(doc, pageURL), nil
}
