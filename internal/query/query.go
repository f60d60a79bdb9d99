// Package query turns loosely-typed request parameters into a canonical
// search descriptor. It performs no I/O and never fails: malformed input is
// normalized to defaults.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxTags bounds the number of tag filters in one query.
const MaxTags = 5

// Scope selects the fields a text query is matched against.
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeTitle   Scope = "title"
	ScopeContent Scope = "content"
	ScopeTags    Scope = "tags"
)

// Sort selects the result ordering.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortLatest    Sort = "latest"
	SortHot       Sort = "hot"
)

func parseScope(s string) Scope {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeAll, ScopeTitle, ScopeContent, ScopeTags:
		return sc
	}
	return ScopeAll
}

func parseSort(s string) Sort {
	switch so := Sort(strings.ToLower(strings.TrimSpace(s))); so {
	case SortRelevance, SortLatest, SortHot:
		return so
	}
	return SortRelevance
}

// Params is the raw, untrusted input. Every field may be empty.
type Params struct {
	Q        string
	Scope    string
	Category string
	// Tags is a comma-joined list.
	Tags     string
	Sort     string
	Page     string
	PageSize string
}

// ParamsFromValues reads Params from a URL query. Repeated tags parameters are
// joined; for every other field the first value wins.
func ParamsFromValues(v url.Values) Params {
	return Params{
		Q:        v.Get("q"),
		Scope:    v.Get("scope"),
		Category: v.Get("category"),
		Tags:     strings.Join(v["tags"], ","),
		Sort:     v.Get("sort"),
		Page:     v.Get("page"),
		PageSize: v.Get("pageSize"),
	}
}

// Descriptor is the canonical, validated form of a search request.
type Descriptor struct {
	Q        string
	Scope    Scope
	Category string
	Tags     []string
	Sort     Sort
	Page     int
	// PageSize is the requested size before clamping; 0 means the default.
	PageSize int
}

// Plan normalizes p into a Descriptor.
func Plan(p Params) Descriptor {
	return Descriptor{
		Q:        strings.TrimSpace(p.Q),
		Scope:    parseScope(p.Scope),
		Category: strings.ToLower(strings.TrimSpace(p.Category)),
		Tags:     parseTags(p.Tags),
		Sort:     parseSort(p.Sort),
		Page:     parsePage(p.Page),
		PageSize: parsePageSize(p.PageSize),
	}
}

func parseTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePageSize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FiltersEqual reports whether d and o select the same result set, ignoring
// sort order and paging. Tags compare as sets and q case-insensitively.
func (d Descriptor) FiltersEqual(o Descriptor) bool {
	if !strings.EqualFold(d.Q, o.Q) || d.Scope != o.Scope || d.Category != o.Category {
		return false
	}
	if len(d.Tags) != len(o.Tags) {
		return false
	}
	set := make(map[string]struct{}, len(d.Tags))
	for _, t := range d.Tags {
		set[t] = struct{}{}
	}
	for _, t := range o.Tags {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// Equal reports whether d and o describe the same request.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.FiltersEqual(o) && d.Sort == o.Sort && d.Page == o.Page && d.PageSize == o.PageSize
}

// Advance returns next with its page reset to 1 when its filters differ from prev.
// A nil prev means there is no prior request. The server is stateless, so the
// page layer calls this with the descriptor of the page it is showing before
// it requests the next one.
func Advance(prev *Descriptor, next Descriptor) Descriptor {
	if prev != nil && !prev.FiltersEqual(next) {
		next.Page = 1
	}
	return next
}

// WithPage returns a copy of d pointing at page.
func (d Descriptor) WithPage(page int) Descriptor {
	d.Page = page
	d.Tags = append([]string(nil), d.Tags...)
	return d
}

// Values renders d back into query parameters, omitting defaults, so that
// Plan(ParamsFromValues(d.Values())) is equal to d.
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	if d.Q != "" {
		v.Set("q", d.Q)
	}
	if d.Scope != ScopeAll {
		v.Set("scope", string(d.Scope))
	}
	if d.Category != "" {
		v.Set("category", d.Category)
	}
	if len(d.Tags) > 0 {
		v.Set("tags", strings.Join(d.Tags, ","))
	}
	if d.Sort != SortRelevance {
		v.Set("sort", string(d.Sort))
	}
	if d.Page > 1 {
		v.Set("page", strconv.Itoa(d.Page))
	}
	if d.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(d.PageSize))
	}
	return v
}
