// Package sitedir implements the static data placement policy: which
// sites hold which variables, and what a variable's default value is.
//
// Placement never changes once a Directory is built: odd-indexed
// variables live on exactly one site (1 + i mod S), even-indexed
// variables are replicated to every site.
package sitedir

import (
	"sort"

	"github.com/pingcap/errors"
)

// Directory is the immutable variable-to-site placement for one run.
type Directory struct {
	siteCount int
	varCount  int
	sitesFor  map[int][]int // variable -> sorted site ids hosting it
	varsAt    map[int][]int // site -> sorted variable ids hosted there
	overrides map[int]int   // variable -> default value override, if any
}

// New builds the placement for siteCount sites and varCount variables
// using the reference layout: x_i is replicated to every site when i is
// even, and pinned to site 1+(i mod siteCount) when i is odd. defaults
// overrides the usual 10*i initial value for the variables it names; it
// may be nil.
func New(siteCount, varCount int, defaults map[int]int) (*Directory, error) {
	if siteCount <= 0 {
		return nil, errors.Errorf("site count must be positive, got %d", siteCount)
	}
	if varCount <= 0 {
		return nil, errors.Errorf("variable count must be positive, got %d", varCount)
	}

	d := &Directory{
		siteCount: siteCount,
		varCount:  varCount,
		sitesFor:  make(map[int][]int, varCount),
		varsAt:    make(map[int][]int, siteCount),
		overrides: defaults,
	}

	for v := 1; v <= varCount; v++ {
		var sites []int
		if v%2 == 0 {
			sites = make([]int, siteCount)
			for i := 0; i < siteCount; i++ {
				sites[i] = i + 1
			}
		} else {
			sites = []int{1 + v%siteCount}
		}
		d.sitesFor[v] = sites
		for _, s := range sites {
			d.varsAt[s] = append(d.varsAt[s], v)
		}
	}
	for s := range d.varsAt {
		sort.Ints(d.varsAt[s])
	}

	return d, nil
}

// SitesFor returns the ids, in ascending order, of the sites hosting
// variable. The returned slice must not be mutated by the caller.
func (d *Directory) SitesFor(variable int) []int {
	return d.sitesFor[variable]
}

// VariablesAt returns the ids, in ascending order, of the variables
// hosted at site. The returned slice must not be mutated by the caller.
func (d *Directory) VariablesAt(site int) []int {
	return d.varsAt[site]
}

// Hosts reports whether site holds a copy of variable.
func (d *Directory) Hosts(site, variable int) bool {
	for _, s := range d.sitesFor[variable] {
		if s == site {
			return true
		}
	}
	return false
}

// IsReplicated reports whether variable lives on every site.
func (d *Directory) IsReplicated(variable int) bool {
	return variable%2 == 0
}

// DefaultValue is the initial value installed for variable at every site
// that hosts it, before any write commits: 10*variable, unless the
// Directory was built with an override for it.
func (d *Directory) DefaultValue(variable int) int {
	if v, ok := d.overrides[variable]; ok {
		return v
	}
	return 10 * variable
}

// ValidVariable reports whether variable is within this database's id space.
func (d *Directory) ValidVariable(variable int) bool {
	return variable >= 1 && variable <= d.varCount
}

// ValidSite reports whether site is within this database's id space.
func (d *Directory) ValidSite(site int) bool {
	return site >= 1 && site <= d.siteCount
}

// Variables returns every variable id, in ascending order.
func (d *Directory) Variables() []int {
	vars := make([]int, d.varCount)
	for i := range vars {
		vars[i] = i + 1
	}
	return vars
}

// Sites returns every site id, in ascending order.
func (d *Directory) Sites() []int {
	sites := make([]int, d.siteCount)
	for i := range sites {
		sites[i] = i + 1
	}
	return sites
}

// SiteCount is the number of sites in the database.
func (d *Directory) SiteCount() int { return d.siteCount }

// VarCount is the number of variables in the database.
func (d *Directory) VarCount() int { return d.varCount }
