package coordinator

import (
	"fmt"
	"strings"

	"github.com/blr246/adbs-repcrec/internal/site"
)

// DumpAll renders the committed value of every variable at every site
// that hosts it, one line per (site, variable) pair, sites in ascending
// order (spec.md section 6's plain dump() form).
func (c *Coordinator) DumpAll() []string {
	var lines []string
	for _, sid := range c.dir.Sites() {
		s := c.sites[sid]
		for _, v := range s.HostedVariables() {
			lines = append(lines, fmt.Sprintf("site %d: x%d = %d", sid, v, s.CommittedSnapshot()[v]))
		}
	}
	return lines
}

// DumpVariable renders the committed value of variable at every site
// hosting it.
func (c *Coordinator) DumpVariable(variable int) []string {
	var lines []string
	for _, sid := range c.dir.SitesFor(variable) {
		s := c.sites[sid]
		lines = append(lines, fmt.Sprintf("x%d at site %d = %d", variable, sid, s.CommittedSnapshot()[variable]))
	}
	return lines
}

// DumpSite renders the committed value of every variable hosted at
// siteID.
func (c *Coordinator) DumpSite(siteID int) []string {
	s, ok := c.sites[siteID]
	if !ok {
		return nil
	}
	var lines []string
	snap := s.CommittedSnapshot()
	for _, v := range s.HostedVariables() {
		lines = append(lines, fmt.Sprintf("site %d: x%d = %d", siteID, v, snap[v]))
	}
	return lines
}

// DumpTable renders the matrix-style view grounded in
// transaction_manager.py:to_string: one row per site, one column per
// variable the site hosts, with a '*' marking a copy unavailable for
// reading (down or stale).
func (c *Coordinator) DumpTable() string {
	var b strings.Builder
	vars := c.dir.Variables()

	for _, sid := range c.dir.Sites() {
		s := c.sites[sid]
		fmt.Fprintf(&b, "site %d:", sid)
		hosted := make(map[int]bool)
		for _, v := range s.HostedVariables() {
			hosted[v] = true
		}
		for _, v := range vars {
			if !hosted[v] {
				continue
			}
			snap := s.CommittedSnapshot()
			marker := ""
			if s.Status() == site.Down || (c.dir.IsReplicated(v) && s.IsStale(v)) {
				marker = "*"
			}
			fmt.Fprintf(&b, " x%d=%d%s", v, snap[v], marker)
		}
		b.WriteString("\n")
	}
	b.WriteString("legend: * = unavailable for reading\n")
	return b.String()
}
