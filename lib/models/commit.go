package models

import "strings"

// Commit is the branch tip observed by a fetch or extracted from a push
// event. Transient; never persisted beyond the SHA.
type Commit struct {
	SHA        string
	Message    string // first line only
	AuthorName string
	URL        string
}

const shortSHALen = 7

func (c *Commit) ShortSHA() string {
	if len(c.SHA) <= shortSHALen {
		return c.SHA
	}
	return c.SHA[:shortSHALen]
}

// FirstLine trims a full commit message down to its subject line.
func FirstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}
