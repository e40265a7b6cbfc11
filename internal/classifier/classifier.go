// Package classifier decides whether a posting is in the target region and
// which profession it belongs to. Nothing here does I/O.
package classifier

import "github.com/amishk599/jobradar/internal/model"

// Verdict explains a classification, for logs and the inspect console.
type Verdict struct {
	InScope    bool
	Profession string
}

// Accepted reports whether the job would be published.
func (v Verdict) Accepted() bool { return v.InScope && v.Profession != "" }

// Reason is a short human label for the verdict.
func (v Verdict) Reason() string {
	switch {
	case !v.InScope:
		return "out of region"
	case v.Profession == "":
		return "no profession"
	default:
		return v.Profession
	}
}

// Classifier runs the location gate and then the profession matcher.
type Classifier struct {
	gate    *LocationGate
	matcher Matcher
}

func New(gate *LocationGate, matcher Matcher) *Classifier {
	return &Classifier{gate: gate, matcher: matcher}
}

// InScope reports whether location lies in the target region.
func (c *Classifier) InScope(location string) bool {
	return c.gate.InScope(location)
}

// Evaluate classifies job without modifying it.
func (c *Classifier) Evaluate(job model.Job) Verdict {
	if !c.gate.InScope(job.Location) {
		return Verdict{}
	}
	name, _ := c.matcher.Match(job.Title)
	return Verdict{InScope: true, Profession: name}
}

// Classify returns job with its profession set. ok is false when the job is
// out of region or matches no profession; such jobs are dropped.
func (c *Classifier) Classify(job model.Job) (model.Job, bool) {
	v := c.Evaluate(job)
	if !v.Accepted() {
		return job, false
	}
	job.Profession = v.Profession
	return job, true
}
