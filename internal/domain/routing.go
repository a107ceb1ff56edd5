package domain

// RouteLabel is the router's choice of retrieval source mix.
type RouteLabel string

const (
	// RouteCourseOnly answers from course material only.
	RouteCourseOnly RouteLabel = "course_only"
	// RouteWebPrimary leans on web snippets as primary evidence.
	RouteWebPrimary RouteLabel = "web_primary"
	// RouteCourseThenWeb blends course material with web snippets.
	RouteCourseThenWeb RouteLabel = "course_then_web"
)

// Valid reports whether l is one of the known route labels.
func (l RouteLabel) Valid() bool {
	switch l {
	case RouteCourseOnly, RouteWebPrimary, RouteCourseThenWeb:
		return true
	}
	return false
}

// RoutingDecision bounds downstream retrieval cost and source mix for one
// question. Invariant: KWeb > 0 implies WebQueries is non-empty; the assembler
// substitutes the original question if a decision violates this.
type RoutingDecision struct {
	Decision   RouteLabel `json:"decision"`
	Reasons    string     `json:"reasons"`
	KCourse    int        `json:"k_course"`
	KWeb       int        `json:"k_web"`
	WebQueries []string   `json:"web_queries"`
}

// FallbackDecision is the fixed safe decision used when the routing model's
// response cannot be parsed or the router fails outright.
func FallbackDecision(query string) RoutingDecision {
	return RoutingDecision{
		Decision:   RouteCourseThenWeb,
		Reasons:    "fallback",
		KCourse:    4,
		KWeb:       2,
		WebQueries: []string{query},
	}
}
