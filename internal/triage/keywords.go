// Package triage turns free-text human feedback into structured, routed
// feedback items. The classifiers are data-driven keyword and regex tables
// so the scoring logic stays auditable and independently testable.
package triage

import (
	"regexp"

	"github.com/jmallek/conclave/pkg/models"
)

// categoryPattern binds a category to the regex set that detects it.
type categoryPattern struct {
	Category models.FeedbackCategory
	Patterns []*regexp.Regexp
}

// categoryPatterns is the single source of truth for category detection.
// Order matters: the first category whose pattern set matches wins, so more
// specific categories sit ahead of broader ones. General is the fallback and
// has no patterns.
var categoryPatterns = []categoryPattern{
	{
		Category: models.CategoryBugReport,
		Patterns: compile(
			`\bbug\b`,
			`\bcrash(es|ed|ing)?\b`,
			`\bbroken?\b`,
			`\b(doesn'?t|does not|won'?t|will not) work\b`,
			`\berror\b`,
			`\bfail(s|ed|ing|ure)?\b`,
			`\bexception\b`,
			`\bfix\b`,
			`\bincorrect(ly)?\b`,
			`\bwrong\b`,
		),
	},
	{
		Category: models.CategoryFeatureRequest,
		Patterns: compile(
			`\badd\b`,
			`\bnew feature\b`,
			`\bfeature request\b`,
			`\bwould be (nice|great|good)\b`,
			`\bwish (it|there|we)\b`,
			`\bsupport for\b`,
			`\bcould (you|we) add\b`,
			`\bmissing\b`,
		),
	},
	{
		Category: models.CategoryImprovement,
		Patterns: compile(
			`\bimprove(ment)?\b`,
			`\benhance(ment)?\b`,
			`\bbetter\b`,
			`\bfaster\b`,
			`\boptimi[sz]e\b`,
			`\brefactor\b`,
			`\bstreamline\b`,
		),
	},
	{
		Category: models.CategoryUsability,
		Patterns: compile(
			`\bconfusing\b`,
			`\bhard to (use|find|understand)\b`,
			`\bunintuitive\b`,
			`\buser.?friendly\b`,
			`\bux\b`,
			`\busability\b`,
			`\btoo many (clicks|steps)\b`,
			`\blayout\b`,
		),
	},
	{
		Category: models.CategoryClarification,
		Patterns: compile(
			`\bhow (do|does|can|should)\b`,
			`\bwhat (is|does|happens)\b`,
			`\bwhy (is|does|did)\b`,
			`\bclarif(y|ication)\b`,
			`\bquestion\b`,
			`\bnot sure\b`,
			`\bconfused about\b`,
		),
	},
	{
		Category: models.CategoryTechnical,
		Patterns: compile(
			`\bapi\b`,
			`\bendpoint\b`,
			`\bdatabase\b`,
			`\bschema\b`,
			`\bperformance\b`,
			`\blatency\b`,
			`\bmemory\b`,
			`\bdeploy(ment)?\b`,
			`\barchitecture\b`,
			`\bintegration\b`,
		),
	},
	{
		Category: models.CategoryRequirementChange,
		Patterns: compile(
			`\bchange (the )?(scope|requirement)\b`,
			`\brequirements? (have )?changed\b`,
			`\binstead of\b`,
			`\bno longer need\b`,
			`\bactually (want|need)\b`,
			`\bscope\b`,
			`\bpivot\b`,
		),
	},
}

// positiveWords and negativeWords drive sentiment analysis by hit counting.
var positiveWords = []string{
	"great", "good", "excellent", "love", "like", "nice", "awesome",
	"perfect", "helpful", "thanks", "thank you", "well done", "impressive",
	"fantastic", "works well", "happy",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "broken", "frustrating", "annoying",
	"useless", "disappointed", "confusing", "slow", "crash", "wrong",
	"unacceptable", "poor", "worst",
}

// categoryBaseWeight is the starting priority score per category. Bug
// reports and requirement changes score highest because they block or
// re-aim active work.
var categoryBaseWeight = map[models.FeedbackCategory]int{
	models.CategoryBugReport:         3,
	models.CategoryRequirementChange: 3,
	models.CategoryFeatureRequest:    2,
	models.CategoryImprovement:       2,
	models.CategoryUsability:         2,
	models.CategoryTechnical:         2,
	models.CategoryClarification:     1,
	models.CategoryGeneral:           1,
}

// hardUrgencyWords add +2 to the priority score.
var hardUrgencyWords = []string{
	"urgent", "asap", "blocker", "blocking", "emergency", "immediately",
	"production down", "showstopper",
}

// softUrgencyWords add +1 to the priority score.
var softUrgencyWords = []string{
	"soon", "important", "high priority", "critical path", "quickly",
}

// deEscalationWords subtract 1 from the priority score.
var deEscalationWords = []string{
	"minor", "trivial", "low priority", "nice to have", "whenever",
	"no rush", "cosmetic", "someday",
}

// vipRoles are user-context roles that add +1 to the priority score.
var vipRoles = map[string]bool{
	"vip":           true,
	"stakeholder":   true,
	"product_owner": true,
	"executive":     true,
	"sponsor":       true,
}

// actionPatterns extract imperative/request clauses. The first capture group
// is the actionable text.
var actionPatterns = compile(
	`(?i)please\s+([^.!?\n]+)`,
	`(?i)can you\s+([^.!?\n]+)`,
	`(?i)could you\s+([^.!?\n]+)`,
	`(?i)(?:you|we|it)\s+should\s+([^.!?\n]+)`,
	`(?i)(?:we|i)\s+need(?:s)?(?:\s+you)?\s+to\s+([^.!?\n]+)`,
	`(?i)make sure\s+(?:that\s+)?([^.!?\n]+)`,
	`(?i)don'?t forget to\s+([^.!?\n]+)`,
)

// actionVerbs back the sentence-level fallback when no pattern matches.
var actionVerbs = []string{
	"fix", "add", "change", "update", "remove", "implement", "improve",
	"make", "create", "rename", "document", "test", "investigate",
}

// defaultRouting maps each category to its default destination role.
var defaultRouting = map[models.FeedbackCategory]string{
	models.CategoryBugReport:         models.RoleQA,
	models.CategoryFeatureRequest:    models.RoleProjectManager,
	models.CategoryRequirementChange: models.RoleProjectManager,
	models.CategoryImprovement:       models.RoleDeveloper,
	models.CategoryTechnical:         models.RoleDeveloper,
	models.CategoryUsability:         models.RoleArchitect,
	models.CategoryClarification:     models.RoleScrumMaster,
	models.CategoryGeneral:           models.RoleScrumMaster,
}

// architectureWords override routing toward the solution architect.
var architectureWords = []string{
	"architecture", "design", "schema", "database", "scalability",
	"migration", "data model",
}

// implementationWords override routing toward the developer.
var implementationWords = []string{
	"api", "endpoint", "code", "function", "build", "deploy",
	"performance", "memory", "refactor",
}

// concernAreas groups keywords into distinct concern areas. Feedback
// touching two or more areas at once goes to the team lead because no single
// specialist owns it.
var concernAreas = map[string][]string{
	"functional":     {"bug", "crash", "broken", "error", "fail"},
	"performance":    {"slow", "performance", "latency", "memory", "timeout"},
	"security":       {"security", "auth", "permission", "vulnerability", "leak"},
	"ux":             {"confusing", "usability", "layout", "design", "ux"},
	"scope":          {"requirement", "scope", "deadline", "milestone", "pivot"},
	"infrastructure": {"deploy", "build", "infra", "pipeline", "environment"},
}

// compile builds a regex list, panicking on programmer error at init time.
func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
