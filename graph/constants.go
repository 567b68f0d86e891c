package graph

// Structured payload fields. They never become node attributes.
const (
	FieldActiveJobs        = "ActiveJobs"
	FieldCompletionDests   = "TopJobCompletionDestinations"
	FieldSwitchDests       = "TopJobSwitchDestinations"
	FieldPlayerSummary     = "PlayerSummary"
	FieldPopulationSummary = "PopulationSummary"
)

// Node attributes the renderer reads.
const (
	AttrAvgTime      = "JobsAttempted-avg-time-per-attempt"
	AttrStdDev       = "JobsAttempted-std-dev-per-attempt"
	AttrNumStarts    = "JobsAttempted-num-starts"
	AttrNumCompletes = "JobsAttempted-num-completes"
	AttrPercent      = "JobsAttempted-percent-complete"
	AttrDifficulties = "JobsAttempted-job-difficulties"
)

var structuredFields = map[string]bool{
	FieldActiveJobs:        true,
	FieldCompletionDests:   true,
	FieldSwitchDests:       true,
	FieldPlayerSummary:     true,
	FieldPopulationSummary: true,
}
