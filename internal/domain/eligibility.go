package domain

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// StepResult is the outcome marker of a step.
type StepResult int

const (
	ResultNotApplicable StepResult = -1
	ResultFailed        StepResult = 0
	ResultPassed        StepResult = 1
)

// Step names as they appear in the trace.
const (
	StepNameNormalize  = "Normalize Address"
	StepNameBlacklist  = "Check Blacklist"
	StepNameWhitelist  = "Check Whitelist"
	StepNameStatusList = "Check Status List"
)

// Verdicts.
const (
	VerdictPassed = "CHECK PASSED"
	VerdictFailed = "CHECK FAILED"
)

// CheckStep is one stage of the eligibility trace. Capacity, Occupancy and
// Limit are set by the stages that compute them so that presentation never
// has to parse them back out of Details.
type CheckStep struct {
	StepName    string     `json:"stepName"`
	Status      StepStatus `json:"status"`
	Message     string     `json:"message"`
	Details     string     `json:"details"`
	Result      StepResult `json:"result"`
	StopProcess bool       `json:"stopProcess"`
	Capacity    *int       `json:"capacity,omitempty"`
	Occupancy   *int       `json:"occupancy,omitempty"`
	Limit       *int       `json:"limit,omitempty"`
}

// CheckResult is the verdict plus the ordered trace of one eligibility check.
type CheckResult struct {
	Success      int         `json:"success"`
	Steps        []CheckStep `json:"steps"`
	FinalMessage string      `json:"finalMessage"`
}

// Passed reports whether the address is allowed to proceed.
func (r *CheckResult) Passed() bool { return r.Success == 1 }

// Verdict returns "CHECK PASSED" or "CHECK FAILED".
func (r *CheckResult) Verdict() string {
	if r.Passed() {
		return VerdictPassed
	}
	return VerdictFailed
}

// Step returns the step with the given name, if it was appended.
func (r *CheckResult) Step(name string) (CheckStep, bool) {
	for _, s := range r.Steps {
		if s.StepName == name {
			return s, true
		}
	}
	return CheckStep{}, false
}

// IntPtr is a small helper for the optional numeric step fields.
func IntPtr(v int) *int { return &v }
