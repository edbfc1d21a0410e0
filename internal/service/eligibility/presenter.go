package eligibility

import (
	"fmt"
	"strings"

	"github.com/ignite/address-eligibility/internal/domain"
)

// Icon is the per-step marker shown next to an explanation.
type Icon string

const (
	IconPassed  Icon = "passed"
	IconFailed  Icon = "failed"
	IconSkipped Icon = "skipped"
	IconError   Icon = "error"
)

// AuditLine is one rendered step.
type AuditLine struct {
	StepName string `json:"stepName"`
	Icon     Icon   `json:"icon"`
	Text     string `json:"text"`
}

// AuditView is the human-readable projection of a CheckResult.
type AuditView struct {
	Lines        []AuditLine `json:"lines"`
	Verdict      string      `json:"verdict"`
	FinalMessage string      `json:"finalMessage"`
}

// Presenter renders a CheckResult into an AuditView. It reads the typed
// capacity, occupancy and limit fields and never changes the result.
type Presenter struct {
	// IncludeNormalize adds the normalize step, which is hidden by default.
	IncludeNormalize bool
}

// Present builds the audit view. Stages that never ran because an earlier
// stage stopped the process get a synthesized "not needed" line.
func (p Presenter) Present(res *domain.CheckResult) AuditView {
	view := AuditView{Verdict: res.Verdict(), FinalMessage: res.FinalMessage}

	if p.IncludeNormalize {
		if s, ok := res.Step(domain.StepNameNormalize); ok {
			line := AuditLine{StepName: s.StepName, Icon: IconSkipped, Text: strings.ToLower(s.Message)}
			if s.Status == domain.StepError {
				line.Icon = IconError
			}
			view.Lines = append(view.Lines, line)
		}
	}

	stopped := false
	for _, name := range []string{domain.StepNameBlacklist, domain.StepNameWhitelist, domain.StepNameStatusList} {
		s, ran := res.Step(name)
		if !ran {
			view.Lines = append(view.Lines, skippedLine(name, stopped))
			continue
		}
		view.Lines = append(view.Lines, AuditLine{StepName: name, Icon: iconFor(s), Text: explain(s)})
		if s.StopProcess {
			stopped = true
		}
	}
	return view
}

// String renders the view as plain text, one step per line.
func (v AuditView) String() string {
	var b strings.Builder
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "[%s] %s: %s\n", l.Icon, l.StepName, l.Text)
	}
	fmt.Fprintf(&b, "%s\n%s\n", v.Verdict, v.FinalMessage)
	return b.String()
}

func iconFor(s domain.CheckStep) Icon {
	if s.Status == domain.StepError {
		return IconError
	}
	switch s.Result {
	case domain.ResultPassed:
		return IconPassed
	case domain.ResultFailed:
		return IconFailed
	}
	return IconSkipped
}

func skippedLine(name string, upstreamStopped bool) AuditLine {
	line := AuditLine{StepName: name, Icon: IconSkipped}
	switch name {
	case domain.StepNameWhitelist:
		line.Text = "address not found in whitelist"
		if upstreamStopped {
			line.Text = "whitelist check not needed"
		}
	case domain.StepNameStatusList:
		line.Text = "address not found in status list"
		if upstreamStopped {
			line.Text = "status list check not needed"
		}
	}
	return line
}

func explain(s domain.CheckStep) string {
	// A fail-closed block carries no list data to describe.
	if s.Status == domain.StepError && s.StopProcess && s.Result == domain.ResultFailed {
		return strings.ToLower(s.Message)
	}

	switch s.StepName {
	case domain.StepNameBlacklist:
		if s.Result == domain.ResultFailed {
			return "address found in blacklist"
		}
		return "address not found in blacklist"

	case domain.StepNameWhitelist:
		if s.Result == domain.ResultNotApplicable {
			return "address not found in whitelist"
		}
		return fmt.Sprintf("address found in whitelist with occupancy %d (limit %d)", deref(s.Occupancy), deref(s.Capacity))

	case domain.StepNameStatusList:
		if s.Result == domain.ResultNotApplicable || s.Occupancy == nil {
			return "address not found in status list"
		}
		if *s.Occupancy == 0 {
			return "address found in status list (new address)"
		}
		limit := DefaultOccupancyLimit
		if s.Limit != nil {
			limit = *s.Limit
		}
		return fmt.Sprintf("address found in status list with occupancy %d (limit %d)", *s.Occupancy, limit)
	}
	return strings.ToLower(s.Message)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
