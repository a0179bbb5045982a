package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationStatus is the integrity verdict for one file.
type ValidationStatus int

const (
	StatusOk ValidationStatus = iota
	StatusError
	StatusWarning
	StatusExtensionMismatch
)

func (s ValidationStatus) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	case StatusExtensionMismatch:
		return "change extensions"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// severity ranks statuses for PolicySeverity.
func (s ValidationStatus) severity() int {
	switch s {
	case StatusError:
		return 3
	case StatusWarning:
		return 2
	case StatusExtensionMismatch:
		return 1
	default:
		return 0
	}
}

// ClassifierPolicy decides how per-line candidates combine into one status.
type ClassifierPolicy string

const (
	// PolicyLastWriteWins lets every classified line override the previous one.
	PolicyLastWriteWins ClassifierPolicy = "last-write-wins"
	// PolicySeverity keeps the most severe candidate: error > warning > extension > ok.
	PolicySeverity ClassifierPolicy = "severity"
)

// ValidationOutcome is the classifier's reading of a validation report.
type ValidationOutcome struct {
	Status             ValidationStatus
	CorrectedExtension string
	RawReport          string
}

var wrongExtensionRe = regexp.MustCompile(`be (\w+), not (\w+)`)

// ClassifyReport parses an "exiftool -validate -error -warning" report.
// An empty report is Ok.
func ClassifyReport(report string, policy ClassifierPolicy) ValidationOutcome {
	out := ValidationOutcome{Status: StatusOk, RawReport: report}

	for _, line := range reportLines(report) {
		candidate, ok := classifyLine(line, &out)
		if !ok {
			continue
		}
		if policy == PolicySeverity && candidate.severity() < out.Status.severity() {
			continue
		}
		out.Status = candidate
	}
	return out
}

// classifyLine returns the status candidate for one line, or false when the line
// leaves the status untouched. A wrong-extension line records the corrected extension.
func classifyLine(line string, out *ValidationOutcome) (ValidationStatus, bool) {
	key, value := splitReportLine(line)

	switch {
	case key == "Validate":
		if value == "ok" || strings.Contains(value, "all minor") {
			return StatusOk, true
		}
		return 0, false
	case strings.Contains(strings.ToLower(key), "error") || strings.Contains(strings.ToLower(value), "error"):
		return StatusError, true
	case strings.HasPrefix(value, "File has wrong extension"):
		if m := wrongExtensionRe.FindStringSubmatch(value); m != nil {
			out.CorrectedExtension = strings.ToLower(m[1])
		}
		return StatusExtensionMismatch, true
	case strings.HasPrefix(value, "[minor]"):
		return StatusOk, true
	default:
		return StatusWarning, true
	}
}
