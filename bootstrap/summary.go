package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/rxkit/observability"
)

// Setting is one line of the summary's runtime section.
type Setting struct {
	Name  string
	Value string
}

// Summary tracks and displays the runtime startup.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	settings        []Setting
}

// NewSummary creates a new startup summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		settings:    make([]Setting, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackSetting adds a named runtime setting to the summary.
func (s *Summary) TrackSetting(name, value string) {
	s.settings = append(s.settings, Setting{Name: name, Value: value})
}

// Settings returns the tracked settings in insertion order.
func (s *Summary) Settings() []Setting {
	return s.settings
}

// DisplaySummary writes the summary and, if health is non-nil, the health
// of each component to w.
func (s *Summary) DisplaySummary(w io.Writer, health *observability.ServiceHealth) {
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n\n", s.serviceName, version, s.startupDuration.Seconds())

	if len(s.settings) > 0 {
		fmt.Fprintf(w, "⚙️  Runtime\n")
		for i, st := range s.settings {
			fmt.Fprintf(w, "   %s %s: %s\n", treePrefix(i, len(s.settings)), st.Name, st.Value)
		}
	}

	if health != nil && len(health.Components) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range health.Components {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n",
				treePrefix(i, len(health.Components)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
		fmt.Fprintf(w, "\n")
		if health.Status == observability.HealthStatusUp {
			fmt.Fprintf(w, "✅ All components healthy (%d/%d)\n", len(health.Components), len(health.Components))
		} else {
			fmt.Fprintf(w, "⚠️  Runtime is %s\n", health.Status)
		}
	}

	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
