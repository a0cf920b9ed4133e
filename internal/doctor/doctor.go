// Package doctor runs local diagnostics over the bot's config directory.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/credentials"
	"github.com/treykane/gamblebot/internal/stats"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// HasHigh reports whether any issue would stop the bot from connecting.
func (r Report) HasHigh() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Run inspects config.yaml, credentials.json and stats.json. It never
// touches the network.
func Run() (Report, error) {
	dir, err := appconfig.ConfigDir()
	if err != nil {
		return Report{}, err
	}
	issues := []Issue{}

	if _, err := appconfig.Load(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "config-parse",
			Target:         "config.yaml",
			Message:        err.Error(),
			Recommendation: "fix the YAML syntax or delete the file to regenerate defaults",
		})
	}

	credPath := filepath.Join(dir, "credentials.json")
	if _, ok, err := credentials.NewStore(credPath).Load(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "credentials-parse",
			Target:         "credentials.json",
			Message:        err.Error(),
			Recommendation: "run `gamblebot token set` to rewrite the record",
		})
	} else if !ok && os.Getenv("GAMBLEBOT_TOKEN") == "" {
		issues = append(issues, Issue{
			Severity:       SeverityMedium,
			Check:          "credentials-missing",
			Target:         "credentials.json",
			Message:        "no bot token is stored",
			Recommendation: "run `gamblebot token set` or start the bot to be prompted",
		})
	}

	if _, err := stats.NewStore(filepath.Join(dir, "stats.json")).Load(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityMedium,
			Check:          "stats-parse",
			Target:         "stats.json",
			Message:        err.Error(),
			Recommendation: "repair the file or run `gamblebot stats reset --yes`",
		})
	}

	checkPathPerm(&issues, dir, 0o700, false)
	for _, name := range []string{"config.yaml", "credentials.json", "stats.json", "events.jsonl"} {
		checkPathPerm(&issues, filepath.Join(dir, name), 0o600, true)
	}

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		return issues[i].Target < issues[j].Target
	})
	return Report{Issues: issues}, nil
}

func checkPathPerm(issues *[]Issue, path string, max os.FileMode, isFile bool) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityLow,
			Check:          "permissions",
			Target:         path,
			Message:        fmt.Sprintf("unable to inspect permissions: %v", err),
			Recommendation: "verify path and permissions manually",
		})
		return
	}
	mode := st.Mode().Perm()
	if mode&^max == 0 {
		return
	}
	kind := "directory"
	sev := SeverityLow
	if isFile {
		kind = "file"
		sev = SeverityMedium
	}
	*issues = append(*issues, Issue{
		Severity:       sev,
		Check:          "permissions",
		Target:         path,
		Message:        fmt.Sprintf("%s permissions are too broad (%#o)", kind, mode),
		Recommendation: fmt.Sprintf("restrict permissions to %#o or tighter", max),
	})
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
