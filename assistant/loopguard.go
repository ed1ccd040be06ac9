package assistant

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Thresholds for loopGuard. A call is the tool name plus its arguments.
const (
	maxSameError   = 2 // same call, same error
	maxNoProgress  = 3 // same call, same successful result
	maxConsecutive = 3 // same call back to back
)

type callRecord struct {
	tool    string
	args    string
	result  string
	isError bool
}

// loopGuard spots a model that keeps repeating itself within one Run.
type loopGuard struct {
	history []callRecord
}

func (g *loopGuard) record(tool string, args map[string]any, content string, isError bool) {
	raw, _ := json.Marshal(args)
	g.history = append(g.history, callRecord{tool: tool, args: digest(string(raw)), result: digest(content), isError: isError})
}

// check returns a reason to stop, or "" to carry on.
func (g *loopGuard) check() string {
	n := len(g.history)
	if n == 0 {
		return ""
	}
	last := g.history[n-1]

	same := 0
	for _, r := range g.history {
		if r == last {
			same++
		}
	}
	if last.isError && same >= maxSameError {
		return fmt.Sprintf("tool %q returned the same error %d times", last.tool, same)
	}
	if !last.isError && same >= maxNoProgress {
		return fmt.Sprintf("tool %q returned identical results %d times", last.tool, same)
	}

	run := 1
	for i := n - 2; i >= 0; i-- {
		if g.history[i].tool != last.tool || g.history[i].args != last.args {
			break
		}
		run++
	}
	if run >= maxConsecutive {
		return fmt.Sprintf("tool %q called with the same arguments %d times in a row", last.tool, run)
	}
	return ""
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:8])
}
