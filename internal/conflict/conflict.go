// Package conflict holds the deterministic duplicate- and overlap-detection
// logic used by the task tools. Title matching is tuned for Chinese task
// phrasing: normalization is intentionally lossy so that paraphrases of the
// same intent collapse to comparable strings.
package conflict

import (
	"strings"
	"unicode"

	"github.com/daybook-ai/daybook/internal/task"
	"github.com/daybook-ai/daybook/internal/timeutil"
)

// fillerWords are politeness and filler fragments stripped before comparison.
var fillerWords = []string{
	"麻烦你", "麻烦", "帮我去", "帮我", "帮忙", "记得要", "记得", "提醒我",
	"请你", "请", "一下", "需要", "我要", "我想", "然后", "去", "要",
}

// synonymGroups map near-synonym verbs onto one canonical form.
var synonymGroups = []struct {
	variants  []string
	canonical string
}{
	{[]string{"领取", "取回", "带回", "拿"}, "取"},
	{[]string{"购置", "采购", "买入"}, "买"},
	{[]string{"归还", "送还"}, "还"},
}

// NormalizeTaskTitle lowercases the title, strips filler words, folds
// near-synonyms onto a canonical form and removes all whitespace and
// punctuation. The result is only used for comparison, never displayed.
func NormalizeTaskTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	for _, w := range fillerWords {
		s = strings.ReplaceAll(s, w, "")
	}
	for _, g := range synonymGroups {
		for _, v := range g.variants {
			s = strings.ReplaceAll(s, v, g.canonical)
		}
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildBigrams returns the set of adjacent-character pairs in text. Iteration
// is by rune so multi-byte characters form correct pairs.
func BuildBigrams(text string) map[string]struct{} {
	runes := []rune(text)
	grams := make(map[string]struct{}, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])] = struct{}{}
	}
	return grams
}

// DiceCoefficient computes 2*|A∩B| / (|A|+|B|) over the bigram sets of a and
// b. Strings shorter than two characters have no bigrams, so they compare by
// exact equality: 1 when equal, 0 otherwise.
func DiceCoefficient(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		if a == b {
			return 1
		}
		return 0
	}
	ga, gb := BuildBigrams(a), BuildBigrams(b)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}
	overlap := 0
	for g := range ga {
		if _, ok := gb[g]; ok {
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ga)+len(gb))
}

// semanticThreshold is the Dice similarity above which two normalized titles
// are considered the same intent.
const semanticThreshold = 0.75

// IsSemanticDuplicate reports whether two normalized titles refer to the same
// real-world action: equal, one contained in the other, or bigram-similar.
func IsSemanticDuplicate(normalizedNew, normalizedExisting string) bool {
	if normalizedNew == "" || normalizedExisting == "" {
		return false
	}
	if normalizedNew == normalizedExisting {
		return true
	}
	if strings.Contains(normalizedNew, normalizedExisting) || strings.Contains(normalizedExisting, normalizedNew) {
		return true
	}
	return DiceCoefficient(normalizedNew, normalizedExisting) >= semanticThreshold
}

// FindSemanticConflicts returns the tasks whose titles duplicate the candidate
// title. A title that normalizes to nothing (all filler) conflicts with
// nothing.
func FindSemanticConflicts(tasks []task.Task, title string) []task.Task {
	normalized := NormalizeTaskTitle(title)
	if normalized == "" {
		return nil
	}
	var conflicts []task.Task
	for _, t := range tasks {
		if IsSemanticDuplicate(normalized, NormalizeTaskTitle(t.Title)) {
			conflicts = append(conflicts, t)
		}
	}
	return conflicts
}

// FilterTimeConflicts returns the tasks whose explicit time range overlaps
// [startTime, endTime). Tasks without both times never participate; segment
// and all-day tasks are exempt from time conflicts.
func FilterTimeConflicts(tasks []task.Task, startTime, endTime string) []task.Task {
	newStart, okStart := timeutil.ParseClockMinutes(startTime)
	newEnd, okEnd := timeutil.ParseClockMinutes(endTime)
	if !okStart || !okEnd {
		return nil
	}
	var conflicts []task.Task
	for _, t := range tasks {
		if t.StartTime == nil || t.EndTime == nil {
			continue
		}
		s, okS := timeutil.ParseClockMinutes(*t.StartTime)
		e, okE := timeutil.ParseClockMinutes(*t.EndTime)
		if !okS || !okE {
			continue
		}
		if s < newEnd && e > newStart {
			conflicts = append(conflicts, t)
		}
	}
	return conflicts
}

// MergeConflictingTasks de-duplicates by task ID, keeping insertion order
// with time conflicts first.
func MergeConflictingTasks(timeConflicts, semanticConflicts []task.Task) []task.Task {
	seen := make(map[int64]struct{}, len(timeConflicts)+len(semanticConflicts))
	merged := make([]task.Task, 0, len(timeConflicts)+len(semanticConflicts))
	for _, group := range [][]task.Task{timeConflicts, semanticConflicts} {
		for _, t := range group {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}
