// Package attention evaluates the attention and comprehension checks embedded in the study.
package attention

import (
	"bytes"
	"encoding/json"
)

// DefaultComprehensionCheckID identifies the task-understanding check, which is not an attention check.
const DefaultComprehensionCheckID = "1"

// FailThreshold is the number of failed attention checks that fails a session.
const FailThreshold = 2

// Check is one stored answer to an embedded check. Correct is either a single value or a
// JSON array of accepted values. CheckID is kept as sent, so a numeric id never matches a
// string comprehension id.
type Check struct {
	CheckID  json.RawMessage `json:"check_id,omitempty"`
	Selected json.RawMessage `json:"selected"`
	Correct  json.RawMessage `json:"correct"`
	// Malformed marks a stored entry that is not a check object. It counts as failed.
	Malformed bool `json:"-"`
}

// Checks maps check id to the participant's answer, as held in user_completed.attention_checks
type Checks map[string]Check

// UnmarshalJSON decodes every entry of the stored object. Entries that are not check objects
// are kept as malformed checks instead of failing the whole set.
func (cs *Checks) UnmarshalJSON(b []byte) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	if entries == nil {
		*cs = nil
		return nil
	}
	checks := make(Checks, len(entries))
	for key, entry := range entries {
		var check Check
		if err := json.Unmarshal(entry, &check); err != nil || !bytes.HasPrefix(bytes.TrimSpace(entry), []byte("{")) {
			check = Check{Malformed: true}
		}
		checks[key] = check
	}
	*cs = checks
	return nil
}

// Passed reports whether the selected answer matches the correct one, using set membership
// when Correct is an array.
func (c Check) Passed() bool {
	if c.Malformed {
		return false
	}
	var accepted []json.RawMessage
	if bytes.HasPrefix(bytes.TrimSpace(c.Correct), []byte("[")) && json.Unmarshal(c.Correct, &accepted) == nil {
		for _, candidate := range accepted {
			if sameValue(candidate, c.Selected) {
				return true
			}
		}
		return false
	}
	return sameValue(c.Correct, c.Selected)
}

func (c Check) isComprehension(key, comprehensionID string) bool {
	id := bytes.TrimSpace(c.CheckID)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return key == comprehensionID
	}
	var s string
	if err := json.Unmarshal(id, &s); err != nil {
		return false
	}
	return s == comprehensionID
}

// FailedCount returns how many checks other than the comprehension check were answered wrongly
func FailedCount(checks Checks, comprehensionID string) int {
	failed := 0
	for key, check := range checks {
		if check.isComprehension(key, comprehensionID) {
			continue
		}
		if !check.Passed() {
			failed++
		}
	}
	return failed
}

// TwoOrMoreFailed reports whether at least FailThreshold attention checks were failed
func TwoOrMoreFailed(checks Checks, comprehensionID string) bool {
	return FailedCount(checks, comprehensionID) >= FailThreshold
}

// ComprehensionFailed reports whether the comprehension check exists and was answered wrongly.
// Unlike attention checks it is compared directly, never by set membership.
func ComprehensionFailed(checks Checks, comprehensionID string) bool {
	check, ok := checks[comprehensionID]
	if !ok {
		return false
	}
	if check.Malformed {
		return true
	}
	return !sameValue(check.Correct, check.Selected)
}

// sameValue compares two JSON values strictly: "1" and 1 differ, as do null and a missing value.
func sameValue(a, b json.RawMessage) bool {
	var av, bv interface{}
	if len(bytes.TrimSpace(a)) == 0 || len(bytes.TrimSpace(b)) == 0 {
		return len(bytes.TrimSpace(a)) == len(bytes.TrimSpace(b))
	}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return equalJSON(av, bv)
}

func equalJSON(a, b interface{}) bool {
	switch at := a.(type) {
	case nil:
		return b == nil
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case float64:
		bt, ok := b.(float64)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	default:
		// Objects and arrays are never accepted as an answer.
		return false
	}
}
