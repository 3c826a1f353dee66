package checkin

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks every present field and reports all problems at once.
func (in SubmitInput) Validate() error {
	var result *multierror.Error

	if h := in.Habits; h != nil {
		result = checkEnum(result, "habits.sleepBucket", h.SleepBucket, SleepBuckets)
		result = checkEnum(result, "habits.bedtimeBucket", h.BedtimeBucket, BedtimeBuckets)
		result = checkEnum(result, "habits.hydration", h.Hydration, HydrationLevels)
		result = checkEnum(result, "habits.sleepBlocker", h.SleepBlocker, SleepBlockers)
	}
	if p := in.Practice; p != nil {
		result = checkEnum(result, "practice.missReason", p.MissReason, MissReasons)
		result = checkRange(result, "practice.effortWeights", p.EffortWeights, 1, 5)
		result = checkRange(result, "practice.effortDrilling", p.EffortDrilling, 1, 5)
		result = checkRange(result, "practice.effortLive", p.EffortLive, 1, 5)
		result = checkRange(result, "practice.matches", p.Matches, 0, 6)
		result = checkRange(result, "practice.warmups", p.Warmups, 0, 6)
		result = checkRange(result, "practice.cooldowns", p.Cooldowns, 0, 6)
	}
	if m := in.Mindset; m != nil {
		result = checkEnum(result, "mindset.mantraWord", m.MantraWord, MantraWords)
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = joinErrors
	return result
}

func checkEnum(result *multierror.Error, field string, v *string, allowed []string) *multierror.Error {
	if v == nil || contains(allowed, *v) {
		return result
	}
	return multierror.Append(result, fmt.Errorf("%s must be one of %s", field, strings.Join(allowed, ", ")))
}

func checkRange(result *multierror.Error, field string, v *int, min, max int) *multierror.Error {
	if v == nil || (*v >= min && *v <= max) {
		return result
	}
	return multierror.Append(result, fmt.Errorf("%s must be between %d and %d", field, min, max))
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
