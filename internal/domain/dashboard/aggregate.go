package dashboard

import (
	"sort"

	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/team"
)

// Aggregate summarizes one day of check-ins against the athlete roster.
// It does not modify its inputs. Flags are independent, so one check-in
// can appear in both MissedPractice and LowSleep.
func Aggregate(roster []team.Membership, todays []checkin.CheckIn) Dashboard {
	done := make(map[string]struct{}, len(todays))
	completed := make([]string, 0, len(todays))
	for _, c := range todays {
		if _, ok := done[c.UID]; !ok {
			completed = append(completed, c.UID)
		}
		done[c.UID] = struct{}{}
	}
	sort.Strings(completed)

	missing := []Athlete{}
	for _, m := range roster {
		if _, ok := done[m.UID]; ok {
			continue
		}
		missing = append(missing, Athlete{UID: m.UID, Name: m.DisplayName()})
	}

	missed := []MissedPractice{}
	low := []LowSleep{}
	for _, c := range todays {
		if c.MissedPractice() {
			reason := NoReason
			if r := c.Practice.MissReason; r != nil && *r != "" {
				reason = *r
			}
			missed = append(missed, MissedPractice{UID: c.UID, CheckInID: c.ID, MissReason: reason})
		}
		if c.LowSleep() {
			low = append(low, LowSleep{UID: c.UID, CheckInID: c.ID, SleepBucket: *c.Habits.SleepBucket})
		}
	}

	return Dashboard{
		AthleteCount:   len(roster),
		CompletedCount: len(todays),
		MissingCount:   len(missing),
		CompletedUIDs:  completed,
		Missing:        missing,
		MissedPractice: missed,
		LowSleep:       low,
	}
}
