package checkin

import (
	"time"
)

// ReflectionMaxLen is the number of characters kept per reflection field.
const ReflectionMaxLen = 240

const (
	HistoryLimit = 14
	MaxListLimit = 60
)

var (
	SleepBuckets    = []string{"lt6", "6to7", "7to8", "8plus"}
	BedtimeBuckets  = []string{"onTime", "late", "veryLate"}
	HydrationLevels = []string{"low", "ok", "good"}
	SleepBlockers   = []string{"stress", "screens", "latePractice", "pain", "other"}
	MissReasons     = []string{"sick", "injury", "family", "transport", "school", "other"}
	MantraWords     = []string{"Resilient", "Relentless", "Respectful", "Grateful", "Composed", "Consistent", "Disciplined"}
)

// LowSleepBuckets are the sleep buckets a coach is warned about.
var LowSleepBuckets = []string{"lt6", "6to7"}

type Habits struct {
	SleepBucket    *string `firestore:"sleepBucket,omitempty" json:"sleepBucket,omitempty"`
	BedtimeBucket  *string `firestore:"bedtimeBucket,omitempty" json:"bedtimeBucket,omitempty"`
	FellAsleepFast *bool   `firestore:"fellAsleepFast,omitempty" json:"fellAsleepFast,omitempty"`
	Hydration      *string `firestore:"hydration,omitempty" json:"hydration,omitempty"`
	Fruit          *bool   `firestore:"fruit,omitempty" json:"fruit,omitempty"`
	Veg            *bool   `firestore:"veg,omitempty" json:"veg,omitempty"`
	SleepBlocker   *string `firestore:"sleepBlocker,omitempty" json:"sleepBlocker,omitempty"`
}

type Practice struct {
	Attended       *bool   `firestore:"attended,omitempty" json:"attended,omitempty"`
	MissReason     *string `firestore:"missReason,omitempty" json:"missReason,omitempty"`
	EffortWeights  *int    `firestore:"effortWeights,omitempty" json:"effortWeights,omitempty"`
	EffortDrilling *int    `firestore:"effortDrilling,omitempty" json:"effortDrilling,omitempty"`
	EffortLive     *int    `firestore:"effortLive,omitempty" json:"effortLive,omitempty"`
	Matches        *int    `firestore:"matches,omitempty" json:"matches,omitempty"`
	Warmups        *int    `firestore:"warmups,omitempty" json:"warmups,omitempty"`
	Cooldowns      *int    `firestore:"cooldowns,omitempty" json:"cooldowns,omitempty"`
}

type Mindset struct {
	TechFocus         *string `firestore:"techFocus,omitempty" json:"techFocus,omitempty"`
	MainShotAttempted *bool   `firestore:"mainShotAttempted,omitempty" json:"mainShotAttempted,omitempty"`
	ResetUsed         *bool   `firestore:"resetUsed,omitempty" json:"resetUsed,omitempty"`
	MantraWord        *string `firestore:"mantraWord,omitempty" json:"mantraWord,omitempty"`
}

type Reflection struct {
	WentWell        *string `firestore:"wentWell,omitempty" json:"wentWell,omitempty"`
	ImproveTomorrow *string `firestore:"improveTomorrow,omitempty" json:"improveTomorrow,omitempty"`
}

type CheckIn struct {
	ID          string      `firestore:"-" json:"id"`
	UID         string      `firestore:"uid" json:"uid"`
	DateKey     string      `firestore:"dateKey" json:"dateKey"`
	SubmittedAt time.Time   `firestore:"submittedAt" json:"submittedAt"`
	Habits      *Habits     `firestore:"habits,omitempty" json:"habits,omitempty"`
	Practice    *Practice   `firestore:"practice,omitempty" json:"practice,omitempty"`
	Mindset     *Mindset    `firestore:"mindset,omitempty" json:"mindset,omitempty"`
	Reflection  *Reflection `firestore:"reflection,omitempty" json:"reflection,omitempty"`
}

// MissedPractice reports an explicit attended=false.
func (c CheckIn) MissedPractice() bool {
	return c.Practice != nil && c.Practice.Attended != nil && !*c.Practice.Attended
}

func (c CheckIn) LowSleep() bool {
	return c.Habits != nil && c.Habits.SleepBucket != nil && contains(LowSleepBuckets, *c.Habits.SleepBucket)
}

// SubmitInput carries the groups of one submission. Absent groups and
// absent fields leave the stored values untouched.
type SubmitInput struct {
	Habits     *Habits     `json:"habits,omitempty"`
	Practice   *Practice   `json:"practice,omitempty"`
	Mindset    *Mindset    `json:"mindset,omitempty"`
	Reflection *Reflection `json:"reflection,omitempty"`
}

type Ack struct {
	ID      string `json:"id"`
	DateKey string `json:"dateKey"`
}

// Filter selects either one day of a team or one athlete's history.
type Filter struct {
	DateKey string
	UID     string
	Limit   int
}

func DocID(uid, dateKey string) string {
	return uid + "_" + dateKey
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
