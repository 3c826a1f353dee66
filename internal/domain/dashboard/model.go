package dashboard

// NoReason is shown when a missed practice has no reason recorded.
const NoReason = "no reason"

type Athlete struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type MissedPractice struct {
	UID        string `json:"uid"`
	CheckInID  string `json:"checkInId"`
	MissReason string `json:"missReason"`
}

type LowSleep struct {
	UID         string `json:"uid"`
	CheckInID   string `json:"checkInId"`
	SleepBucket string `json:"sleepBucket"`
}

type Dashboard struct {
	DateKey        string           `json:"dateKey,omitempty"`
	AthleteCount   int              `json:"athleteCount"`
	CompletedCount int              `json:"completedCount"`
	MissingCount   int              `json:"missingCount"`
	CompletedUIDs  []string         `json:"completedUids"`
	Missing        []Athlete        `json:"missing"`
	MissedPractice []MissedPractice `json:"missedPractice"`
	LowSleep       []LowSleep       `json:"lowSleep"`
}
