package entity

import availabilityEntity "interview-scheduler/modules/availability/entity"

// TeamQuery asks for each participant's free time over a window, sliced into a
// display grid of SlotDurationMins (zero means the platform default).
type TeamQuery struct {
	ParticipantIDs   []string
	SearchWindow     availabilityEntity.Interval
	SlotDurationMins int
}

type UserAvailability struct {
	ParticipantID string
	DisplayName   string
	Kind          availabilityEntity.ParticipantKind
	Status        availabilityEntity.ResolutionStatus
	FreeIntervals []availabilityEntity.Interval
	Slots         []availabilityEntity.Interval
	IsDegraded    bool
}

type TeamAvailability struct {
	Users               []UserAvailability
	CommonSlots         []availabilityEntity.Interval
	CommonIntervals     []availabilityEntity.Interval
	QueryRange          availabilityEntity.Interval
	SlotDurationMins    int
	PartialExternalData bool
	Warnings            []string
}
