package models

// ScheduleWindow is a recurring weekly time range during which a customer is
// permitted entry. Days use the Monday=0 .. Sunday=6 convention carried by
// the backend roster.
type ScheduleWindow struct {
	DaysOfWeek []int  `json:"days_of_week"`
	StartTime  string `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	EndTime    string `json:"end_time"`
}

// Customer is one record of the roster snapshot. Read-only on the kiosk.
type Customer struct {
	CustomerUUID      string           `json:"customer_uuid"`
	FirstName         string           `json:"first_name"`
	LastName          string           `json:"last_name,omitempty"`
	IsStaff           bool             `json:"is_staff"`
	CardNumber        string           `json:"card_number,omitempty"`
	SecondCardNumber  string           `json:"second_card_number,omitempty"`
	ActiveMembership  bool             `json:"active_membership"`
	EntranceSchedules []ScheduleWindow `json:"entrance_schedules"`
}
