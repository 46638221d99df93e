package dto

// ScheduleRequest creates or edits a schedule. Times are "HH:MM"; blanks
// are derived at write time.
type ScheduleRequest struct {
	WeddingDate          string `json:"wedding_date" validate:"required,datetime=2006-01-02"`
	WeddingTime          string `json:"wedding_time" validate:"omitempty,datetime=15:04"`
	ShootStartTime       string `json:"shoot_start_time" validate:"omitempty,datetime=15:04"`
	ArrivalTargetTime    string `json:"arrival_target_time" validate:"omitempty,datetime=15:04"`
	Venue                string `json:"venue" validate:"required"`
	VenueAddress         string `json:"venue_address"`
	Couple               string `json:"couple"`
	TravelMinutesDefault *int   `json:"travel_minutes_default" validate:"omitempty,gte=1"`
	MainName             string `json:"main_name"`
	SubName              string `json:"sub_name"`
}

// ScheduleImportRow is a schedule already normalised by the spreadsheet
// importer.
type ScheduleImportRow struct {
	WeddingDate       string `json:"wedding_date" validate:"required,datetime=2006-01-02"`
	WeddingTime       string `json:"wedding_time" validate:"omitempty,datetime=15:04"`
	ShootStartTime    string `json:"shoot_start_time" validate:"omitempty,datetime=15:04"`
	ArrivalTargetTime string `json:"arrival_target_time" validate:"omitempty,datetime=15:04"`
	Venue             string `json:"venue" validate:"required"`
	VenueAddress      string `json:"venue_address"`
	Couple            string `json:"couple"`
	MainName          string `json:"main_name"`
	SubName           string `json:"sub_name"`
}

// ScheduleImportRequest batches importer output.
type ScheduleImportRequest struct {
	Rows []ScheduleImportRow `json:"rows" validate:"required,dive"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Inserted             int `json:"inserted"`
	Skipped              int `json:"skipped"`
	Updated              int `json:"updated,omitempty"`
	PhotographersCreated int `json:"photographers_created"`
}

// BulkDeleteRequest removes several schedules at once.
type BulkDeleteRequest struct {
	ScheduleIDs []int64 `json:"schedule_ids" validate:"required,min=1,dive,gt=0"`
}

// PhotographerRequest creates or edits a photographer.
type PhotographerRequest struct {
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Role      string `json:"role"`
	Address   string `json:"address"`
	Region    string `json:"region"`
	HasCar    *bool  `json:"has_car"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
	Memo      string `json:"memo"`
	Password  string `json:"password" validate:"omitempty,min=4"`
}

// PhotographerImportRow is one roster entry from the importer.
type PhotographerImportRow struct {
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Role      string `json:"role"`
	Address   string `json:"address"`
	Region    string `json:"region"`
	HasCar    *bool  `json:"has_car"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// PhotographerImportRequest batches roster rows.
type PhotographerImportRequest struct {
	Rows []PhotographerImportRow `json:"rows" validate:"required,dive"`
}

// WeddingHallRequest creates or edits a hall.
type WeddingHallRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

// HallPropagation reports the effect of a hall address change.
type HallPropagation struct {
	SchedulesUpdated int   `json:"schedules_updated"`
	EstimatesCleared int64 `json:"estimates_cleared"`
	SchedulesRenamed int64 `json:"schedules_renamed,omitempty"`
}
