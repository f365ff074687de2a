package models

import (
	"time"
)

// DateLayout is the calendar date format used for non-delivery days and
// delivery dates on the wire and in storage.
const DateLayout = "2006-01-02"

// DeliverySetting is stored as a single row with ID 1.
type DeliverySetting struct {
	ID             uint      `gorm:"primaryKey" bson:"_id" json:"-"`
	CutoffHour     int       `gorm:"not null" bson:"cutoff_hour" json:"cutoff_hour"`
	CutoffMinute   int       `gorm:"not null" bson:"cutoff_minute" json:"cutoff_minute"`
	ProcessingDays int       `gorm:"not null" bson:"processing_days" json:"processing_days"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// NonDeliveryDay excludes a calendar date from delivery. When
// IsRecurringYearly is set only the month and day are compared.
type NonDeliveryDay struct {
	ID                uint      `gorm:"primaryKey" bson:"_id" json:"id"`
	Date              string    `gorm:"size:10;uniqueIndex;not null" bson:"date" json:"date"`
	Reason            string    `gorm:"size:255" bson:"reason" json:"reason"`
	IsRecurringYearly bool      `gorm:"not null;default:false" bson:"is_recurring_yearly" json:"is_recurring_yearly"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// Day parses Date in loc.
func (d NonDeliveryDay) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, d.Date, loc)
}

func (d *NonDeliveryDay) Validate() error {
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return ValidationError("date must be formatted as YYYY-MM-DD")
	}
	return nil
}
