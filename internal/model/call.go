package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CallStatusNew        = "New"
	CallStatusDispatched = "Dispatched"
	CallStatusInProgress = "InProgress"
	CallStatusClosed     = "Closed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Call is a single incident. AssignedUnitID, when set, must mutually
// reference a Unit whose AssignedCallID points back at this call.
type Call struct {
	ID             string  `gorm:"primaryKey;size:36"`
	CallNumber     string  `gorm:"uniqueIndex;size:64;not null"`
	Priority       string  `gorm:"size:32;not null;default:'Medium'"`
	CallType       string  `gorm:"size:64;not null"`
	Location       string  `gorm:"size:255;not null"`
	Description    string  `gorm:"not null;default:''"`
	Status         string  `gorm:"size:32;not null;default:'New'"`
	AssignedUnitID *string `gorm:"size:36;index"`
	ReporterName   string  `gorm:"size:255;not null;default:''"`
	ReporterPhone  string  `gorm:"size:64;not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CallDTO struct {
	ID             string  `json:"id"`
	CallNumber     string  `json:"call_number"`
	Priority       string  `json:"priority"`
	CallType       string  `json:"call_type"`
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	AssignedUnitID *string `json:"assigned_unit_id"`
	ReporterName   string  `json:"reporter_name"`
	ReporterPhone  string  `json:"reporter_phone"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// NewCallNumber makes a human-readable, date-stamped call number,
// like CALL-20240801-A3F0. Numbers are never reused.
func NewCallNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])

	return fmt.Sprintf("CALL-%s-%s", now.Format("20060102"), suffix)
}

func (c *Call) String() string {
	if c == nil {
		return "nil"
	}

	return fmt.Sprintf("%s %s %s", c.ID, c.CallNumber, c.Status)
}

func (c *Call) DTO() *CallDTO {
	if c == nil {
		return nil
	}

	return &CallDTO{
		ID:             c.ID,
		CallNumber:     c.CallNumber,
		Priority:       c.Priority,
		CallType:       c.CallType,
		Location:       c.Location,
		Description:    c.Description,
		Status:         c.Status,
		AssignedUnitID: c.AssignedUnitID,
		ReporterName:   c.ReporterName,
		ReporterPhone:  c.ReporterPhone,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func CallsDTO(calls []*Call) []*CallDTO {
	res := make([]*CallDTO, len(calls))

	for i, c := range calls {
		res[i] = c.DTO()
	}

	return res
}
