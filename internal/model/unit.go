package model

import (
	"fmt"
	"time"
)

const (
	UnitStatusAvailable    = "Available"
	UnitStatusDispatched   = "Dispatched"
	UnitStatusEnRoute      = "EnRoute"
	UnitStatusOnScene      = "OnScene"
	UnitStatusOutOfService = "OutOfService"
)

// Unit is a dispatchable resource (patrol car, medic, engine).
// AssignedCallID, when set, must mutually reference a Call whose
// AssignedUnitID points back at this unit.
type Unit struct {
	ID             string  `gorm:"primaryKey;size:36"`
	UnitNumber     string  `gorm:"uniqueIndex;size:64;not null"`
	UnitType       string  `gorm:"size:64;not null"`
	Status         string  `gorm:"size:32;not null;default:'Available'"`
	Location       string  `gorm:"size:255;not null;default:''"`
	AssignedCallID *string `gorm:"size:36;index"`
	LastUpdate     time.Time
}

type UnitDTO struct {
	ID             string  `json:"id"`
	UnitNumber     string  `json:"unit_number"`
	UnitType       string  `json:"unit_type"`
	Status         string  `json:"status"`
	Location       string  `json:"location"`
	AssignedCallID *string `json:"assigned_call_id"`
	LastUpdate     string  `json:"last_update"`
}

func (u *Unit) String() string {
	if u == nil {
		return "nil"
	}

	return fmt.Sprintf("%s %s %s", u.ID, u.UnitNumber, u.Status)
}

func (u *Unit) DTO() *UnitDTO {
	if u == nil {
		return nil
	}

	return &UnitDTO{
		ID:             u.ID,
		UnitNumber:     u.UnitNumber,
		UnitType:       u.UnitType,
		Status:         u.Status,
		Location:       u.Location,
		AssignedCallID: u.AssignedCallID,
		LastUpdate:     u.LastUpdate.UTC().Format(time.RFC3339),
	}
}

func UnitsDTO(units []*Unit) []*UnitDTO {
	res := make([]*UnitDTO, len(units))

	for i, u := range units {
		res[i] = u.DTO()
	}

	return res
}
