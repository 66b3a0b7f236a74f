package model

import (
	"time"
)

const (
	BoloStatusActive    = "Active"
	BoloStatusExpired   = "Expired"
	BoloStatusCancelled = "Cancelled"
)

// Bolo is a "be on the lookout" advisory. It carries no cross-entity
// references and is append/delete only.
type Bolo struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"not null"`
	BoloType    string `gorm:"size:64;not null"`
	Priority    string `gorm:"size:32;not null;default:'Medium'"`
	Status      string `gorm:"size:32;not null;default:'Active'"`
	ExpiresAt   *time.Time
	CreatedBy   string `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time
}

type BoloDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	BoloType    string  `json:"bolo_type"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	ExpiresAt   *string `json:"expires_at"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

func (b *Bolo) DTO() *BoloDTO {
	if b == nil {
		return nil
	}

	var exp *string

	if b.ExpiresAt != nil {
		s := b.ExpiresAt.UTC().Format(time.RFC3339)
		exp = &s
	}

	return &BoloDTO{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		BoloType:    b.BoloType,
		Priority:    b.Priority,
		Status:      b.Status,
		ExpiresAt:   exp,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func BolosDTO(bolos []*Bolo) []*BoloDTO {
	res := make([]*BoloDTO, len(bolos))

	for i, b := range bolos {
		res[i] = b.DTO()
	}

	return res
}
