package model

import (
	"time"
)

// Note is a free-text annotation attached to a call, a unit, or both.
// Notes are immutable once created, except for deletion.
type Note struct {
	ID        string  `gorm:"primaryKey;size:36"`
	CallID    *string `gorm:"size:36;index"`
	UnitID    *string `gorm:"size:36;index"`
	NoteType  string  `gorm:"size:64;not null"`
	Content   string  `gorm:"not null"`
	CreatedBy string  `gorm:"size:255;not null;default:''"`
	CreatedAt time.Time
}

type NoteDTO struct {
	ID        string  `json:"id"`
	CallID    *string `json:"call_id"`
	UnitID    *string `json:"unit_id"`
	NoteType  string  `json:"note_type"`
	Content   string  `json:"content"`
	CreatedBy string  `json:"created_by"`
	CreatedAt string  `json:"created_at"`
}

func (n *Note) DTO() *NoteDTO {
	if n == nil {
		return nil
	}

	return &NoteDTO{
		ID:        n.ID,
		CallID:    n.CallID,
		UnitID:    n.UnitID,
		NoteType:  n.NoteType,
		Content:   n.Content,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NotesDTO(notes []*Note) []*NoteDTO {
	res := make([]*NoteDTO, len(notes))

	for i, n := range notes {
		res[i] = n.DTO()
	}

	return res
}
