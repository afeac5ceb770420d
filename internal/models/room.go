package models

import (
	"time"

	"github.com/lib/pq"
)

// Room represents a teaching room ingested from the rooms workbook.
type Room struct {
	ID        string         `db:"id" json:"id"`
	RoomNo    string         `db:"room_no" json:"room_no"`
	Capacity  int            `db:"capacity" json:"capacity"`
	RoomType  *string        `db:"room_type" json:"room_type,omitempty"`
	Equipment pq.StringArray `db:"equipment" json:"equipment"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
