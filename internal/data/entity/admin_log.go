package entity

import "github.com/google/uuid"

type AdminLog struct {
	BaseSimple
	AdminID    uuid.UUID `db:"admin_id"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   uuid.UUID `db:"target_id"`
	Details    string    `db:"details"`
}
