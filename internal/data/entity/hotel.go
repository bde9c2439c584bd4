package entity

type Hotel struct {
	Base
	Name         string  `db:"name"`
	Address      string  `db:"address"`
	City         string  `db:"city"`
	Country      string  `db:"country"`
	StarRating   int     `db:"star_rating"`
	Description  *string `db:"description"`
	Amenities    *string `db:"amenities"`
	Phone        *string `db:"phone"`
	Email        *string `db:"email"`
	Website      *string `db:"website"`
	CheckInTime  string  `db:"check_in_time"`  // HH:MM
	CheckOutTime string  `db:"check_out_time"` // HH:MM
	IsActive     bool    `db:"is_active"`
}
