package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Elephant struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Affiliation string `gorm:"not null"                 json:"affiliation"`
	Species     string `gorm:"not null"                 json:"species"`
	Sex         string `gorm:"not null"                 json:"sex"`
	WikiLink    string `gorm:"not null"                 json:"wikilink"`
	Image       string `gorm:"not null"                 json:"image"`
	Note        string `gorm:"not null"                 json:"note"`
	Price       int64  `gorm:"not null"                 json:"price"`
	PriceID     string `gorm:"not null"                 json:"price_id"`
}

// Raising records that a user paid for an elephant. Rows are written from
// both the payment webhook and the success callback; the unique index on
// (checkout_ref, elephant_id) makes whichever write comes second a no-op.
type Raising struct {
	ID          uint   `gorm:"primaryKey"                            json:"id"`
	UserID      uint   `gorm:"index;not null"                        json:"user_id"`
	ElephantID  uint   `gorm:"not null;uniqueIndex:idx_raisings_ref" json:"elephant_id"`
	CheckoutRef string `gorm:"not null;uniqueIndex:idx_raisings_ref" json:"checkout_ref"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"-"`
	JTI       string `gorm:"index"           json:"jti"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
