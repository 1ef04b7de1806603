package domain

import "time"

// Session es el registro persistido de una sesión. ID es el hash del token
// opaco; el token en claro solo viaja en la cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired indica si la sesión ya no es válida en el instante now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
