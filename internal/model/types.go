package model

// Profile holds the mutable identity attributes of a User.
type Profile struct {
	Nickname string `json:"nickname"`
	Lastname string `json:"lastname"`
	Photo    string `json:"photo"`
	Age      int    `json:"age,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Nickname *string `json:"nickname"`
	Lastname *string `json:"lastname"`
	Photo    *string `json:"photo"`
	Age      *int    `json:"age"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Birthday *string `json:"birthday"`
}

type User struct {
	Number string
	Profile
	SessionID string
	CreatedAt int64
	UpdatedAt int64
}

// PublicUser is the projection of a User that may cross the directory boundary.
type PublicUser struct {
	Number   string `json:"number"`
	Nickname string `json:"nickname"`
	Lastname string `json:"lastname"`
	Photo    string `json:"photo"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		Number:   u.Number,
		Nickname: u.Nickname,
		Lastname: u.Lastname,
		Photo:    u.Photo,
	}
}

type Message struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type CallSignalKind string

const (
	CallOffer        CallSignalKind = "offer"
	CallAnswer       CallSignalKind = "answer"
	CallICECandidate CallSignalKind = "ice-candidate"
	CallEnd          CallSignalKind = "end"
)
