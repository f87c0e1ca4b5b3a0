package relay

import (
	"github.com/mr-mark-a/messagecaller/internal/model"
)

type userNotFoundPayload struct {
	Number string `json:"number"`
}

// UpdateProfile applies the present fields of patch to the caller's profile.
func (r *Relay) UpdateProfile(sessionID string, patch model.ProfilePatch) {
	number, ok := r.sessions.UserFor(sessionID)
	if !ok {
		r.Fail(sessionID, ErrNotAuthenticated)
		return
	}
	u, err := r.store.UpdateProfile(number, patch, r.nowMillis())
	if err != nil {
		r.Fail(sessionID, err)
		return
	}
	r.emitProfile(sessionID, EventProfileUpdated, u, false)
}

// GetUserByNumber answers a directory lookup with public fields only.
func (r *Relay) GetUserByNumber(sessionID, number string) {
	u, ok := r.store.PublicUser(number)
	if !ok {
		r.out.Emit(sessionID, EventUserNotFound, userNotFoundPayload{Number: number})
		return
	}
	r.out.Emit(sessionID, EventUserFound, u)
}
