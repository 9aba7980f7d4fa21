package tutor

import "time"

const Collection = "tutors"

// Profile mirrors applicant details onto the tutor record consumed by the
// listing side of the platform. Doc id equals the identity id.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Profile) Fields() map[string]any {
	return map[string]any{
		"email":          p.Email,
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"phone":          p.Phone,
		"application_id": p.ApplicationID,
		"status":         p.Status,
		"created_at":     p.CreatedAt,
	}
}
