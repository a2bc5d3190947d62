package entity

import "strings"

type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:64"`
	Email        string `json:"email" gorm:"uniqueIndex;size:191"`
	PasswordHash string `json:"-" gorm:"size:191"`
	DisplayName  string `json:"display_name" gorm:"size:191"`
	Age          int    `json:"age"`
	Bio          string `json:"bio" gorm:"type:text"`
	PhotoURL     string `json:"photo_url" gorm:"size:512"`
	Interests    string `json:"interests" gorm:"size:512"`
}

// PublicProfile is the identity payload released only through the reveal
// guard. It must never appear in any pre-reveal response.
type PublicProfile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Bio         string   `json:"bio"`
	PhotoURL    string   `json:"photo_url"`
	Interests   []string `json:"interests"`
}

// CandidateCard is what the rating queue sees: enough to rate on, no name,
// no photo that identifies, no contact details.
type CandidateCard struct {
	ID        string   `json:"id"`
	Age       int      `json:"age"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Age:         u.Age,
		Bio:         u.Bio,
		PhotoURL:    u.PhotoURL,
		Interests:   SplitInterests(u.Interests),
	}
}

func (u *User) Candidate() CandidateCard {
	return CandidateCard{ID: u.ID, Age: u.Age, Bio: u.Bio, Interests: SplitInterests(u.Interests)}
}

func SplitInterests(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name" binding:"required"`
	Age         int    `json:"age" binding:"omitempty,gte=18"`
	Bio         string `json:"bio"`
	PhotoURL    string `json:"photo_url"`
	Interests   string `json:"interests"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
