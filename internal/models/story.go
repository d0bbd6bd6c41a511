package models

import "time"

// Story is a patient's community post.
type Story struct {
	BaseModel
	Title      string    `gorm:"size:255;not null" json:"title"`
	Category   string    `gorm:"size:100;not null;index" json:"category"`
	Body       string    `gorm:"column:story;type:text;not null" json:"story"`
	UploadedBy string    `gorm:"size:36;index;not null" json:"-"`
	Comments   []Comment `gorm:"foreignKey:StoryID;constraint:OnDelete:CASCADE" json:"comments"`
}

// Comment is a doctor's reply on a story. It has no life outside its story.
type Comment struct {
	BaseModel
	StoryID     string    `gorm:"size:36;index;not null" json:"storyId"`
	DoctorID    string    `gorm:"size:36;index;not null" json:"doctorId"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CommentedAt time.Time `json:"commentedAt"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// StoryView is a story as shown to a reader. The author stays anonymous;
// IsMine tells the author which posts are theirs.
type StoryView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Category  string        `json:"category"`
	Story     string        `json:"story"`
	IsMine    bool          `json:"isMine"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CommentView is a comment with the commenting doctor's summary.
type CommentView struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	CommentedAt time.Time      `json:"commentedAt"`
	Doctor      *DoctorSummary `json:"doctor,omitempty"`
	IsMine      bool           `json:"isMine"`
}

// View renders s for the account viewerID.
func (s *Story) View(viewerID string) StoryView {
	comments := make([]CommentView, 0, len(s.Comments))
	for i := range s.Comments {
		c := &s.Comments[i]
		cv := CommentView{
			ID:          c.ID,
			Text:        c.Text,
			CommentedAt: c.CommentedAt,
			IsMine:      c.DoctorID == viewerID,
		}
		if c.Doctor != nil {
			summary := c.Doctor.Summary()
			cv.Doctor = &summary
		} else {
			cv.Doctor = &DoctorSummary{ID: c.DoctorID}
		}
		comments = append(comments, cv)
	}
	return StoryView{
		ID:        s.ID,
		Title:     s.Title,
		Category:  s.Category,
		Story:     s.Body,
		IsMine:    s.UploadedBy == viewerID,
		Comments:  comments,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// FindComment returns the comment with id, or nil.
func (s *Story) FindComment(id string) *Comment {
	for i := range s.Comments {
		if s.Comments[i].ID == id {
			return &s.Comments[i]
		}
	}
	return nil
}
