package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"telehealth-server/internal/logger"
	"telehealth-server/internal/models"
	"telehealth-server/internal/store"
	"telehealth-server/internal/utils"
)

// StoryInput is the editable part of a story.
type StoryInput struct {
	Title    string
	Category string
	Story    string
}

func (in StoryInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Story) == "" {
		return utils.NewValidationError("title, category and story are required")
	}
	return nil
}

// StoryService runs the community stories board.
type StoryService struct {
	stories  StoryStore
	accounts AccountStore
	log      *logger.Logger
	now      func() time.Time
}

func NewStoryService(stories StoryStore, accounts AccountStore, log *logger.Logger) *StoryService {
	return &StoryService{stories: stories, accounts: accounts, log: log, now: time.Now}
}

func (s *StoryService) load(ctx context.Context, id string) (*models.Story, error) {
	story, err := s.stories.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NewNotFoundError("Story not found")
		}
		return nil, err
	}
	return story, nil
}

func views(list []models.Story, viewerID string) []models.StoryView {
	out := make([]models.StoryView, 0, len(list))
	for i := range list {
		out = append(out, list[i].View(viewerID))
	}
	return out
}

// Upload publishes a story by the patient.
func (s *StoryService) Upload(ctx context.Context, patientID string, in StoryInput) (models.StoryView, error) {
	if err := in.validate(); err != nil {
		return models.StoryView{}, err
	}
	story := &models.Story{
		Title:      strings.TrimSpace(in.Title),
		Category:   strings.TrimSpace(in.Category),
		Body:       strings.TrimSpace(in.Story),
		UploadedBy: patientID,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return models.StoryView{}, err
	}
	s.log.Audit(patientID, "upload", "story", true, map[string]interface{}{"story_id": story.ID})
	return story.View(patientID), nil
}

// Mine lists the patient's own stories.
func (s *StoryService) Mine(ctx context.Context, patientID string) ([]models.StoryView, error) {
	list, err := s.stories.ByAuthor(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return views(list, patientID), nil
}

// All lists every story as seen by viewerID.
func (s *StoryService) All(ctx context.Context, viewerID string) ([]models.StoryView, error) {
	list, err := s.stories.List(ctx)
	if err != nil {
		return nil, err
	}
	return views(list, viewerID), nil
}

func (s *StoryService) Get(ctx context.Context, viewerID, storyID string) (models.StoryView, error) {
	story, err := s.load(ctx, storyID)
	if err != nil {
		return models.StoryView{}, err
	}
	return story.View(viewerID), nil
}

// Update edits a story. Only its author may.
func (s *StoryService) Update(ctx context.Context, patientID, storyID string, in StoryInput) (models.StoryView, error) {
	if err := in.validate(); err != nil {
		return models.StoryView{}, err
	}
	story, err := s.load(ctx, storyID)
	if err != nil {
		return models.StoryView{}, err
	}
	if story.UploadedBy != patientID {
		s.log.Security("story_edit_denied", patientID, map[string]interface{}{"story_id": storyID})
		return models.StoryView{}, utils.NewForbiddenError("You can only edit your own stories")
	}

	story.Title = strings.TrimSpace(in.Title)
	story.Category = strings.TrimSpace(in.Category)
	story.Body = strings.TrimSpace(in.Story)
	story.UpdatedAt = s.now()
	if err := s.stories.Update(ctx, story); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.StoryView{}, utils.NewNotFoundError("Story not found")
		}
		return models.StoryView{}, err
	}
	return story.View(patientID), nil
}

// Delete removes a story and its comments. Only its author may.
func (s *StoryService) Delete(ctx context.Context, patientID, storyID string) error {
	story, err := s.load(ctx, storyID)
	if err != nil {
		return err
	}
	if story.UploadedBy != patientID {
		s.log.Security("story_delete_denied", patientID, map[string]interface{}{"story_id": storyID})
		return utils.NewForbiddenError("You can only delete your own stories")
	}
	if err := s.stories.Delete(ctx, storyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NewNotFoundError("Story not found")
		}
		return err
	}
	s.log.Audit(patientID, "delete", "story", true, map[string]interface{}{"story_id": storyID})
	return nil
}

// Comment adds the doctor's comment to a story.
func (s *StoryService) Comment(ctx context.Context, doctorID, storyID, text string) (models.StoryView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.StoryView{}, utils.NewValidationError("Comment text is required")
	}
	story, err := s.load(ctx, storyID)
	if err != nil {
		return models.StoryView{}, err
	}

	c := models.Comment{
		StoryID:     storyID,
		DoctorID:    doctorID,
		Text:        text,
		CommentedAt: s.now(),
	}
	if err := s.stories.AddComment(ctx, &c); err != nil {
		return models.StoryView{}, err
	}
	// Attached after the insert so GORM does not try to save the doctor.
	if d, err := s.accounts.DoctorByID(ctx, doctorID); err == nil {
		c.Doctor = d
	} else {
		s.log.WithComponent("stories").WithError(err).WithField("doctor_id", doctorID).Warn("Loading commenter")
	}
	story.Comments = append(story.Comments, c)
	return story.View(doctorID), nil
}

func (s *StoryService) ownComment(ctx context.Context, doctorID, storyID, commentID string) (*models.Story, *models.Comment, error) {
	story, err := s.load(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}
	c := story.FindComment(commentID)
	if c == nil {
		return nil, nil, utils.NewNotFoundError("Comment not found")
	}
	if c.DoctorID != doctorID {
		s.log.Security("comment_edit_denied", doctorID, map[string]interface{}{"story_id": storyID, "comment_id": commentID})
		return nil, nil, utils.NewForbiddenError("You can only change your own comments")
	}
	return story, c, nil
}

// EditComment changes the text of the doctor's own comment.
func (s *StoryService) EditComment(ctx context.Context, doctorID, storyID, commentID, text string) (models.StoryView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.StoryView{}, utils.NewValidationError("Comment text is required")
	}
	story, c, err := s.ownComment(ctx, doctorID, storyID, commentID)
	if err != nil {
		return models.StoryView{}, err
	}
	c.Text = text
	if err := s.stories.UpdateComment(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.StoryView{}, utils.NewNotFoundError("Comment not found")
		}
		return models.StoryView{}, err
	}
	return story.View(doctorID), nil
}

// DeleteComment removes the doctor's own comment.
func (s *StoryService) DeleteComment(ctx context.Context, doctorID, storyID, commentID string) (models.StoryView, error) {
	story, _, err := s.ownComment(ctx, doctorID, storyID, commentID)
	if err != nil {
		return models.StoryView{}, err
	}
	if err := s.stories.DeleteComment(ctx, storyID, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.StoryView{}, utils.NewNotFoundError("Comment not found")
		}
		return models.StoryView{}, err
	}

	kept := story.Comments[:0]
	for _, c := range story.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	story.Comments = kept
	return story.View(doctorID), nil
}
