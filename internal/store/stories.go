package store

import (
	"context"
	"fmt"
	"time"

	"telehealth-server/internal/models"

	"gorm.io/gorm"
)

// Stories stores stories and the comments they own.
type Stories struct {
	db *gorm.DB
}

func NewStories(db *gorm.DB) *Stories {
	return &Stories{db: db}
}

func (s *Stories) withComments(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("commented_at ASC")
		}).
		Preload("Comments.Doctor")
}

func (s *Stories) Create(ctx context.Context, story *models.Story) error {
	if err := s.db.WithContext(ctx).Omit("Comments").Create(story).Error; err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

func (s *Stories) ByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	if err := s.withComments(ctx).Where("id = ?", id).First(&story).Error; err != nil {
		return nil, notFound(err)
	}
	return &story, nil
}

// List returns all stories, newest first.
func (s *Stories) List(ctx context.Context) ([]models.Story, error) {
	var list []models.Story
	if err := s.withComments(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return list, nil
}

// ByAuthor returns the patient's own stories, newest first.
func (s *Stories) ByAuthor(ctx context.Context, patientID string) ([]models.Story, error) {
	var list []models.Story
	err := s.withComments(ctx).
		Where("uploaded_by = ?", patientID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return list, nil
}

// Update writes title, category and body of story.
func (s *Stories) Update(ctx context.Context, story *models.Story) error {
	res := s.db.WithContext(ctx).Model(story).
		Select("title", "category", "story", "updated_at").
		Updates(map[string]interface{}{
			"title":      story.Title,
			"category":   story.Category,
			"story":      story.Body,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update story: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the story and its comments.
func (s *Stories) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Story{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete story: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Stories) AddComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit("Doctor").Create(c).Error; err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

func (s *Stories) UpdateComment(ctx context.Context, c *models.Comment) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND story_id = ?", c.ID, c.StoryID).
		Updates(map[string]interface{}{"text": c.Text, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Stories) DeleteComment(ctx context.Context, storyID, commentID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND story_id = ?", commentID, storyID).Delete(&models.Comment{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
