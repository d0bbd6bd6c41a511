package handlers

import (
	"telehealth-server/internal/services"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// StoryHandler handles patient stories and doctor comments.
type StoryHandler struct {
	Stories StoryService
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(stories StoryService) *StoryHandler {
	return &StoryHandler{Stories: stories}
}

// StoryRequest represents the request body for creating or editing a story.
type StoryRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	Story    string `json:"story" binding:"required"`
}

func (r StoryRequest) input() services.StoryInput {
	return services.StoryInput{Title: r.Title, Category: r.Category, Story: r.Story}
}

// CommentRequest represents the request body for a doctor's comment.
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *StoryHandler) UploadStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req StoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	story, err := h.Stories.Upload(c.Request.Context(), userID, req.input())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Story uploaded successfully", story)
}

func (h *StoryHandler) GetMyStories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stories, err := h.Stories.Mine(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Stories fetched successfully", stories)
}

// GetAllStories lists every story. Authors are hidden; isMine marks the
// caller's own.
func (h *StoryHandler) GetAllStories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stories, err := h.Stories.All(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Stories fetched successfully", stories)
}

func (h *StoryHandler) GetStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	story, err := h.Stories.Get(c.Request.Context(), userID, c.Param("storyId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Story fetched successfully", story)
}

func (h *StoryHandler) UpdateStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req StoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	story, err := h.Stories.Update(c.Request.Context(), userID, c.Param("storyId"), req.input())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Story updated successfully", story)
}

func (h *StoryHandler) DeleteStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.Stories.Delete(c.Request.Context(), userID, c.Param("storyId")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Story deleted successfully", nil)
}

func (h *StoryHandler) AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	story, err := h.Stories.Comment(c.Request.Context(), userID, c.Param("storyId"), req.Text)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, "Comment added successfully", story)
}

func (h *StoryHandler) EditComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	story, err := h.Stories.EditComment(c.Request.Context(), userID, c.Param("storyId"), c.Param("commentId"), req.Text)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Comment updated successfully", story)
}

func (h *StoryHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	story, err := h.Stories.DeleteComment(c.Request.Context(), userID, c.Param("storyId"), c.Param("commentId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, "Comment deleted successfully", story)
}
