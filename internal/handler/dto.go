package handler

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

type selectStoryRequest struct {
	StoryID string `json:"storyId" binding:"required"`
	Mode    string `json:"mode"`
}

type chooseRequest struct {
	Next string `json:"next" binding:"required"`
}

type createStoryResponse struct {
	ID string `json:"id"`
}
