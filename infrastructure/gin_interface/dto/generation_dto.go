package dto

type GenerateEpisodeResponse struct {
	ScriptID   string `json:"script_id"`
	EpisodeNum int    `json:"episode_num"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Aborted    bool   `json:"aborted"`
	Reason     string `json:"reason,omitempty"`
}

type GenerateScriptRequest struct {
	EpisodeNums []int `json:"episode_nums" binding:"required,min=1"`
}

type SegmentResponse struct {
	SegmentID    string `json:"segment_id"`
	SceneNum     int    `json:"scene_num"`
	SegmentIndex int    `json:"segment_index"`
	Status       string `json:"status"`
	VideoURL     string `json:"video_url,omitempty"`
	SeedImageURL string `json:"seed_image_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	TokenCost    int64  `json:"token_cost"`
}

type CheckSegmentResponse struct {
	SegmentID string `json:"segment_id"`
	Status    string `json:"status"`
	VideoURL  string `json:"video_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type PreviewImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type PreviewImageResponse struct {
	ImageURL   string `json:"image_url"`
	TokensUsed int64  `json:"tokens_used"`
}
