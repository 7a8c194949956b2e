package handlers

const (
	playerRenderError = "Failed to render player"
)
