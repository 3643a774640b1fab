package main

const (
	MsgFrameDropped = "The frame could not be processed and was dropped. Check that the buffer is raw RGBA and its length equals width*height*4."

	MsgFrameTooLarge = "The frame exceeds the configured pixel limit. Lower the capture resolution or raise max_pixels in the service configuration."

	MsgLegacyBitmap = "Bitmap-object processing has never been implemented. Use /process-frame with a raw RGBA buffer instead."
)
