package workflow

import "hlsbot/internal/services"

// SuccessMessage is the terminal text for a published package.
func SuccessMessage(url string) string {
	return "✅ Processing Complete!\n\n🔗 HLS Link:\n" + url
}

// FailureMessage is the terminal text for a failed job.
func FailureMessage(err error) string {
	return "❌ Error processing video: " + services.UserMessage(err)
}
