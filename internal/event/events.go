package event

// AppInitialized marks a successful startup.
func AppInitialized() {
	send("App Initialized")
}

// AppExited marks a clean shutdown.
func AppExited() {
	send("App Exited")
}

// MessageSent records an outgoing message without its content.
func MessageSent(provider, model string, attachments, words int) {
	send("Message Sent",
		"Provider", provider,
		"Model", model,
		"Attachments", attachments,
		"Words", words,
	)
}

// ImageGenerated records a completed image generation.
func ImageGenerated(model, size string) {
	send("Image Generated",
		"Model", model,
		"Size", size,
	)
}

// PromptsRefreshed records a suggested-prompt regeneration.
func PromptsRefreshed(provider, model string) {
	send("Prompts Refreshed",
		"Provider", provider,
		"Model", model,
	)
}

// VaultIndexed records the size of a completed reindex.
func VaultIndexed(count int) {
	send("Vault Indexed", "Notes", count)
}
