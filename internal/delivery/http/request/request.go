package request

type ScrapeURLRequest struct {
	URL              string `json:"url"`
	Name             string `json:"name"`
	SyncToElevenLabs bool   `json:"syncToElevenLabs"`
	Force            bool   `json:"force"`
}
