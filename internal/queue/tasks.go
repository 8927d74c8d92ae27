package queue

const (
	TypeFeedIngest = "feed:ingest"
)

type FeedIngestPayload struct {
	Source string `json:"source"`
}
