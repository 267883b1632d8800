package model

const (
	BatchStatusQueued     = "queued"
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
)

// Batch groups the questions produced by one generation invocation. Partial
// delivery (Generated < Target) is a valid terminal state.
type Batch struct {
	ID        string               `json:"id"`
	SubjectID string               `json:"subject_id"`
	TopicID   string               `json:"topic_id,omitempty"`
	Targets   map[QuestionType]int `json:"targets"`
	Target    int                  `json:"target"`
	Generated int                  `json:"generated"`
	Status    string               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Ctime     int64                `json:"ctime"`
	Mtime     int64                `json:"mtime"`
}

func (b *Batch) Progress() float64 {
	if b.Target <= 0 {
		return 0
	}
	p := float64(b.Generated) / float64(b.Target)
	if p > 1 {
		p = 1
	}
	return p
}
