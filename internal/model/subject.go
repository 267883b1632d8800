package model

type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

type Topic struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ctime       int64  `json:"ctime"`
}

// Outcome is a course/learning-outcome code a question can be mapped to.
type Outcome struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
