package models

// FeedbackKind classifies a message shown in the feedback area
type FeedbackKind string

const (
	FeedbackInfo       FeedbackKind = "info"
	FeedbackProgress   FeedbackKind = "progress"
	FeedbackResponse   FeedbackKind = "response"
	FeedbackHint       FeedbackKind = "hint"
	FeedbackEvaluation FeedbackKind = "evaluation"
	FeedbackWarning    FeedbackKind = "warning"
	FeedbackError      FeedbackKind = "error"
)
