package analysis

import "time"

// Analysis is a stored AI performance analysis.
type Analysis struct {
	ID                    string    `bson:"_id" json:"id"`
	UserID                string    `bson:"userId" json:"userId"`
	UserExamAttemptID     string    `bson:"userExamAttemptId,omitempty" json:"userExamAttemptId,omitempty"`
	InputExamResultsText  string    `bson:"inputExamResultsText" json:"inputExamResultsText"`
	InputStudentGoalsText string    `bson:"inputStudentGoalsText,omitempty" json:"inputStudentGoalsText,omitempty"`
	Recommendations       string    `bson:"recommendations" json:"recommendations"`
	FollowUpQuestions     string    `bson:"followUpQuestions,omitempty" json:"followUpQuestions,omitempty"`
	AnalyzedAt            time.Time `bson:"analyzedAt" json:"analyzedAt"`
}

// Input is an analysis request. ExamResults may be left empty to analyze the
// student's recent attempts.
type Input struct {
	ExamResults  string `json:"examResults" validate:"omitempty,min=10"`
	StudentGoals string `json:"studentGoals"`
	AttemptID    string `json:"attemptId"`
}

// Output is the model's structured reply.
type Output struct {
	Recommendations   string `json:"recommendations"`
	FollowUpQuestions string `json:"followUpQuestions,omitempty"`
}
