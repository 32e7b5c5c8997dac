package exams

import "time"

// Exam is an "exams" document. Questions are resolved from QuestionIDs on read.
type Exam struct {
	ID                string     `bson:"_id" json:"id"`
	Title             string     `bson:"title" json:"title"`
	SubjectID         string     `bson:"subjectId" json:"subjectId"`
	SubjectName       string     `bson:"subjectName" json:"subjectName"`
	TeacherID         string     `bson:"teacherId,omitempty" json:"teacherId,omitempty"`
	TeacherName       string     `bson:"teacherName,omitempty" json:"teacherName,omitempty"`
	DurationInMinutes int        `bson:"durationInMinutes,omitempty" json:"durationInMinutes,omitempty"`
	TotalQuestions    int        `bson:"totalQuestions,omitempty" json:"totalQuestions"`
	Image             string     `bson:"image,omitempty" json:"image,omitempty"`
	ImageHint         string     `bson:"imageHint,omitempty" json:"imageHint,omitempty"`
	Description       string     `bson:"description,omitempty" json:"description"`
	Published         bool       `bson:"published" json:"published"`
	QuestionIDs       []string   `bson:"questionIds" json:"questionIds"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
	Questions         []Question `bson:"-" json:"questions,omitempty"`
}

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAll    Difficulty = "all"
)

// Question is a "questions" document shared by exams and subject practice.
type Question struct {
	ID              string     `bson:"_id" json:"id"`
	QuestionText    string     `bson:"questionText" json:"questionText"`
	Options         []Option   `bson:"options" json:"options"`
	CorrectOptionID string     `bson:"correctOptionId,omitempty" json:"correctOptionId,omitempty"`
	SubjectID       string     `bson:"subjectId" json:"subjectId"`
	SubjectName     string     `bson:"subjectName" json:"subjectName"`
	Explanation     string     `bson:"explanation,omitempty" json:"explanation"`
	Points          *int       `bson:"points,omitempty" json:"points"`
	Topic           string     `bson:"topic,omitempty" json:"topic"`
	Difficulty      Difficulty `bson:"difficulty,omitempty" json:"difficulty"`
	Tags            []string   `bson:"tags,omitempty" json:"tags"`
	CreatedBy       string     `bson:"createdBy,omitempty" json:"createdBy"`
}

// ExamType distinguishes full exams from subject practice sessions.
type ExamType string

const (
	GeneralExam     ExamType = "general_exam"
	SubjectPractice ExamType = "subject_practice"
)

// NotAnswered is recorded for questions left without a selection.
const NotAnswered = "N/A"

type Answer struct {
	QuestionID       string `bson:"questionId" json:"questionId"`
	SelectedOptionID string `bson:"selectedOptionId" json:"selectedOptionId"`
	IsCorrect        bool   `bson:"isCorrect" json:"isCorrect"`
}

// Attempt is a "userExamAttempts" document.
type Attempt struct {
	ID                      string    `bson:"_id" json:"id"`
	UserID                  string    `bson:"userId" json:"userId"`
	ExamID                  string    `bson:"examId,omitempty" json:"examId,omitempty"`
	SubjectID               string    `bson:"subjectId,omitempty" json:"subjectId,omitempty"`
	ExamType                ExamType  `bson:"examType" json:"examType"`
	Score                   float64   `bson:"score" json:"score"`
	CorrectAnswersCount     int       `bson:"correctAnswersCount" json:"correctAnswersCount"`
	TotalQuestionsAttempted int       `bson:"totalQuestionsAttempted" json:"totalQuestionsAttempted"`
	Answers                 []Answer  `bson:"answers" json:"answers"`
	StartedAt               time.Time `bson:"startedAt" json:"startedAt"`
	CompletedAt             time.Time `bson:"completedAt" json:"completedAt"`
	CreatedAt               time.Time `bson:"createdAt" json:"createdAt"`
}

// AttemptInput is a submitted answer sheet. Answers maps question id to the
// selected option id. QuestionIDs lists the questions that were presented;
// for a general exam it defaults to the exam's questions.
type AttemptInput struct {
	UserID      string            `json:"-" validate:"required"`
	ExamID      string            `json:"examId" validate:"required_if=ExamType general_exam"`
	SubjectID   string            `json:"subjectId" validate:"required_if=ExamType subject_practice"`
	ExamType    ExamType          `json:"examType" validate:"required,oneof=general_exam subject_practice"`
	QuestionIDs []string          `json:"questionIds" validate:"required_if=ExamType subject_practice"`
	Answers     map[string]string `json:"answers"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
}

type AttemptResult struct {
	Attempt      *Attempt `json:"attempt"`
	PointsEarned int      `json:"pointsEarned"`
}

// ListFilter narrows ListPublic. Empty values and "all" match everything.
type ListFilter struct {
	SubjectID string
	TeacherID string
}
