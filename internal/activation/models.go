package activation

import "time"

// Code is an "activationCodes" document.
type Code struct {
	ID               string     `bson:"_id" json:"id"`
	EncodedValue     string     `bson:"encodedValue" json:"encodedValue"`
	Name             string     `bson:"name" json:"name"`
	Type             string     `bson:"type" json:"type"`
	IsActive         bool       `bson:"isActive" json:"isActive"`
	IsUsed           bool       `bson:"isUsed" json:"isUsed"`
	SubjectID        *string    `bson:"subjectId" json:"subjectId"`
	SubjectName      *string    `bson:"subjectName" json:"subjectName"`
	ValidFrom        time.Time  `bson:"validFrom" json:"validFrom"`
	ValidUntil       time.Time  `bson:"validUntil" json:"validUntil"`
	UsedAt           *time.Time `bson:"usedAt" json:"usedAt"`
	UsedByUserID     *string    `bson:"usedByUserId" json:"usedByUserId"`
	UsedForSubjectID *string    `bson:"usedForSubjectId,omitempty" json:"usedForSubjectId,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Usage is the state written onto a code when it is redeemed.
type Usage struct {
	UserID           string
	UsedAt           time.Time
	UsedForSubjectID *string
}

// Log is an "activationLogs" document, one per successful redemption.
type Log struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"`
	CodeID      string    `bson:"codeId" json:"codeId"`
	SubjectID   *string   `bson:"subjectId" json:"subjectId"`
	Email       string    `bson:"email" json:"email"`
	CodeType    string    `bson:"codeType" json:"codeType"`
	PlanName    string    `bson:"planName" json:"planName"`
	ActivatedAt time.Time `bson:"activatedAt" json:"activatedAt"`
}

// CodeDetails is the part of a code returned to the student after a check.
type CodeDetails struct {
	ID           string    `json:"id"`
	EncodedValue string    `json:"encodedValue"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	ValidUntil   time.Time `json:"validUntil"`
	SubjectID    *string   `json:"subjectId"`
	SubjectName  *string   `json:"subjectName"`
}

type CheckResult struct {
	IsValid            bool         `json:"isValid"`
	Message            string       `json:"message"`
	NeedsSubjectChoice bool         `json:"needsSubjectChoice"`
	Reason             string       `json:"reason,omitempty"`
	CodeDetails        *CodeDetails `json:"codeDetails,omitempty"`
}

// Confirmation is the redemption request. CodeType is the type the client saw
// during the check; the stored type is authoritative.
type Confirmation struct {
	UserID            string `json:"userId"`
	Email             string `json:"email"`
	CodeID            string `json:"codeId"`
	CodeType          string `json:"codeType"`
	ChosenSubjectID   string `json:"chosenSubjectId,omitempty"`
	ChosenSubjectName string `json:"chosenSubjectName,omitempty"`
}

type ConfirmationResult struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	ActivatedPlanName   string    `json:"activatedPlanName"`
	SubscriptionEndDate time.Time `json:"subscriptionEndDate"`
}

// GenerateRequest describes a batch of new codes.
type GenerateRequest struct {
	Count       int       `validate:"required,min=1,max=1000"`
	Type        string    `validate:"required,max=64"`
	Name        string    `validate:"max=120"`
	SubjectID   string    `validate:"required_with=SubjectName"`
	SubjectName string    `validate:"required_with=SubjectID"`
	ValidFrom   time.Time
	ValidUntil  time.Time `validate:"gtfield=ValidFrom"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Type       string
	OnlyUnused bool
	Limit      int64
}
